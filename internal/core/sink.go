package core

import (
	"gocv.io/x/gocv"
)

// DisplayFrame is an interleaved 8-bit RGB image
type DisplayFrame struct {
	Pix    []byte
	Width  int
	Height int
}

// Sink receives every processed frame. Publish must not block the frame loop for long.
type Sink interface {
	Publish(frame DisplayFrame)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(frame DisplayFrame)

func (f SinkFunc) Publish(frame DisplayFrame) {
	f(frame)
}

// ToDisplayFrame converts a BGR Mat into an RGB display frame
func ToDisplayFrame(bgr gocv.Mat) DisplayFrame {
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)

	return DisplayFrame{
		Pix:    rgb.ToBytes(),
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
	}
}

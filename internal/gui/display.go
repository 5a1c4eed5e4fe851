// Live preview of processed frames
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"camfx/internal/core"
)

// DisplayCanvas shows the most recent frame published by the frame loop.
// It implements core.Sink.
type DisplayCanvas struct {
	logger *logrus.Entry

	card  *widget.Card
	image *canvas.Image
}

func NewDisplayCanvas(width, height int, logger *logrus.Entry) *DisplayCanvas {
	dc := &DisplayCanvas{logger: logger}
	dc.initializeUI(width, height)
	return dc
}

func (dc *DisplayCanvas) initializeUI(width, height int) {
	dc.image = canvas.NewImageFromImage(placeholder(width, height))
	dc.image.FillMode = canvas.ImageFillContain
	dc.image.ScaleMode = canvas.ImageScaleFastest
	dc.image.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	dc.card = widget.NewCard("Camera", "", dc.image)
}

// Publish hands the frame to the UI goroutine and returns immediately
func (dc *DisplayCanvas) Publish(frame core.DisplayFrame) {
	img := ToRGBA(frame)
	if img == nil {
		dc.logger.WithFields(logrus.Fields{
			"width":  frame.Width,
			"height": frame.Height,
			"bytes":  len(frame.Pix),
		}).Warn("DISPLAY: Dropping malformed frame")
		return
	}

	fyne.Do(func() {
		dc.image.Image = img
		dc.image.Refresh()
	})
}

func (dc *DisplayCanvas) GetContainer() fyne.CanvasObject {
	return dc.card
}

// ToRGBA expands an interleaved RGB frame into an opaque RGBA image.
// It returns nil when the pixel buffer does not match the dimensions.
func ToRGBA(frame core.DisplayFrame) *image.RGBA {
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Pix) != frame.Width*frame.Height*3 {
		return nil
	}

	rgb, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
	if err != nil {
		return nil
	}
	defer rgb.Close()

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(rgb, &rgba, gocv.ColorRGBToRGBA)

	return &image.RGBA{
		Pix:    rgba.ToBytes(),
		Stride: frame.Width * 4,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
}

func placeholder(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	grey := color.RGBA{40, 40, 40, 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, grey)
		}
	}
	return img
}

// Pixel transforms for the filter catalog
package filters

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Pencil sketch settings, OpenCV defaults
const (
	sketchSigmaS      = 60
	sketchSigmaR      = 0.07
	sketchShadeFactor = 0.02
)

// SimpleGreyscale replaces each pixel with the truncated mean of its three channels
func SimpleGreyscale(src gocv.Mat) gocv.Mat {
	dst := cloneBGR(src)
	px := pixels(&dst)
	for i := 0; i+2 < len(px); i += 3 {
		v := mean3(px[i], px[i+1], px[i+2])
		px[i], px[i+1], px[i+2] = v, v, v
	}
	return dst
}

// WeightedGreyscale replaces each pixel with the weighted sum of its channels.
// Only the upper bound is clamped.
func WeightedGreyscale(src gocv.Mat, weights [3]float64) gocv.Mat {
	dst := cloneBGR(src)
	px := pixels(&dst)
	for i := 0; i+2 < len(px); i += 3 {
		sum := float64(px[i])*weights[0] + float64(px[i+1])*weights[1] + float64(px[i+2])*weights[2]
		v := uint8(255)
		if sum < 255 {
			v = uint8(int(sum))
		}
		px[i], px[i+1], px[i+2] = v, v, v
	}
	return dst
}

// ChannelGreyscale replicates one source channel (0 blue, 1 green, 2 red) across all three
func ChannelGreyscale(src gocv.Mat, channel int) gocv.Mat {
	if channel < 0 {
		channel = 0
	}
	if channel > 2 {
		channel = 2
	}

	dst := cloneBGR(src)
	px := pixels(&dst)
	for i := 0; i+2 < len(px); i += 3 {
		v := px[i+channel]
		px[i], px[i+1], px[i+2] = v, v, v
	}
	return dst
}

// OrColor ORs every pixel with a BGR color
func OrColor(src gocv.Mat, color [3]uint8) gocv.Mat {
	dst := cloneBGR(src)
	px := pixels(&dst)
	for i := 0; i+2 < len(px); i += 3 {
		px[i] |= color[0]
		px[i+1] |= color[1]
		px[i+2] |= color[2]
	}
	return dst
}

// Negate inverts every channel (XOR 255)
func Negate(src gocv.Mat) gocv.Mat {
	requireBGR(src)
	dst := gocv.NewMat()
	gocv.BitwiseNot(src, &dst)
	return dst
}

// Binarize maps the simple greyscale value to 255 when strictly above threshold, else 0
func Binarize(src gocv.Mat, threshold int) gocv.Mat {
	dst := cloneBGR(src)
	px := pixels(&dst)
	for i := 0; i+2 < len(px); i += 3 {
		v := uint8(0)
		if int(mean3(px[i], px[i+1], px[i+2])) > threshold {
			v = 255
		}
		px[i], px[i+1], px[i+2] = v, v, v
	}
	return dst
}

// Blur applies a normalized box filter of width x height
func Blur(src gocv.Mat, width, height int) gocv.Mat {
	requireBGR(src)
	dst := gocv.NewMat()
	gocv.Blur(src, &dst, image.Pt(atLeastOne(width), atLeastOne(height)))
	return dst
}

// GaussianBlur applies a Gaussian blur; even sizes are decremented to the next odd size
func GaussianBlur(src gocv.Mat, width, height int) gocv.Mat {
	requireBGR(src)
	dst := gocv.NewMat()
	gocv.GaussianBlur(src, &dst, image.Pt(OddKernel(width), OddKernel(height)), 0, 0, gocv.BorderDefault)
	return dst
}

// OddKernel coerces a kernel size to a positive odd value
func OddKernel(size int) int {
	size = atLeastOne(size)
	if size%2 == 0 {
		size--
	}
	return size
}

// Canny runs edge detection on the grey image and returns the edges as BGR
func Canny(src gocv.Mat, lower, upper float32) gocv.Mat {
	requireBGR(src)

	grey := gocv.NewMat()
	defer grey.Close()
	gocv.CvtColor(src, &grey, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(grey, &edges, lower, upper)

	dst := gocv.NewMat()
	gocv.CvtColor(edges, &dst, gocv.ColorGrayToBGR)
	return dst
}

// EmbossedEdges convolves each channel with a directional 3x3 kernel
func EmbossedEdges(src gocv.Mat) gocv.Mat {
	requireBGR(src)

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	weights := [3][3]float32{
		{0, -3, -3},
		{3, 0, -3},
		{3, 3, 0},
	}
	for row := range weights {
		for col, w := range weights[row] {
			kernel.SetFloatAt(row, col, w)
		}
	}

	dst := gocv.NewMat()
	gocv.Filter2D(src, &dst, gocv.MatType(-1), kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	return dst
}

// PencilSketch renders the grey pencil sketch and returns it as BGR
func PencilSketch(src gocv.Mat) gocv.Mat {
	requireBGR(src)

	sketch := gocv.NewMat()
	defer sketch.Close()
	colored := gocv.NewMat()
	defer colored.Close()
	gocv.PencilSketch(src, &sketch, &colored, sketchSigmaS, sketchSigmaR, sketchShadeFactor)

	dst := gocv.NewMat()
	gocv.CvtColor(sketch, &dst, gocv.ColorGrayToBGR)
	return dst
}

// requireBGR panics unless m is a non-empty 8-bit 3-channel frame
func requireBGR(m gocv.Mat) {
	if m.Empty() || m.Type() != gocv.MatTypeCV8UC3 {
		panic(fmt.Sprintf("filters: expected 8-bit BGR frame, got type %v with %d channels", m.Type(), m.Channels()))
	}
}

func cloneBGR(src gocv.Mat) gocv.Mat {
	requireBGR(src)
	return src.Clone()
}

// pixels exposes the Mat's interleaved bytes; the clone is always continuous
func pixels(m *gocv.Mat) []uint8 {
	px, err := m.DataPtrUint8()
	if err != nil {
		panic(fmt.Sprintf("filters: frame data not addressable: %v", err))
	}
	return px
}

func mean3(b, g, r uint8) uint8 {
	return uint8((int(b) + int(g) + int(r)) / 3)
}

func byteParam(v float64) uint8 {
	return uint8(Range{0, 255}.Clamp(v))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

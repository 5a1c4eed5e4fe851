// Still image and sticker loading
package io

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrStillImageDecode is wrapped when a selected file cannot be decoded into a frame
var ErrStillImageDecode = errors.New("cannot decode image")

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp", ".webp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Entry
}

func NewImageLoader(logger *logrus.Entry) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadStill decodes path into an 8-bit BGR frame
func (il *ImageLoader) LoadStill(path string) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading still image")

	if err := il.checkFile(path); err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrStillImageDecode, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Still image loaded")

	return mat, nil
}

// LoadSticker decodes path keeping any alpha channel, normalizes it to BGR or BGRA and
// scales it by scale
func (il *ImageLoader) LoadSticker(path string, scale float64) (gocv.Mat, error) {
	il.logger.WithFields(logrus.Fields{"filepath": path, "scale": scale}).Debug("Loading sticker")

	if scale <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid sticker scale %v", scale)
	}
	if err := il.checkFile(path); err != nil {
		return gocv.NewMat(), err
	}

	raw := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer raw.Close()
	if raw.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrStillImageDecode, path)
	}

	normalized, err := normalizeSticker(raw)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrStillImageDecode, path, err)
	}
	defer normalized.Close()

	size := image.Pt(scaled(normalized.Cols(), scale), scaled(normalized.Rows(), scale))
	sticker := gocv.NewMat()
	gocv.Resize(normalized, &sticker, size, 0, 0, gocv.InterpolationArea)

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    sticker.Cols(),
		"height":   sticker.Rows(),
		"alpha":    sticker.Channels() == 4,
	}).Info("Sticker loaded")

	return sticker, nil
}

// normalizeSticker converts 8-bit grey, grey+alpha, BGR and BGRA images to BGR or BGRA
func normalizeSticker(src gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	switch src.Type() {
	case gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		src.CopyTo(&dst)
	case gocv.MatTypeCV8UC1:
		gocv.CvtColor(src, &dst, gocv.ColorGrayToBGR)
	case gocv.MatTypeCV8UC2:
		// grey + alpha
		channels := gocv.Split(src)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()
		gocv.Merge([]gocv.Mat{channels[0], channels[0], channels[0], channels[1]}, &dst)
	default:
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported pixel type %v", src.Type())
	}
	return dst, nil
}

func (il *ImageLoader) checkFile(path string) error {
	if !il.IsSupportedImageFormat(path) {
		return fmt.Errorf("%w: unsupported image format: %s", ErrStillImageDecode, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStillImageDecode, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrStillImageDecode, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"size":     humanize.Bytes(uint64(info.Size())),
	}).Debug("Image file found")
	return nil
}

// IsSupportedImageFormat reports whether the file extension is one OpenCV decodes here
func (il *ImageLoader) IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// GetSupportedFormats returns the accepted extensions, for file dialog filters
func (il *ImageLoader) GetSupportedFormats() []string {
	return append([]string(nil), supportedFormats...)
}

func scaled(n int, scale float64) int {
	v := int(float64(n) * scale)
	if v < 1 {
		return 1
	}
	return v
}

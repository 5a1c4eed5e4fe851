// Video capture collaborator
package video

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrDeviceUnavailable is wrapped when a capture device cannot be opened
var ErrDeviceUnavailable = errors.New("video device unavailable")

// Source yields frames. Read returns false on a transient failure.
// *gocv.VideoCapture satisfies it.
type Source interface {
	Read(frame *gocv.Mat) bool
	Close() error
}

// Opener opens the capture device with the given index
type Opener func(device int) (Source, error)

// NewCameraOpener returns an Opener backed by OpenCV capture devices
func NewCameraOpener(logger *logrus.Entry) Opener {
	return func(device int) (Source, error) {
		return OpenCamera(device, logger)
	}
}

// OpenCamera opens an OpenCV capture device
func OpenCamera(device int, logger *logrus.Entry) (Source, error) {
	logger.WithField("device", device).Debug("Opening capture device")

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d", ErrDeviceUnavailable, device)
	}

	logger.WithField("device", device).Info("Capture device opened")
	return capture, nil
}

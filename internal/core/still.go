// Held still image for frozen mode
package core

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// StillImage holds one frame that is re-processed on every frozen tick
type StillImage struct {
	mu       sync.RWMutex
	frame    gocv.Mat
	hasImage bool
}

func NewStillImage() *StillImage {
	return &StillImage{
		frame: gocv.NewMat(),
	}
}

// Set stores a clone of mat, replacing any previous image
func (s *StillImage) Set(mat gocv.Mat) error {
	if err := ValidateFrame(mat); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame.Close()
	s.frame = mat.Clone()
	s.hasImage = true
	return nil
}

// CloneInto copies the held image into dst. It returns false when nothing is held.
func (s *StillImage) CloneInto(dst *gocv.Mat) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasImage {
		return false
	}
	s.frame.CopyTo(dst)
	return true
}

func (s *StillImage) HasImage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasImage
}

// Clear releases the held image
func (s *StillImage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame.Close()
	s.frame = gocv.NewMat()
	s.hasImage = false
}

// ValidateFrame checks that mat is a usable 8-bit BGR frame
func ValidateFrame(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("frame is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported frame type %v with %d channels", mat.Type(), mat.Channels())
	}

	// Check for reasonable size limits (prevent memory issues)
	const maxDimension = 16384
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("frame too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}

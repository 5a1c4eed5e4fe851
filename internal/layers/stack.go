// Sticker layers composited onto frames before filtering
package layers

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Sticker is a positioned overlay image. Image is 8-bit BGR or BGRA.
type Sticker struct {
	ID    uuid.UUID
	Image gocv.Mat
	X     int
	Y     int
}

// StickerStack holds stickers in insertion order; later stickers draw on top
type StickerStack struct {
	mu       sync.RWMutex
	stickers []*Sticker
	logger   *logrus.Entry
}

func NewStickerStack(logger *logrus.Entry) *StickerStack {
	return &StickerStack{
		stickers: make([]*Sticker, 0),
		logger:   logger,
	}
}

// Add takes ownership of img and places its top-left corner at (x, y)
func (s *StickerStack) Add(img gocv.Mat, x, y int) (uuid.UUID, error) {
	if img.Empty() {
		return uuid.Nil, fmt.Errorf("sticker image is empty")
	}
	if t := img.Type(); t != gocv.MatTypeCV8UC3 && t != gocv.MatTypeCV8UC4 {
		return uuid.Nil, fmt.Errorf("unsupported sticker type %v (%d channels)", t, img.Channels())
	}

	sticker := &Sticker{
		ID:    uuid.New(),
		Image: img,
		X:     x,
		Y:     y,
	}

	s.mu.Lock()
	s.stickers = append(s.stickers, sticker)
	count := len(s.stickers)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"sticker_id": sticker.ID,
		"x":          x,
		"y":          y,
		"width":      img.Cols(),
		"height":     img.Rows(),
		"count":      count,
	}).Info("Sticker added")

	return sticker.ID, nil
}

// Remove deletes the sticker with the given id
func (s *StickerStack) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, st := range s.stickers {
		if st.ID == id {
			s.removeAtUnsafe(i)
			return true
		}
	}
	return false
}

// RemoveFirst deletes the oldest sticker
func (s *StickerStack) RemoveFirst() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stickers) == 0 {
		return false
	}
	s.removeAtUnsafe(0)
	return true
}

// RemoveLast deletes the most recently added sticker
func (s *StickerStack) RemoveLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stickers) == 0 {
		return false
	}
	s.removeAtUnsafe(len(s.stickers) - 1)
	return true
}

func (s *StickerStack) removeAtUnsafe(i int) {
	st := s.stickers[i]
	s.stickers = append(s.stickers[:i], s.stickers[i+1:]...)
	st.Image.Close()

	s.logger.WithFields(logrus.Fields{
		"sticker_id": st.ID,
		"remaining":  len(s.stickers),
	}).Info("Sticker removed")
}

// Nudge moves the sticker with the given id by (dx, dy)
func (s *StickerStack) Nudge(id uuid.UUID, dx, dy int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stickers {
		if st.ID == id {
			st.X += dx
			st.Y += dy
			return true
		}
	}
	return false
}

// NudgeLast moves the most recently added sticker by (dx, dy)
func (s *StickerStack) NudgeLast(dx, dy int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stickers) == 0 {
		return false
	}
	st := s.stickers[len(s.stickers)-1]
	st.X += dx
	st.Y += dy
	s.logger.WithFields(logrus.Fields{"sticker_id": st.ID, "x": st.X, "y": st.Y}).Debug("Sticker moved")
	return true
}

func (s *StickerStack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stickers)
}

// GetStickers returns a positional snapshot. Images are shared with the stack and
// are only valid until the sticker is removed.
func (s *StickerStack) GetStickers() []Sticker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Sticker, len(s.stickers))
	for i, st := range s.stickers {
		result[i] = *st
	}
	return result
}

// CompositeOnto draws every sticker onto frame. The read lock is held while drawing so
// a concurrent Remove cannot close an image mid-draw.
func (s *StickerStack) CompositeOnto(frame *gocv.Mat) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.stickers) == 0 {
		return
	}

	stickers := make([]Sticker, len(s.stickers))
	for i, st := range s.stickers {
		stickers[i] = *st
	}
	Composite(frame, stickers)
}

// Clear removes and releases all stickers
func (s *StickerStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stickers {
		st.Image.Close()
	}
	s.stickers = make([]*Sticker, 0)
}

// Composite draws stickers onto a BGR frame in order, in place. BGRA stickers are
// alpha-blended, BGR stickers overwrite. Parts outside the frame are clipped.
func Composite(frame *gocv.Mat, stickers []Sticker) {
	if len(stickers) == 0 {
		return
	}
	if frame.Type() != gocv.MatTypeCV8UC3 {
		panic(fmt.Sprintf("layers: expected 8-bit BGR frame, got type %v", frame.Type()))
	}

	dst, err := frame.DataPtrUint8()
	if err != nil {
		panic(fmt.Sprintf("layers: frame data not addressable: %v", err))
	}
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())

	for i := range stickers {
		drawSticker(dst, bounds, &stickers[i])
	}
}

func drawSticker(dst []uint8, bounds image.Rectangle, st *Sticker) {
	sw, sh := st.Image.Cols(), st.Image.Rows()
	area := image.Rect(st.X, st.Y, st.X+sw, st.Y+sh).Intersect(bounds)
	if area.Empty() {
		return
	}

	src, err := st.Image.DataPtrUint8()
	if err != nil {
		return
	}
	ch := st.Image.Channels()
	fw := bounds.Dx()

	for y := area.Min.Y; y < area.Max.Y; y++ {
		sy := y - st.Y
		for x := area.Min.X; x < area.Max.X; x++ {
			si := (sy*sw + x - st.X) * ch
			di := (y*fw + x) * 3

			if ch == 4 {
				a := int(src[si+3])
				for c := 0; c < 3; c++ {
					dst[di+c] = uint8((int(src[si+c])*a + int(dst[di+c])*(255-a) + 127) / 255)
				}
				continue
			}
			copy(dst[di:di+3], src[si:si+3])
		}
	}
}

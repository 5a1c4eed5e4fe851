// Frame loop: acquire, overlay, filter, publish
package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"gocv.io/x/gocv"

	"camfx/internal/layers"
	"camfx/internal/metrics"
	"camfx/internal/video"
)

// State of the frame loop
type State int32

const (
	StateStopped State = iota
	StateLive
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateLive:
		return "live"
	case StateFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultDrainTimeout bounds how long a restart waits for the previous run to release
// its video source
const DefaultDrainTimeout = 2 * time.Second

// LoopConfig holds frame loop settings
type LoopConfig struct {
	Device int
	// IdleInterval is the wait after a missed frame and between frozen ticks
	IdleInterval time.Duration
	// DrainTimeout defaults to DefaultDrainTimeout when zero
	DrainTimeout time.Duration
}

// session is one run of the loop goroutine. It owns its video source and is the only
// place the source is released.
type session struct {
	stopped atomic.Bool
	done    chan struct{}

	mu      sync.Mutex
	source  video.Source
	release sync.Once
}

func newSession(src video.Source) *session {
	return &session{
		source: src,
		done:   make(chan struct{}),
	}
}

func (s *session) currentSource() video.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *session) setSource(src video.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

func (s *session) close(logger *logrus.Entry) {
	s.release.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.source == nil {
			return
		}
		if err := s.source.Close(); err != nil {
			logger.WithError(err).Warn("LOOP: Failed to release video source")
		} else {
			logger.Info("LOOP: Video source released")
		}
		s.source = nil
	})
}

// FrameLoop continuously produces processed frames for a Sink
type FrameLoop struct {
	mu       sync.Mutex // serializes lifecycle transitions
	state    atomic.Int32
	session  *session
	draining *session // stopped session that may still hold the device

	config   LoopConfig
	opener   video.Opener
	still    *StillImage
	stickers *layers.StickerStack
	pipeline *Pipeline
	sink     Sink
	stats    *metrics.LoopStats
	logger   *logrus.Entry
}

func NewFrameLoop(
	config LoopConfig,
	opener video.Opener,
	pipeline *Pipeline,
	stickers *layers.StickerStack,
	sink Sink,
	logger *logrus.Entry,
) *FrameLoop {
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	return &FrameLoop{
		config:   config,
		opener:   opener,
		still:    NewStillImage(),
		stickers: stickers,
		pipeline: pipeline,
		sink:     sink,
		stats:    metrics.NewLoopStats(),
		logger:   logger,
	}
}

func (l *FrameLoop) State() State {
	return State(l.state.Load())
}

func (l *FrameLoop) Stats() metrics.Snapshot {
	return l.stats.Snapshot()
}

// Start begins live capture. From frozen mode it behaves like ResumeLive. If the device
// cannot be opened the loop stays stopped and the error wraps video.ErrDeviceUnavailable.
func (l *FrameLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.State() {
	case StateLive:
		return nil
	case StateFrozen:
		return l.resumeLiveUnsafe()
	}

	l.awaitDrainUnsafe()

	src, err := l.opener(l.config.Device)
	if err != nil {
		l.logger.WithError(err).WithField("device", l.config.Device).Warn("LOOP: Cannot start live capture")
		return err
	}

	l.launchUnsafe(newSession(src), StateLive)
	return nil
}

// LoadStill switches to re-processing a clone of img on every tick. An open capture
// device is kept so ResumeLive does not reopen it.
func (l *FrameLoop) LoadStill(img gocv.Mat) error {
	if err := l.still.Set(img); err != nil {
		return fmt.Errorf("load still: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() == StateStopped {
		l.awaitDrainUnsafe()
		l.launchUnsafe(newSession(nil), StateFrozen)
		return nil
	}

	l.setStateUnsafe(StateFrozen)
	return nil
}

// ResumeLive returns from frozen mode to live capture, opening the device if the loop
// was started frozen. From stopped it starts the loop.
func (l *FrameLoop) ResumeLive() error {
	if l.State() == StateStopped {
		return l.Start()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() != StateFrozen {
		return nil
	}
	return l.resumeLiveUnsafe()
}

func (l *FrameLoop) resumeLiveUnsafe() error {
	if l.session.currentSource() == nil {
		src, err := l.opener(l.config.Device)
		if err != nil {
			l.logger.WithError(err).WithField("device", l.config.Device).Warn("LOOP: Cannot resume live capture")
			return err
		}
		l.session.setSource(src)
	}

	l.setStateUnsafe(StateLive)
	return nil
}

// Stop requests the loop goroutine to exit. It does not wait; the returned channel is
// closed once the goroutine has released the video source.
func (l *FrameLoop) Stop() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session == nil {
		done := make(chan struct{})
		close(done)
		return done
	}

	s := l.session
	l.session = nil
	l.draining = s
	s.stopped.Store(true)
	l.setStateUnsafe(StateStopped)
	return s.done
}

// awaitDrainUnsafe waits, up to DrainTimeout, for the previous run goroutine to release
// its source so the device is free to reopen and its counters are final
func (l *FrameLoop) awaitDrainUnsafe() {
	previous := l.draining
	if previous == nil {
		return
	}
	l.draining = nil

	select {
	case <-previous.done:
	case <-time.After(l.config.DrainTimeout):
		l.logger.WithField("timeout", l.config.DrainTimeout.String()).Warn("LOOP: Previous run still draining")
	}
}

func (l *FrameLoop) launchUnsafe(s *session, state State) {
	l.session = s
	l.stats.Reset()
	l.setStateUnsafe(state)
	go l.run(s)
}

func (l *FrameLoop) setStateUnsafe(state State) {
	previous := State(l.state.Swap(int32(state)))
	if previous != state {
		l.logger.WithFields(logrus.Fields{
			"from": previous.String(),
			"to":   state.String(),
		}).Info("LOOP: State changed")
	}
}

func (l *FrameLoop) run(s *session) {
	defer close(s.done)
	defer s.close(l.logger)

	l.logger.Debug("LOOP: Goroutine started")

	frame := gocv.NewMat()
	defer frame.Close()

	for !s.stopped.Load() {
		published := l.tick(s, &frame)
		if !published || l.State() == StateFrozen {
			time.Sleep(l.config.IdleInterval)
		}
	}

	l.logger.WithField("stats", l.stats.Snapshot().String()).Info("LOOP: Goroutine finished")
}

// tick runs one acquire/overlay/filter/publish iteration
func (l *FrameLoop) tick(s *session, frame *gocv.Mat) (published bool) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithField("panic", r).Error("LOOP: Tick failed")
			published = false
		}
	}()

	l.stats.Tick()
	start := time.Now()

	switch l.State() {
	case StateLive:
		src := s.currentSource()
		if src == nil || !src.Read(frame) || frame.Empty() {
			l.stats.Missed()
			l.logger.Debug("LOOP: No frame from video source")
			return false
		}
	case StateFrozen:
		if !l.still.CloneInto(frame) {
			l.stats.Missed()
			return false
		}
	default:
		return false
	}

	if err := ValidateFrame(*frame); err != nil {
		l.stats.Missed()
		l.logger.WithError(err).Warn("LOOP: Skipping unusable frame")
		return false
	}

	l.stickers.CompositeOnto(frame)

	result := l.pipeline.Run(*frame)
	display := ToDisplayFrame(result)
	result.Close()

	l.sink.Publish(display)
	l.stats.Published(time.Since(start))
	return true
}

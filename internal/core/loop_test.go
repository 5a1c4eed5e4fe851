package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"gocv.io/x/gocv"

	"camfx/internal/filters"
	"camfx/internal/layers"
	"camfx/internal/video"
)

const (
	waitFor = 2 * time.Second
	pollAt  = 2 * time.Millisecond
)

// scriptedSource fails the reads listed in script with false, then succeeds forever
type scriptedSource struct {
	mu     sync.Mutex
	script []bool
	reads  int
	frame  gocv.Mat
	closed atomic.Int32
	// closeDelay simulates a driver that is slow to release the device
	closeDelay time.Duration
}

func newScriptedSource(t *testing.T, script ...bool) *scriptedSource {
	t.Helper()
	return &scriptedSource{
		script: script,
		frame:  bgrFrame(t, 6, 8, 10, 20, 30),
	}
}

func (s *scriptedSource) Read(frame *gocv.Mat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reads
	s.reads++
	if i < len(s.script) && !s.script[i] {
		return false
	}
	s.frame.CopyTo(frame)
	return true
}

func (s *scriptedSource) Close() error {
	time.Sleep(s.closeDelay)
	s.closed.Inc()
	return nil
}

func (s *scriptedSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type recordingSink struct {
	mu      sync.Mutex
	frames  []DisplayFrame
	readsAt []int
	source  *scriptedSource
}

func (r *recordingSink) Publish(frame DisplayFrame) {
	reads := 0
	if r.source != nil {
		reads = r.source.Reads()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	r.readsAt = append(r.readsAt, reads)
}

func (r *recordingSink) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingSink) Last() DisplayFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return DisplayFrame{}
	}
	return r.frames[len(r.frames)-1]
}

func (r *recordingSink) FirstReadsAt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readsAt[0]
}

type countingOpener struct {
	opens  atomic.Int32
	source video.Source
	err    error
	onOpen func()
}

func (o *countingOpener) Open(device int) (video.Source, error) {
	o.opens.Inc()
	if o.onOpen != nil {
		o.onOpen()
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.source, nil
}

type loopFixture struct {
	loop     *FrameLoop
	pipeline *Pipeline
	stickers *layers.StickerStack
	sink     *recordingSink
	opener   *countingOpener
}

func newLoopFixture(t *testing.T, src *scriptedSource) *loopFixture {
	t.Helper()
	f := &loopFixture{
		pipeline: newTestPipeline(),
		stickers: layers.NewStickerStack(testLogger()),
		sink:     &recordingSink{source: src},
		opener:   &countingOpener{},
	}
	if src != nil {
		f.opener.source = src
	}
	f.loop = NewFrameLoop(
		LoopConfig{Device: 0, IdleInterval: time.Millisecond},
		f.opener.Open,
		f.pipeline,
		f.stickers,
		f.sink,
		testLogger(),
	)
	t.Cleanup(func() {
		<-f.loop.Stop()
		f.stickers.Clear()
	})
	return f
}

func TestFrameLoop_RetriesMissedFramesWithoutPublishing(t *testing.T) {
	src := newScriptedSource(t, false, false, false)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	require.Equal(t, StateLive, f.loop.State())

	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)
	require.Equal(t, 4, f.sink.FirstReadsAt(), "nothing may be published for the failed reads")
	require.Equal(t, StateLive, f.loop.State())
	require.GreaterOrEqual(t, f.loop.Stats().Missed, uint64(3))
}

func TestFrameLoop_PublishesRGBFrames(t *testing.T) {
	src := newScriptedSource(t)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)

	frame := f.sink.Last()
	require.Equal(t, 8, frame.Width)
	require.Equal(t, 6, frame.Height)
	require.Len(t, frame.Pix, 8*6*3)
	require.Equal(t, []byte{30, 20, 10}, frame.Pix[:3])
}

func TestFrameLoop_DeviceUnavailable(t *testing.T) {
	f := newLoopFixture(t, nil)
	f.opener.err = video.ErrDeviceUnavailable

	err := f.loop.Start()
	require.Error(t, err)
	require.True(t, errors.Is(err, video.ErrDeviceUnavailable))
	require.Equal(t, StateStopped, f.loop.State())

	// a later attempt can still succeed
	src := newScriptedSource(t)
	f.sink.source = src
	f.opener.err = nil
	f.opener.source = src
	require.NoError(t, f.loop.Start())
	require.Equal(t, StateLive, f.loop.State())
	<-f.loop.Stop()
}

func TestFrameLoop_StopReleasesSourceOnce(t *testing.T) {
	src := newScriptedSource(t)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)

	select {
	case <-f.loop.Stop():
	case <-time.After(waitFor):
		t.Fatal("loop did not stop")
	}
	require.Equal(t, StateStopped, f.loop.State())
	require.Equal(t, int32(1), src.closed.Load())

	<-f.loop.Stop()
	require.Equal(t, int32(1), src.closed.Load())

	published := f.sink.Count()
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, published, f.sink.Count(), "no frames after stop")
}

func TestFrameLoop_RestartWaitsForRelease(t *testing.T) {
	first := newScriptedSource(t)
	first.closeDelay = 50 * time.Millisecond
	second := newScriptedSource(t)
	f := newLoopFixture(t, first)

	require.NoError(t, f.loop.Start())
	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)

	f.loop.Stop()

	releasedAtOpen := int32(-1)
	f.opener.source = second
	f.opener.onOpen = func() { releasedAtOpen = first.closed.Load() }
	require.NoError(t, f.loop.Start())

	require.Equal(t, int32(1), releasedAtOpen, "device reopened before the previous run released it")
	require.Equal(t, StateLive, f.loop.State())
	require.Equal(t, int32(2), f.opener.opens.Load())
	<-f.loop.Stop()
}

func TestFrameLoop_StillAfterStopWaitsForRelease(t *testing.T) {
	src := newScriptedSource(t)
	src.closeDelay = 50 * time.Millisecond
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	f.loop.Stop()

	require.NoError(t, f.loop.LoadStill(bgrFrame(t, 2, 2, 0, 0, 0)))
	require.Equal(t, int32(1), src.closed.Load())
	require.Equal(t, StateFrozen, f.loop.State())
}

func TestFrameLoop_StartTwiceOpensOnce(t *testing.T) {
	src := newScriptedSource(t)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	require.NoError(t, f.loop.Start())
	require.Equal(t, int32(1), f.opener.opens.Load())
}

func TestFrameLoop_StillImageFromStopped(t *testing.T) {
	f := newLoopFixture(t, nil)
	still := bgrFrame(t, 2, 3, 1, 2, 3)

	require.NoError(t, f.loop.LoadStill(still))
	require.Equal(t, StateFrozen, f.loop.State())
	require.Equal(t, int32(0), f.opener.opens.Load())

	require.Eventually(t, func() bool { return f.sink.Count() >= 2 }, waitFor, pollAt)
	frame := f.sink.Last()
	require.Equal(t, 3, frame.Width)
	require.Equal(t, 2, frame.Height)
	require.Equal(t, []byte{3, 2, 1}, frame.Pix[:3])

	// resuming opens the device lazily
	src := newScriptedSource(t)
	f.opener.source = src
	require.NoError(t, f.loop.ResumeLive())
	require.Equal(t, StateLive, f.loop.State())
	require.Equal(t, int32(1), f.opener.opens.Load())
	require.Eventually(t, func() bool { return f.sink.Last().Width == 8 }, waitFor, pollAt)
	<-f.loop.Stop()
}

func TestFrameLoop_StillImageKeepsDeviceOpen(t *testing.T) {
	src := newScriptedSource(t)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.Start())
	require.NoError(t, f.loop.LoadStill(bgrFrame(t, 2, 2, 0, 0, 0)))
	require.Equal(t, StateFrozen, f.loop.State())
	require.Eventually(t, func() bool { return f.sink.Last().Width == 2 }, waitFor, pollAt)
	require.Equal(t, int32(0), src.closed.Load())

	require.NoError(t, f.loop.ResumeLive())
	require.Equal(t, StateLive, f.loop.State())
	require.Equal(t, int32(1), f.opener.opens.Load())
	require.Eventually(t, func() bool { return f.sink.Last().Width == 8 }, waitFor, pollAt)
}

func TestFrameLoop_StartFromFrozenResumesLive(t *testing.T) {
	src := newScriptedSource(t)
	f := newLoopFixture(t, src)

	require.NoError(t, f.loop.LoadStill(bgrFrame(t, 2, 2, 0, 0, 0)))
	require.NoError(t, f.loop.Start())
	require.Equal(t, StateLive, f.loop.State())
	require.Equal(t, int32(1), f.opener.opens.Load())
}

func TestFrameLoop_RejectsUnusableStill(t *testing.T) {
	f := newLoopFixture(t, nil)

	empty := gocv.NewMat()
	defer empty.Close()
	require.Error(t, f.loop.LoadStill(empty))
	require.Equal(t, StateStopped, f.loop.State())
}

func TestFrameLoop_OverlayBeforeFilters(t *testing.T) {
	f := newLoopFixture(t, nil)

	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 1, 1, gocv.MatTypeCV8UC3)
	_, err := f.stickers.Add(white, 0, 0)
	require.NoError(t, err)
	f.pipeline.Toggle(filters.IDNegate)

	require.NoError(t, f.loop.LoadStill(bgrFrame(t, 2, 2, 0, 0, 0)))
	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)

	frame := f.sink.Last()
	// the sticker pixel was negated along with the frame
	require.Equal(t, []byte{0, 0, 0}, frame.Pix[:3])
	require.Equal(t, []byte{255, 255, 255}, frame.Pix[3:6])
}

func TestFrameLoop_FilterChangesApplyToNextFrame(t *testing.T) {
	f := newLoopFixture(t, nil)

	require.NoError(t, f.loop.LoadStill(bgrFrame(t, 2, 2, 10, 20, 30)))
	require.Eventually(t, func() bool { return f.sink.Count() > 0 }, waitFor, pollAt)
	require.Equal(t, []byte{30, 20, 10}, f.sink.Last().Pix[:3])

	f.pipeline.Toggle(filters.IDNegate)
	require.Eventually(t, func() bool {
		pix := f.sink.Last().Pix
		return len(pix) >= 3 && pix[0] == 225 && pix[1] == 235 && pix[2] == 245
	}, waitFor, pollAt)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "stopped", StateStopped.String())
	require.Equal(t, "live", StateLive.String())
	require.Equal(t, "frozen", StateFrozen.String())
	require.Equal(t, "state(9)", State(9).String())
}

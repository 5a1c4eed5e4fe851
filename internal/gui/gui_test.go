package gui

import (
	"image"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"camfx/internal/core"
	"camfx/internal/filters"
	"camfx/internal/metrics"
)

func testLogger() *logrus.Entry {
	logger, _ := logtest.NewNullLogger()
	return logger.WithField("component", "gui")
}

func newTestFilterPanel(t *testing.T) (*FilterPanel, *core.Pipeline) {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)

	pipeline := core.NewPipeline(filters.NewInstances(), testLogger())
	return NewFilterPanel(pipeline, testLogger()), pipeline
}

func TestFilterPanel_ButtonsToggleComposition(t *testing.T) {
	panel, pipeline := newTestFilterPanel(t)
	require.Len(t, panel.buttons, filters.Count())
	require.Equal(t, CompositionPrefix+core.NoFiltersSelected, panel.CompositionText())

	test.Tap(panel.buttons[filters.IDSimpleGreyscale])
	test.Tap(panel.buttons[filters.IDBinarize])
	require.Equal(t, "Filter composition: Simple Greyscale > Binarize", panel.CompositionText())
	require.Equal(t, []int{filters.IDSimpleGreyscale, filters.IDBinarize}, pipeline.ActiveIDs())

	test.Tap(panel.buttons[filters.IDSimpleGreyscale])
	require.Equal(t, "Filter composition: Binarize", panel.CompositionText())
}

func TestFilterPanel_ParameterVisibilityFollowsToggle(t *testing.T) {
	panel, _ := newTestFilterPanel(t)

	require.Nil(t, panel.panels[filters.IDNegate])
	panel.Toggle(filters.IDNegate)
	require.False(t, panel.ParametersVisible(filters.IDNegate))

	require.False(t, panel.ParametersVisible(filters.IDBlur))
	panel.Toggle(filters.IDBlur)
	require.True(t, panel.ParametersVisible(filters.IDBlur))
	require.True(t, panel.panels[filters.IDBlur].box.Visible())

	panel.Toggle(filters.IDBlur)
	require.False(t, panel.ParametersVisible(filters.IDBlur))
	require.False(t, panel.panels[filters.IDBlur].box.Visible())
}

func TestFilterPanel_SlidersUpdateParameters(t *testing.T) {
	panel, pipeline := newTestFilterPanel(t)

	orSliders := panel.panels[filters.IDOrFilter].sliders
	require.Len(t, orSliders, 3)
	require.Equal(t, 255.0, orSliders[0].Value)
	orSliders[1].OnChanged(128)
	require.Equal(t, []float64{255, 128, 255}, pipeline.Instance(filters.IDOrFilter).Parameters())

	threshold := panel.panels[filters.IDBinarize].sliders
	require.Len(t, threshold, 1)
	threshold[0].OnChanged(42)
	require.Equal(t, []float64{42}, pipeline.Instance(filters.IDBinarize).Parameters())

	weights := panel.panels[filters.IDWeightedGreyscale].sliders
	require.Equal(t, floatSliderStep, weights[0].Step)
	weights[2].OnChanged(0.5)
	require.Equal(t, 0.5, pipeline.Instance(filters.IDWeightedGreyscale).Parameters()[2])
}

func TestComponentName(t *testing.T) {
	or := filters.MustLookup(filters.IDOrFilter)
	require.Equal(t, "Blue", componentName(or, 0))
	require.Equal(t, "Red", componentName(or, 2))

	canny := filters.MustLookup(filters.IDCanny)
	require.Equal(t, "Lower Threshold", componentName(canny, 0))
	require.Equal(t, "Upper Threshold", componentName(canny, 1))

	binarize := filters.MustLookup(filters.IDBinarize)
	require.Equal(t, "Threshold", componentName(binarize, filters.NoComponent))
}

func TestToolbar_CameraAndStickerButtons(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var toggled, removed int
	toolbar := NewToolbar()
	toolbar.SetCallbacks(func() { toggled++ }, nil, nil, func() { removed++ })

	require.Equal(t, StopCameraText, toolbar.CameraText())
	require.False(t, toolbar.RemoveStickerVisible())

	test.Tap(toolbar.cameraBtn)
	require.Equal(t, 1, toggled)

	toolbar.SetCameraRunning(false)
	require.Equal(t, StartCameraText, toolbar.CameraText())
	toolbar.SetCameraRunning(true)
	require.Equal(t, StopCameraText, toolbar.CameraText())

	toolbar.SetRemoveStickerVisible(true)
	require.True(t, toolbar.RemoveStickerVisible())
	test.Tap(toolbar.removeStickerBtn)
	require.Equal(t, 1, removed)

	// unset callbacks are ignored
	test.Tap(toolbar.selectImageBtn)
	test.Tap(toolbar.addStickerBtn)
}

func TestNudgeFor(t *testing.T) {
	cases := []struct {
		key    fyne.KeyName
		dx, dy int
		ok     bool
	}{
		{fyne.KeyW, 0, -10, true},
		{fyne.KeyA, -10, 0, true},
		{fyne.KeyS, 0, 10, true},
		{fyne.KeyD, 10, 0, true},
		{fyne.KeyQ, 0, 0, false},
		{fyne.KeyEscape, 0, 0, false},
	}
	for _, tc := range cases {
		dx, dy, ok := NudgeFor(tc.key, 10)
		require.Equal(t, tc.ok, ok, tc.key)
		require.Equal(t, tc.dx, dx, tc.key)
		require.Equal(t, tc.dy, dy, tc.key)
	}
}

func TestToRGBA(t *testing.T) {
	img := ToRGBA(core.DisplayFrame{
		Pix:    []byte{1, 2, 3, 4, 5, 6},
		Width:  2,
		Height: 1,
	})
	require.NotNil(t, img)
	require.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255}, img.Pix)

	// rows stay in order with the 4 byte stride
	tall := ToRGBA(core.DisplayFrame{
		Pix:    []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Width:  2,
		Height: 2,
	})
	require.NotNil(t, tall)
	require.Equal(t, 8, tall.Stride)
	require.Equal(t, image.Rect(0, 0, 2, 2), tall.Bounds())
	r, g, b, _ := tall.At(0, 1).RGBA()
	require.Equal(t, []uint32{7, 8, 9}, []uint32{r >> 8, g >> 8, b >> 8})

	require.Nil(t, ToRGBA(core.DisplayFrame{Pix: []byte{1, 2}, Width: 1, Height: 1}))
	require.Nil(t, ToRGBA(core.DisplayFrame{}))
}

func TestFormatStats(t *testing.T) {
	require.Equal(t, "stopped", FormatStats(core.StateStopped, metrics.Snapshot{}))

	stats := metrics.Snapshot{Published: 1500, Missed: 2, Uptime: 10 * time.Second}
	require.Equal(t, "live: 1,500 frames published, 2 missed, 150.0 fps", FormatStats(core.StateLive, stats))
}

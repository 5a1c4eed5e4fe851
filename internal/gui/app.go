// Main window: wires the filter pipeline, sticker stack and frame loop to the widgets
package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"github.com/sirupsen/logrus"

	"camfx/internal/config"
	"camfx/internal/core"
	"camfx/internal/filters"
	"camfx/internal/io"
	"camfx/internal/layers"
	"camfx/internal/video"
)

const (
	statsInterval = time.Second
	stopTimeout   = 2 * time.Second
)

// Application represents the main window and its collaborators
type Application struct {
	app    fyne.App
	window fyne.Window
	config *config.Config
	logger *logrus.Logger

	// Core components
	pipeline *core.Pipeline
	stickers *layers.StickerStack
	loader   *io.ImageLoader
	loop     *core.FrameLoop
	opener   video.Opener

	// GUI components
	display     *DisplayCanvas
	filterPanel *FilterPanel
	toolbar     *Toolbar
	status      *StatusPanel
	menuHandler *MenuHandler

	stopStats context.CancelFunc
}

func NewApplication(app fyne.App, cfg *config.Config, logger *logrus.Logger) *Application {
	opener := video.NewCameraOpener(logger.WithField("component", "video"))
	return NewApplicationWithOpener(app, cfg, opener, logger)
}

// NewApplicationWithOpener builds the window around a caller supplied capture opener
func NewApplicationWithOpener(app fyne.App, cfg *config.Config, opener video.Opener, logger *logrus.Logger) *Application {
	window := app.NewWindow("camfx")
	window.Resize(fyne.NewSize(1280, 900))
	window.CenterOnScreen()

	appInstance := &Application{
		app:    app,
		window: window,
		config: cfg,
		logger: logger,
		opener: opener,
	}

	appInstance.initializeCore()
	appInstance.initializeGUI()
	appInstance.setupLayout()
	appInstance.setupCallbacks()

	return appInstance
}

func (a *Application) component(name string) *logrus.Entry {
	return a.logger.WithField("component", name)
}

func (a *Application) initializeCore() {
	a.pipeline = core.NewPipeline(filters.NewInstances(), a.component("pipeline"))
	a.stickers = layers.NewStickerStack(a.component("stickers"))
	a.loader = io.NewImageLoader(a.component("loader"))
	a.display = NewDisplayCanvas(a.config.FrameWidth, a.config.FrameHeight, a.component("display"))

	a.loop = core.NewFrameLoop(
		core.LoopConfig{
			Device:       a.config.CameraDevice,
			IdleInterval: a.config.IdleInterval,
		},
		a.opener,
		a.pipeline,
		a.stickers,
		a.display,
		a.component("loop"),
	)
}

func (a *Application) initializeGUI() {
	a.filterPanel = NewFilterPanel(a.pipeline, a.component("gui"))
	a.toolbar = NewToolbar()
	a.status = NewStatusPanel()
	a.menuHandler = NewMenuHandler(a.window, a.loader, a.config.NudgeStep, a.component("gui"))
}

func (a *Application) setupLayout() {
	top := container.NewVBox(
		a.filterPanel.GetButtons(),
		a.toolbar.GetContainer(),
	)

	bottom := container.NewVBox(
		a.filterPanel.GetCompositionLabel(),
		a.filterPanel.GetParameters(),
		a.status.GetContainer(),
	)

	content := container.NewBorder(top, bottom, nil, nil, container.NewPadded(a.display.GetContainer()))

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) setupCallbacks() {
	a.toolbar.SetCallbacks(
		a.toggleCamera,
		a.menuHandler.OpenStill,
		a.menuHandler.OpenSticker,
		a.removeSticker,
	)

	a.menuHandler.SetCallbacks(a.loadStill, a.addSticker, a.toggleCamera)

	a.window.Canvas().SetOnTypedKey(func(event *fyne.KeyEvent) {
		dx, dy, ok := NudgeFor(event.Name, a.config.NudgeStep)
		if !ok {
			return
		}
		a.stickers.NudgeLast(dx, dy)
	})
}

func (a *Application) toggleCamera() {
	if a.loop.State() == core.StateLive {
		a.loop.Stop()
		a.toolbar.SetCameraRunning(false)
		a.status.SetMessage("Camera stopped")
		return
	}

	if err := a.loop.ResumeLive(); err != nil {
		a.toolbar.SetCameraRunning(false)
		a.showError("Camera Unavailable", err)
		return
	}
	a.toolbar.SetCameraRunning(true)
	a.status.SetMessage("Camera running")
}

func (a *Application) loadStill(path string) {
	mat, err := a.loader.LoadStill(path)
	if err != nil {
		a.showError("Failed to Load Image", err)
		return
	}
	defer mat.Close()

	if err := a.loop.LoadStill(mat); err != nil {
		a.showError("Invalid Image", err)
		return
	}

	a.toolbar.SetCameraRunning(false)
	a.status.SetMessage(fmt.Sprintf("Showing %s", filepath.Base(path)))
}

func (a *Application) addSticker(path string) {
	mat, err := a.loader.LoadSticker(path, a.config.StickerScale)
	if err != nil {
		a.showError("Failed to Load Sticker", err)
		return
	}

	// centered on the configured frame size
	x := (a.config.FrameWidth - mat.Cols()) / 2
	y := (a.config.FrameHeight - mat.Rows()) / 2

	if _, err := a.stickers.Add(mat, x, y); err != nil {
		mat.Close()
		a.showError("Failed to Add Sticker", err)
		return
	}

	a.toolbar.SetRemoveStickerVisible(true)
	a.status.SetMessage(fmt.Sprintf("Sticker added: %s", filepath.Base(path)))
}

// removeSticker drops the oldest sticker; WASD keeps moving the newest one
func (a *Application) removeSticker() {
	a.stickers.RemoveFirst()
	if a.stickers.Len() == 0 {
		a.toolbar.SetRemoveStickerVisible(false)
	}
}

func (a *Application) runStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, stats := a.loop.State(), a.loop.Stats()
			fyne.Do(func() {
				a.status.UpdateStats(state, stats)
			})
		}
	}
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	ctx, cancel := context.WithCancel(context.Background())
	a.stopStats = cancel
	go a.runStats(ctx)

	if err := a.loop.Start(); err != nil {
		a.toolbar.SetCameraRunning(false)
		a.showError("Camera Unavailable", err)
	}

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")

	if a.stopStats != nil {
		a.stopStats()
	}

	select {
	case <-a.loop.Stop():
	case <-time.After(stopTimeout):
		a.logger.Warn("Frame loop did not stop in time")
	}
	a.stickers.Clear()
}

func (a *Application) showError(title string, err error) {
	entry := a.logger.WithError(err)
	if errors.Is(err, video.ErrDeviceUnavailable) || errors.Is(err, io.ErrStillImageDecode) {
		entry.Warn(title)
	} else {
		entry.Error(title)
	}
	dialog.ShowError(err, a.window)
	a.status.SetMessage(fmt.Sprintf("Error: %s", err.Error()))
}

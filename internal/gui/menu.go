// Menu and file dialogs for still images and stickers
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camfx/internal/io"
)

// MenuHandler opens file dialogs and reports the chosen paths
type MenuHandler struct {
	window fyne.Window
	loader *io.ImageLoader
	logger *logrus.Entry

	nudgeStep int

	onStillSelected   func(string)
	onStickerSelected func(string)
	onCameraToggle    func()
}

func NewMenuHandler(window fyne.Window, loader *io.ImageLoader, nudgeStep int, logger *logrus.Entry) *MenuHandler {
	return &MenuHandler{
		window:    window,
		loader:    loader,
		nudgeStep: nudgeStep,
		logger:    logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Select Image...", mh.OpenStill),
		fyne.NewMenuItem("Add Sticker...", mh.OpenSticker),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	cameraMenu := fyne.NewMenu("Camera",
		fyne.NewMenuItem("Start / Stop", func() {
			if mh.onCameraToggle != nil {
				mh.onCameraToggle()
			}
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Controls", mh.showControls),
		fyne.NewMenuItem("About", mh.showAbout),
	)

	return fyne.NewMainMenu(fileMenu, cameraMenu, helpMenu)
}

// OpenStill asks for an image to process in place of the camera
func (mh *MenuHandler) OpenStill() {
	mh.openImage("still image", mh.onStillSelected)
}

// OpenSticker asks for an image to overlay on every frame
func (mh *MenuHandler) OpenSticker() {
	mh.openImage("sticker", mh.onStickerSelected)
}

func (mh *MenuHandler) openImage(purpose string, onSelected func(string)) {
	mh.logger.WithField("purpose", purpose).Info("Opening file dialog")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			mh.showError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		filepath := reader.URI().Path()
		mh.logger.WithFields(logrus.Fields{
			"purpose":  purpose,
			"filepath": filepath,
		}).Info("File selected")

		if onSelected != nil {
			onSelected(filepath)
		}
	}, mh.window)

	fileDialog.SetFilter(storage.NewExtensionFileFilter(mh.loader.GetSupportedFormats()))
	fileDialog.Show()
}

func (mh *MenuHandler) showControls() {
	content := container.NewVBox(
		widget.NewLabel("Click a filter to add it to the end of the composition,"),
		widget.NewLabel("click it again to remove it."),
		widget.NewSeparator(),
		widget.NewLabel(fmt.Sprintf("W / A / S / D move the newest sticker by %d px.", mh.nudgeStep)),
		widget.NewLabel("Remove Sticker removes the oldest sticker."),
	)
	dialog.NewCustom("Controls", "Close", content, mh.window).Show()
}

func (mh *MenuHandler) showAbout() {
	content := container.NewVBox(
		widget.NewLabel("camfx"),
		widget.NewSeparator(),
		widget.NewLabel("Live filter composition for webcam and still images"),
		widget.NewLabel("Built with Go, Fyne v2.6 and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 200))
	aboutDialog.Show()
}

func (mh *MenuHandler) showError(title string, err error) {
	mh.logger.WithError(err).Error(title)
	dialog.ShowError(err, mh.window)
}

func (mh *MenuHandler) SetCallbacks(onStillSelected, onStickerSelected func(string), onCameraToggle func()) {
	mh.onStillSelected = onStillSelected
	mh.onStickerSelected = onStickerSelected
	mh.onCameraToggle = onCameraToggle
}

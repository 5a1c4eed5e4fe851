// Camera, still image and sticker controls
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	StopCameraText  = "Stop Camera"
	StartCameraText = "Start Camera"
)

type Toolbar struct {
	container *fyne.Container

	cameraBtn        *widget.Button
	selectImageBtn   *widget.Button
	addStickerBtn    *widget.Button
	removeStickerBtn *widget.Button

	// Callbacks
	onCameraToggle  func()
	onSelectImage   func()
	onAddSticker    func()
	onRemoveSticker func()
}

func NewToolbar() *Toolbar {
	toolbar := &Toolbar{}
	toolbar.initializeUI()
	return toolbar
}

func (tb *Toolbar) initializeUI() {
	tb.cameraBtn = widget.NewButtonWithIcon(StopCameraText, theme.MediaStopIcon(), func() {
		if tb.onCameraToggle != nil {
			tb.onCameraToggle()
		}
	})
	tb.cameraBtn.Importance = widget.HighImportance

	tb.selectImageBtn = widget.NewButtonWithIcon("Select Image", theme.FolderOpenIcon(), func() {
		if tb.onSelectImage != nil {
			tb.onSelectImage()
		}
	})

	tb.addStickerBtn = widget.NewButtonWithIcon("Add Sticker", theme.ContentAddIcon(), func() {
		if tb.onAddSticker != nil {
			tb.onAddSticker()
		}
	})

	tb.removeStickerBtn = widget.NewButtonWithIcon("Remove Sticker", theme.ContentRemoveIcon(), func() {
		if tb.onRemoveSticker != nil {
			tb.onRemoveSticker()
		}
	})
	tb.removeStickerBtn.Importance = widget.DangerImportance
	tb.removeStickerBtn.Hide()

	tb.container = container.NewHBox(
		tb.cameraBtn,
		tb.selectImageBtn,
		widget.NewSeparator(),
		tb.addStickerBtn,
		tb.removeStickerBtn,
	)
}

func (tb *Toolbar) SetCallbacks(onCameraToggle, onSelectImage, onAddSticker, onRemoveSticker func()) {
	tb.onCameraToggle = onCameraToggle
	tb.onSelectImage = onSelectImage
	tb.onAddSticker = onAddSticker
	tb.onRemoveSticker = onRemoveSticker
}

// SetCameraRunning switches the camera button between its stop and start forms
func (tb *Toolbar) SetCameraRunning(running bool) {
	if running {
		tb.cameraBtn.SetText(StopCameraText)
		tb.cameraBtn.SetIcon(theme.MediaStopIcon())
	} else {
		tb.cameraBtn.SetText(StartCameraText)
		tb.cameraBtn.SetIcon(theme.MediaPlayIcon())
	}
}

func (tb *Toolbar) CameraText() string {
	return tb.cameraBtn.Text
}

func (tb *Toolbar) SetRemoveStickerVisible(visible bool) {
	if visible {
		tb.removeStickerBtn.Show()
	} else {
		tb.removeStickerBtn.Hide()
	}
}

func (tb *Toolbar) RemoveStickerVisible() bool {
	return tb.removeStickerBtn.Visible()
}

func (tb *Toolbar) GetContainer() fyne.CanvasObject {
	return tb.container
}

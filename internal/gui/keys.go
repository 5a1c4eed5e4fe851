package gui

import "fyne.io/fyne/v2"

// NudgeFor maps W/A/S/D to a sticker offset of step pixels
func NudgeFor(key fyne.KeyName, step int) (dx, dy int, ok bool) {
	switch key {
	case fyne.KeyW:
		return 0, -step, true
	case fyne.KeyA:
		return -step, 0, true
	case fyne.KeyS:
		return 0, step, true
	case fyne.KeyD:
		return step, 0, true
	default:
		return 0, 0, false
	}
}

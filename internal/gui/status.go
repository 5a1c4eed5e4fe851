// Status line with frame loop statistics
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"camfx/internal/core"
	"camfx/internal/metrics"
)

type StatusPanel struct {
	container    *fyne.Container
	messageLabel *widget.Label
	statsLabel   *widget.Label
}

func NewStatusPanel() *StatusPanel {
	panel := &StatusPanel{
		messageLabel: widget.NewLabel("Ready"),
		statsLabel:   widget.NewLabel(""),
	}
	panel.container = container.NewBorder(nil, nil, panel.messageLabel, panel.statsLabel)
	return panel
}

func (sp *StatusPanel) SetMessage(message string) {
	sp.messageLabel.SetText(message)
}

// UpdateStats shows the loop state and counters
func (sp *StatusPanel) UpdateStats(state core.State, stats metrics.Snapshot) {
	sp.statsLabel.SetText(FormatStats(state, stats))
}

func FormatStats(state core.State, stats metrics.Snapshot) string {
	if state == core.StateStopped {
		return "stopped"
	}
	return fmt.Sprintf("%s: %s", state, stats)
}

func (sp *StatusPanel) GetContainer() fyne.CanvasObject {
	return sp.container
}

package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays application status and information
type StatusBar struct {
	container    *fyne.Container
	statusLabel  *widget.Label
	accountLabel *widget.Label
	modsLabel    *widget.Label
}

// NewStatusBar creates a new status bar component
func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Ready")
	sb.statusLabel.Truncation = fyne.TextTruncateEllipsis
	sb.accountLabel = widget.NewLabel("Offline")
	sb.modsLabel = widget.NewLabel("Mods: --")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewBorder(
		nil, nil, nil,
		container.NewHBox(
			widget.NewSeparator(),
			sb.accountLabel,
			widget.NewSeparator(),
			sb.modsLabel,
		),
		container.NewHBox(sb.statusLabel, layout.NewSpacer()),
	)
}

// SetStatus updates the main status message
func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

// GetStatus returns the current status message
func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

func (sb *StatusBar) SetAccount(text string) {
	sb.accountLabel.SetText(text)
}

func (sb *StatusBar) GetAccount() string {
	return sb.accountLabel.Text
}

func (sb *StatusBar) SetModCount(n int) {
	sb.modsLabel.SetText(fmt.Sprintf("Mods: %d", n))
}

// Reset resets the status bar to initial state
func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText("Ready")
	sb.accountLabel.SetText("Offline")
	sb.modsLabel.SetText("Mods: --")
}

// GetContainer returns the status bar container
func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

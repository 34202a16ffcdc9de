// Package ui is the document rendered into both windows. The primary mode is
// the operator console; the secondary mode is the audience view that shows
// whatever the primary last pushed.
package ui

import (
	"encoding/json"
	"net/url"

	"dualview/internal/ipc"
	"dualview/internal/logger"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type Mode string

const (
	ModePrimary   Mode = "primary"
	ModeSecondary Mode = "secondary"
)

// ModeFromQuery reads the mode parameter the coordinator passes when it loads
// the document.
func ModeFromQuery(q url.Values) Mode {
	if Mode(q.Get("mode")) == ModeSecondary {
		return ModeSecondary
	}
	return ModePrimary
}

// State is what the primary pushes to the secondary.
type State struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Document struct {
	mode   Mode
	emit   func(ipc.Message)
	logger logger.Logger
	state  State

	keys map[fyne.KeyName]ipc.Message

	titleEntry *hotkeyEntry
	textEntry  *hotkeyEntry
	zoomOut    *widget.Button
	zoomReset  *widget.Button
	zoomIn     *widget.Button
	fullscreen *widget.Button

	titleLabel *widget.Label
	textLabel  *widget.Label

	content fyne.CanvasObject
}

func NewDocument(mode Mode, emit func(ipc.Message), log logger.Logger) *Document {
	if emit == nil {
		emit = func(ipc.Message) {}
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}

	d := &Document{mode: mode, emit: emit, logger: log}
	if mode == ModeSecondary {
		d.buildSecondary()
	} else {
		d.buildPrimary()
	}
	return d
}

func (d *Document) Mode() Mode { return d.mode }
func (d *Document) Content() fyne.CanvasObject { return d.content }
func (d *Document) State() State { return d.state }

func (d *Document) buildPrimary() {
	d.titleEntry = newHotkeyEntry(false, d.hotkey)
	d.titleEntry.SetPlaceHolder("Title")
	d.titleEntry.OnChanged = func(string) { d.push() }

	d.textEntry = newHotkeyEntry(true, d.hotkey)
	d.textEntry.SetPlaceHolder("Text shown on the second display")
	d.textEntry.OnChanged = func(string) { d.push() }

	d.zoomOut = widget.NewButtonWithIcon("", theme.ZoomOutIcon(), func() {
		d.emit(ipc.Message{Channel: ipc.ZoomOut})
	})
	d.zoomReset = widget.NewButtonWithIcon("", theme.ZoomFitIcon(), func() {
		d.emit(ipc.Message{Channel: ipc.ZoomReset})
	})
	d.zoomIn = widget.NewButtonWithIcon("", theme.ZoomInIcon(), func() {
		d.emit(ipc.Message{Channel: ipc.ZoomIn})
	})
	d.fullscreen = widget.NewButtonWithIcon("", theme.ViewFullScreenIcon(), func() {
		d.emit(ipc.Message{Channel: ipc.ToggleFullscreenMain})
	})

	toolbar := container.NewHBox(
		widget.NewLabel("Second display"),
		d.zoomOut, d.zoomReset, d.zoomIn,
		widget.NewSeparator(),
		d.fullscreen,
	)

	d.content = container.NewBorder(
		container.NewVBox(d.titleEntry, toolbar),
		nil, nil, nil,
		d.textEntry,
	)
}

func (d *Document) buildSecondary() {
	d.titleLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	d.titleLabel.SizeName = theme.SizeNameHeadingText

	d.textLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})
	d.textLabel.Wrapping = fyne.TextWrapWord
	d.textLabel.SizeName = theme.SizeNameSubHeadingText

	d.content = container.NewBorder(d.titleLabel, nil, nil, nil, container.NewCenter(d.textLabel))
}

// BindKey makes key emit msg while one of the document's entries has focus.
func (d *Document) BindKey(key fyne.KeyName, msg ipc.Message) {
	if d.keys == nil {
		d.keys = make(map[fyne.KeyName]ipc.Message)
	}
	d.keys[key] = msg
}

func (d *Document) hotkey(ev *fyne.KeyEvent) bool {
	msg, ok := d.keys[ev.Name]
	if !ok {
		return false
	}
	d.emit(msg)
	return true
}

// Receive handles a message the coordinator sends to this document.
func (d *Document) Receive(msg ipc.Message) {
	switch {
	case msg.Channel == ipc.SecondaryReady && d.mode == ModePrimary:
		d.push()
	case msg.Channel == ipc.UpdateFromMain && d.mode == ModeSecondary:
		d.render(msg.Payload)
	default:
		d.logger.Debug("Document", "message ignored", map[string]interface{}{
			"channel": string(msg.Channel),
			"mode":    string(d.mode),
		})
	}
}

// push sends the console's current state to the secondary.
func (d *Document) push() {
	d.state = State{Title: d.titleEntry.Text, Text: d.textEntry.Text}
	payload, err := json.Marshal(d.state)
	if err != nil {
		d.logger.Error("Document", err, nil)
		return
	}
	d.emit(ipc.Message{Channel: ipc.UpdateDisplay, Payload: payload})
}

// render shows a pushed state. A payload that is not a State is shown as text.
func (d *Document) render(payload ipc.Payload) {
	var s State
	if err := json.Unmarshal(payload, &s); err != nil {
		s = State{Text: string(payload)}
	}
	d.state = s
	d.titleLabel.SetText(s.Title)
	d.textLabel.SetText(s.Text)
}

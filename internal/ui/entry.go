package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// hotkeyEntry is an Entry that offers every typed key to the document's
// bindings before editing with it. A focused Entry otherwise consumes keys
// the window never sees.
type hotkeyEntry struct {
	widget.Entry
	hotkey func(*fyne.KeyEvent) bool
}

func newHotkeyEntry(multiLine bool, hotkey func(*fyne.KeyEvent) bool) *hotkeyEntry {
	e := &hotkeyEntry{hotkey: hotkey}
	e.MultiLine = multiLine
	if multiLine {
		e.Wrapping = fyne.TextWrapWord
	}
	e.ExtendBaseWidget(e)
	return e
}

func (e *hotkeyEntry) TypedKey(ev *fyne.KeyEvent) {
	if e.hotkey != nil && e.hotkey(ev) {
		return
	}
	e.Entry.TypedKey(ev)
}

package gui

import (
	"dualview/internal/ipc"
	"dualview/internal/ui"
	"dualview/internal/windows"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// Window adapts a fyne.Window hosting the shared document to windows.Window.
// Every method runs on the Fyne UI thread.
type Window struct {
	host     *Host
	win      fyne.Window
	doc      *ui.Document
	override *container.ThemeOverride
	base     fyne.Theme
	role     windows.Role
	emit     func(ipc.Message)

	zoom      float64
	loaded    bool
	onLoaded  []func()
	keys      map[fyne.KeyName]ipc.Message
	destroyed bool
}

func (w *Window) Send(msg ipc.Message) {
	if w.destroyed {
		return
	}
	w.doc.Receive(msg)
}

func (w *Window) FullScreen() bool {
	return w.win.FullScreen()
}

func (w *Window) SetFullScreen(fullscreen bool) {
	w.win.SetFullScreen(fullscreen)
}

func (w *Window) ZoomFactor() float64 {
	return w.zoom
}

func (w *Window) SetZoomFactor(factor float64) {
	w.zoom = factor
	w.override.Theme = newZoomTheme(w.base, factor)
	w.override.Refresh()
}

func (w *Window) Destroyed() bool {
	return w.destroyed
}

func (w *Window) OnLoaded(fn func()) {
	if w.loaded {
		fn()
		return
	}
	w.onLoaded = append(w.onLoaded, fn)
}

func (w *Window) BindKey(key string, msg ipc.Message) {
	if w.keys == nil {
		w.keys = make(map[fyne.KeyName]ipc.Message)
		w.win.Canvas().SetOnTypedKey(w.typedKey)
	}
	w.keys[fyne.KeyName(key)] = msg
	w.doc.BindKey(fyne.KeyName(key), msg)
}

func (w *Window) Close() {
	if w.destroyed {
		return
	}
	w.win.Close()
}

// Document exposes the loaded document.
func (w *Window) Document() *ui.Document {
	return w.doc
}

func (w *Window) typedKey(ev *fyne.KeyEvent) {
	if msg, ok := w.keys[ev.Name]; ok {
		w.emit(msg)
	}
}

func (w *Window) markLoaded() {
	if w.loaded || w.destroyed {
		return
	}
	w.loaded = true

	callbacks := w.onLoaded
	w.onLoaded = nil
	for _, fn := range callbacks {
		fn()
	}
}

func (w *Window) markDestroyed() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.host.windowClosed(w)
}

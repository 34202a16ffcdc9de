// Package gui creates the application windows with Fyne.
package gui

import (
	"dualview/internal/display"
	"dualview/internal/ipc"
	"dualview/internal/logger"
	"dualview/internal/ui"
	"dualview/internal/windows"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
)

type HostOptions struct {
	Placer    display.Placer
	Scheduler ipc.Scheduler
	Icon      fyne.Resource

	// KeepResident hides the last open window instead of closing it, so the
	// process survives and can be reactivated.
	KeepResident bool

	// OnAllClosed runs when the last open window is gone.
	OnAllClosed func()
}

// Host implements windows.Factory on top of a Fyne app.
type Host struct {
	app    fyne.App
	opts   HostOptions
	logger logger.Logger

	open  []*Window
	stale []fyne.Window
}

func NewHost(app fyne.App, opts HostOptions, log logger.Logger) *Host {
	if opts.Placer == nil {
		opts.Placer = display.NoopPlacer()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = ipc.SchedulerFunc(fyne.Do)
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Host{app: app, opts: opts, logger: log}
}

// NewWindow creates and shows a window with the shared document loaded in the
// mode requested by opts.Query.
func (h *Host) NewWindow(opts windows.Options) windows.Window {
	fw := h.createNative(opts)

	if opts.HideMenu {
		fw.SetMainMenu(nil)
	}
	if opts.Role == windows.RolePrimary && h.opts.Icon != nil {
		fw.SetIcon(h.opts.Icon)
	}

	emit := opts.Emit
	if emit == nil {
		emit = func(ipc.Message) {}
	}

	doc := ui.NewDocument(ui.ModeFromQuery(opts.Query), emit, h.logger)
	base := h.app.Settings().Theme()
	override := container.NewThemeOverride(doc.Content(), newZoomTheme(base, windows.DefaultZoom))

	w := &Window{
		host:     h,
		win:      fw,
		doc:      doc,
		override: override,
		base:     base,
		role:     opts.Role,
		emit:     emit,
		zoom:     windows.DefaultZoom,
	}

	fw.SetContent(override)
	fw.Resize(fyne.NewSize(float32(opts.Bounds.Width), float32(opts.Bounds.Height)))
	fw.SetCloseIntercept(func() { h.closeRequested(w) })
	fw.SetOnClosed(w.markDestroyed)

	h.open = append(h.open, w)
	fw.Show()
	h.reapStale()

	h.place(w, opts)
	h.opts.Scheduler.Do(w.markLoaded)

	h.logger.Debug("Host", "window created", map[string]interface{}{
		"title":      opts.Title,
		"role":       opts.Role.String(),
		"bounds":     opts.Bounds.String(),
		"fullscreen": opts.FullScreen,
		"frameless":  opts.Frameless,
	})
	return w
}

func (h *Host) createNative(opts windows.Options) fyne.Window {
	if opts.Frameless {
		if drv, ok := h.app.Driver().(desktop.Driver); ok {
			fw := drv.CreateSplashWindow()
			fw.SetTitle(opts.Title)
			return fw
		}
	}
	return h.app.NewWindow(opts.Title)
}

// place moves the window onto its display once the window manager has mapped
// it. Fullscreen is applied afterwards so it lands on that display.
func (h *Host) place(w *Window, opts windows.Options) {
	if h.opts.Placer == display.NoopPlacer() {
		if opts.FullScreen {
			w.win.SetFullScreen(true)
		}
		return
	}

	title := opts.Title
	go func() {
		if err := h.opts.Placer.Place(title, opts.Bounds); err != nil {
			h.logger.Warning("Host", "window placement failed", map[string]interface{}{
				"title": title,
				"error": err.Error(),
			})
		}
		if opts.FullScreen {
			h.opts.Scheduler.Do(func() {
				if !w.destroyed {
					w.win.SetFullScreen(true)
				}
			})
		}
	}()
}

func (h *Host) closeRequested(w *Window) {
	if h.opts.KeepResident && h.openCount() == 1 {
		w.win.Hide()
		h.stale = append(h.stale, w.win)
		w.markDestroyed()
		return
	}
	w.win.Close()
}

func (h *Host) windowClosed(w *Window) {
	for i, o := range h.open {
		if o == w {
			h.open = append(h.open[:i], h.open[i+1:]...)
			break
		}
	}
	if len(h.open) == 0 && h.opts.OnAllClosed != nil {
		h.opts.OnAllClosed()
	}
}

// reapStale closes windows hidden by KeepResident once a new window is up.
func (h *Host) reapStale() {
	stale := h.stale
	h.stale = nil
	for _, fw := range stale {
		fw.Close()
	}
}

func (h *Host) openCount() int {
	return len(h.open)
}

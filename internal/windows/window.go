// Package windows owns the primary and optional secondary window and routes
// the inter-window channels between them.
package windows

import (
	"net/url"

	"dualview/internal/display"
	"dualview/internal/ipc"
)

type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
)

func (r Role) String() string {
	if r == RoleSecondary {
		return "secondary"
	}
	return "primary"
}

// ModeQueryKey is the document query parameter that tells the shared UI
// document which role it renders.
const ModeQueryKey = "mode"

// KeyF11 names the fullscreen toggle key handed to Window.BindKey.
const KeyF11 = "F11"

// Options describes a window to create.
type Options struct {
	Title      string
	Role       Role
	Bounds     display.Rect
	FullScreen bool
	Frameless  bool
	HideMenu   bool
	Query      url.Values

	// Emit delivers messages raised by the window's document or key bindings.
	Emit func(ipc.Message)
}

// Window is a live host window with the shared UI document loaded into it.
type Window interface {
	// Send delivers msg to the window's document.
	Send(msg ipc.Message)

	FullScreen() bool
	SetFullScreen(fullscreen bool)

	ZoomFactor() float64
	SetZoomFactor(factor float64)

	// Destroyed reports whether the window was closed by the user or the host.
	Destroyed() bool

	// OnLoaded registers fn to run once the document has finished loading.
	// Callbacks registered after load run immediately.
	OnLoaded(fn func())

	// BindKey makes a press of key emit msg through Options.Emit.
	BindKey(key string, msg ipc.Message)

	Close()
}

type Factory interface {
	NewWindow(opts Options) Window
}

func live(w Window) bool {
	return w != nil && !w.Destroyed()
}

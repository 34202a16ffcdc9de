// Package ipc carries the named, fire-and-forget messages exchanged between
// the UI documents and the window coordinator.
package ipc

type Channel string

const (
	// UI to coordinator
	UpdateDisplay        Channel = "update-display"
	ToggleFullscreenMain Channel = "toggle-fullscreen-main"
	ZoomIn               Channel = "zoom-in"
	ZoomOut              Channel = "zoom-out"
	ZoomReset            Channel = "zoom-reset"

	// coordinator to UI
	SecondaryReady Channel = "secondary-ready"
	UpdateFromMain Channel = "update-from-main"
)

// Payload is an opaque blob. The coordinator never looks inside it.
type Payload []byte

type Message struct {
	Channel Channel
	Payload Payload
}

func (m Message) String() string {
	return string(m.Channel)
}

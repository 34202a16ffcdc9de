// Package display enumerates the attached monitors and places native windows
// on them.
package display

import (
	"errors"
	"fmt"
)

var ErrNoDisplays = errors.New("no displays found")

// Rect is a display or window geometry in virtual screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Display describes a monitor as reported by the host.
type Display struct {
	ID      int
	Name    string
	Bounds  Rect
	Primary bool
}

// Provider reports the attached displays and which one the host treats as main.
type Provider interface {
	Displays() ([]Display, error)
	Primary() (Display, error)
}

// Placer moves a mapped native window, identified by its title, onto bounds.
type Placer interface {
	Place(title string, bounds Rect) error
}

// FindSecondary returns the first display whose ID differs from primary.
func FindSecondary(displays []Display, primary Display) (Display, bool) {
	for _, d := range displays {
		if d.ID != primary.ID {
			return d, true
		}
	}
	return Display{}, false
}

// primaryOf picks the display flagged primary, falling back to the one at the
// virtual origin and then to the first entry.
func primaryOf(displays []Display) (Display, error) {
	if len(displays) == 0 {
		return Display{}, ErrNoDisplays
	}
	for _, d := range displays {
		if d.Primary {
			return d, nil
		}
	}
	for _, d := range displays {
		if d.Bounds.X == 0 && d.Bounds.Y == 0 {
			return d, nil
		}
	}
	return displays[0], nil
}

// Static serves a fixed display list. It backs hosts without an enumeration
// API and the displays command's --simulate flag.
type Static struct {
	List []Display
}

func (s Static) Displays() ([]Display, error) {
	if len(s.List) == 0 {
		return nil, ErrNoDisplays
	}
	out := make([]Display, len(s.List))
	copy(out, s.List)
	return out, nil
}

func (s Static) Primary() (Display, error) {
	return primaryOf(s.List)
}

type noopPlacer struct{}

func (noopPlacer) Place(string, Rect) error { return nil }

// NoopPlacer leaves window placement to the window manager.
func NoopPlacer() Placer { return noopPlacer{} }

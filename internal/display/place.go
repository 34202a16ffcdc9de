package display

import (
	"errors"
	"fmt"
	"time"
)

const (
	placeAttempts = 40
	placeInterval = 50 * time.Millisecond
)

var errWindowNotMapped = errors.New("window not mapped")

// waitForWindow polls find until the window manager has mapped a window
// titled title.
func waitForWindow[T any](title string, attempts int, interval time.Duration, find func(string) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error = errWindowNotMapped
	)
	for attempt := 0; attempt < attempts; attempt++ {
		win, err := find(title)
		if err == nil {
			return win, nil
		}
		lastErr = err
		time.Sleep(interval)
	}
	return zero, fmt.Errorf("place %q: %w", title, lastErr)
}

// flipY converts a top-left origin rectangle into the bottom-left origin
// used by Cocoa, where mainHeight is the height of the menu bar display.
func flipY(r Rect, mainHeight int) int {
	return mainHeight - (r.Y + r.Height)
}

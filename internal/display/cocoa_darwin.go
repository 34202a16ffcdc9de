//go:build darwin

package display

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#include <stdlib.h>
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

typedef struct {
	unsigned int id;
	double x, y, w, h;
	int main;
} dvDisplay;

static int dvDisplays(dvDisplay *out, uint32_t max) {
	CGDirectDisplayID ids[max];
	uint32_t count = 0;
	if (CGGetActiveDisplayList(max, ids, &count) != kCGErrorSuccess) {
		return -1;
	}
	for (uint32_t i = 0; i < count; i++) {
		CGRect b = CGDisplayBounds(ids[i]);
		out[i].id = ids[i];
		out[i].x = b.origin.x;
		out[i].y = b.origin.y;
		out[i].w = b.size.width;
		out[i].h = b.size.height;
		out[i].main = CGDisplayIsMain(ids[i]) ? 1 : 0;
	}
	return (int)count;
}

// dvPlaceWindow moves the first NSWindow titled title. Coordinates are Cocoa
// screen coordinates (bottom-left origin).
static int dvPlaceWindow(const char *title, double x, double y, double w, double h) {
	__block int found = 0;
	@autoreleasepool {
		NSString *want = [NSString stringWithUTF8String:title];
		void (^place)(void) = ^{
			for (NSWindow *win in [NSApp windows]) {
				if ([[win title] isEqualToString:want]) {
					[win setFrame:NSMakeRect(x, y, w, h) display:YES];
					found = 1;
					return;
				}
			}
		};
		if ([NSThread isMainThread]) {
			place();
		} else {
			dispatch_sync(dispatch_get_main_queue(), place);
		}
	}
	return found;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const maxDisplays = 16

// Cocoa enumerates displays through CoreGraphics and places windows through
// AppKit.
type Cocoa struct{}

func NewSystem() (Provider, Placer, io.Closer, error) {
	c := Cocoa{}
	return c, c, io.NopCloser(nil), nil
}

// Displays reports bounds in global display coordinates, origin at the top
// left of the menu bar display.
func (Cocoa) Displays() ([]Display, error) {
	var buf [maxDisplays]C.dvDisplay
	n := int(C.dvDisplays(&buf[0], maxDisplays))
	if n < 0 {
		return nil, errors.New("CGGetActiveDisplayList failed")
	}

	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		d := buf[i]
		displays = append(displays, Display{
			ID:      int(d.id),
			Name:    fmt.Sprintf("Display%d", int(d.id)),
			Bounds:  Rect{X: int(d.x), Y: int(d.y), Width: int(d.w), Height: int(d.h)},
			Primary: d.main != 0,
		})
	}

	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}
	return displays, nil
}

func (c Cocoa) Primary() (Display, error) {
	displays, err := c.Displays()
	if err != nil {
		return Display{}, err
	}
	return primaryOf(displays)
}

// Place waits for AppKit to list a window titled title, then sets its frame
// to bounds.
func (c Cocoa) Place(title string, bounds Rect) error {
	main, err := c.Primary()
	if err != nil {
		return err
	}
	y := flipY(bounds, main.Bounds.Height)

	ctitle := C.CString(title)
	defer C.free(unsafe.Pointer(ctitle))

	_, err = waitForWindow(title, placeAttempts, placeInterval, func(string) (struct{}, error) {
		ok := C.dvPlaceWindow(ctitle, C.double(bounds.X), C.double(y), C.double(bounds.Width), C.double(bounds.Height))
		if ok == 0 {
			return struct{}{}, errWindowNotMapped
		}
		return struct{}{}, nil
	})
	return err
}

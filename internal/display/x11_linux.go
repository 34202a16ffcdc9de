//go:build linux

package display

import (
	"fmt"
	"io"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// X11 enumerates monitors through XRandR and places windows through EWMH.
type X11 struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

func NewX11() (*X11, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11 connect failed: %w", err)
	}
	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	return &X11{xu: xu, root: xu.RootWin()}, nil
}

// NewSystem returns the provider and placer for the running X session.
func NewSystem() (Provider, Placer, io.Closer, error) {
	x, err := NewX11()
	if err != nil {
		return nil, nil, nil, err
	}
	return x, x, x, nil
}

func (x *X11) Close() error {
	x.xu.Conn().Close()
	return nil
}

// Displays lists every active CRTC. The CRTC driving the RandR primary output
// is flagged Primary.
func (x *X11) Displays() ([]Display, error) {
	conn := x.xu.Conn()

	resources, err := randr.GetScreenResources(conn, x.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if reply, err := randr.GetOutputPrimary(conn, x.root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var displays []Display
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		primary := false
		for _, o := range info.Outputs {
			if primaryOutput != 0 && o == primaryOutput {
				primary = true
			}
		}

		displays = append(displays, Display{
			ID:      int(crtc),
			Name:    name,
			Bounds:  Rect{X: int(info.X), Y: int(info.Y), Width: int(info.Width), Height: int(info.Height)},
			Primary: primary,
		})
	}

	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}
	return displays, nil
}

func (x *X11) Primary() (Display, error) {
	displays, err := x.Displays()
	if err != nil {
		return Display{}, err
	}
	return primaryOf(displays)
}

// Place waits for the window manager to map a client titled title, then
// moves and resizes it onto bounds.
func (x *X11) Place(title string, bounds Rect) error {
	win, err := waitForWindow(title, placeAttempts, placeInterval, x.findClient)
	if err != nil {
		return err
	}
	if err := ewmh.MoveresizeWindow(x.xu, win, bounds.X, bounds.Y, bounds.Width, bounds.Height); err != nil {
		return fmt.Errorf("moveresize %q: %w", title, err)
	}
	return nil
}

func (x *X11) findClient(title string) (xproto.Window, error) {
	clients, err := ewmh.ClientListGet(x.xu)
	if err != nil {
		return 0, err
	}

	for _, win := range clients {
		name, err := ewmh.WmNameGet(x.xu, win)
		if err != nil || name == "" {
			name, _ = icccm.WmNameGet(x.xu, win)
		}
		if name == title {
			return win, nil
		}
	}
	return 0, errWindowNotMapped
}

//go:build windows

package display

import (
	"fmt"
	"io"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
	procFindWindowW         = user32.NewProc("FindWindowW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
)

const (
	monitorInfoFPrimary = 0x1

	swpNoZOrder   = 0x0004
	swpNoActivate = 0x0010
	swpShowWindow = 0x0040
	cchDeviceName = 32
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

type monitorInfoEx struct {
	CbSize    uint32
	RcMonitor rect32
	RcWork    rect32
	DwFlags   uint32
	SzDevice  [cchDeviceName]uint16
}

// Win32 enumerates monitors with EnumDisplayMonitors.
type Win32 struct{}

func NewSystem() (Provider, Placer, io.Closer, error) {
	w := Win32{}
	return w, w, io.NopCloser(nil), nil
}

// enumCallback is created once; the runtime caps the number of callbacks a
// process may create. enumMu guards enumResult for the duration of one
// EnumDisplayMonitors call.
var (
	enumMu       sync.Mutex
	enumResult   []Display
	enumCallback = syscall.NewCallback(collectMonitor)
)

func collectMonitor(hmon, hdc uintptr, lprc *rect32, lparam uintptr) uintptr {
	var info monitorInfoEx
	info.CbSize = uint32(unsafe.Sizeof(info))
	ret, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return 1
	}
	r := info.RcMonitor
	enumResult = append(enumResult, Display{
		ID:      int(hmon),
		Name:    windows.UTF16ToString(info.SzDevice[:]),
		Bounds:  Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)},
		Primary: info.DwFlags&monitorInfoFPrimary != 0,
	})
	return 1
}

func (Win32) Displays() ([]Display, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumResult = nil
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	displays := enumResult
	enumResult = nil

	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}
	return displays, nil
}

func (w Win32) Primary() (Display, error) {
	displays, err := w.Displays()
	if err != nil {
		return Display{}, err
	}
	return primaryOf(displays)
}

// Place waits for a top-level window titled title, then moves and resizes it
// onto bounds.
func (Win32) Place(title string, bounds Rect) error {
	hwnd, err := waitForWindow(title, placeAttempts, placeInterval, findWindow)
	if err != nil {
		return err
	}
	ret, _, err := procSetWindowPos.Call(
		hwnd, 0,
		uintptr(bounds.X), uintptr(bounds.Y),
		uintptr(bounds.Width), uintptr(bounds.Height),
		swpNoZOrder|swpNoActivate|swpShowWindow,
	)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos failed: %w", err)
	}
	return nil
}

func findWindow(title string) (uintptr, error) {
	name, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(name)))
	if hwnd == 0 {
		return 0, errWindowNotMapped
	}
	return hwnd, nil
}

package windows

import (
	"bytes"
	"errors"
	"testing"

	"dualview/internal/display"
	"dualview/internal/ipc"
)

type fakeWindow struct {
	opts       Options
	fullscreen bool
	zoom       float64
	destroyed  bool
	loaded     bool
	onLoaded   []func()
	keys       map[string]ipc.Message
	received   []ipc.Message
}

func (w *fakeWindow) Send(msg ipc.Message) { w.received = append(w.received, msg) }
func (w *fakeWindow) FullScreen() bool { return w.fullscreen }
func (w *fakeWindow) SetFullScreen(v bool) { w.fullscreen = v }
func (w *fakeWindow) ZoomFactor() float64 { return w.zoom }
func (w *fakeWindow) SetZoomFactor(f float64) { w.zoom = f }
func (w *fakeWindow) Destroyed() bool { return w.destroyed }
func (w *fakeWindow) Close() { w.destroyed = true }

func (w *fakeWindow) OnLoaded(fn func()) {
	if w.loaded {
		fn()
		return
	}
	w.onLoaded = append(w.onLoaded, fn)
}

func (w *fakeWindow) BindKey(key string, msg ipc.Message) {
	if w.keys == nil {
		w.keys = make(map[string]ipc.Message)
	}
	w.keys[key] = msg
}

func (w *fakeWindow) finishLoad() {
	w.loaded = true
	for _, fn := range w.onLoaded {
		fn()
	}
	w.onLoaded = nil
}

func (w *fakeWindow) press(key string) {
	if msg, ok := w.keys[key]; ok {
		w.opts.Emit(msg)
	}
}

type fakeFactory struct {
	created []*fakeWindow
}

func (f *fakeFactory) NewWindow(opts Options) Window {
	w := &fakeWindow{opts: opts, fullscreen: opts.FullScreen, zoom: DefaultZoom}
	f.created = append(f.created, w)
	return w
}

func (f *fakeFactory) byRole(role Role) []*fakeWindow {
	var out []*fakeWindow
	for _, w := range f.created {
		if w.opts.Role == role {
			out = append(out, w)
		}
	}
	return out
}

var (
	mainDisplay = display.Display{ID: 10, Name: "eDP-1", Bounds: display.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, Primary: true}
	sideDisplay = display.Display{ID: 11, Name: "HDMI-1", Bounds: display.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}}
	farDisplay  = display.Display{ID: 12, Name: "DP-2", Bounds: display.Rect{X: 4480, Y: 0, Width: 1280, Height: 1024}}
)

func newTestCoordinator(displays ...display.Display) (*Coordinator, *fakeFactory) {
	factory := &fakeFactory{}
	bus := ipc.NewBus(ipc.Inline, nil)
	c := NewCoordinator(display.Static{List: displays}, factory, bus, DefaultConfig(), nil)
	return c, factory
}

func TestCreateWindowsSingleDisplay(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay)

	if err := c.CreateWindows(); err != nil {
		t.Fatalf("CreateWindows: %v", err)
	}

	if len(f.created) != 1 {
		t.Fatalf("created %d windows, want 1", len(f.created))
	}
	if c.HasSecondary() || c.Secondary() != nil {
		t.Error("no secondary window expected with one display")
	}

	p := f.created[0].opts
	if p.Role != RolePrimary {
		t.Errorf("role = %v", p.Role)
	}
	want := display.Rect{X: 0, Y: 0, Width: 1024, Height: 768}
	if p.Bounds != want {
		t.Errorf("primary bounds = %v, want %v", p.Bounds, want)
	}
	if !p.HideMenu || p.FullScreen || p.Frameless {
		t.Errorf("primary options = %+v", p)
	}
}

func TestCreateWindowsMultipleDisplays(t *testing.T) {
	for _, displays := range [][]display.Display{
		{mainDisplay, sideDisplay},
		{sideDisplay, mainDisplay, farDisplay},
	} {
		c, f := newTestCoordinator(displays...)
		if err := c.CreateWindows(); err != nil {
			t.Fatalf("CreateWindows: %v", err)
		}

		secondaries := f.byRole(RoleSecondary)
		if len(secondaries) != 1 {
			t.Fatalf("%d displays: created %d secondary windows, want 1", len(displays), len(secondaries))
		}

		s := secondaries[0].opts
		if s.Bounds != sideDisplay.Bounds {
			t.Errorf("secondary bounds = %v, want %v", s.Bounds, sideDisplay.Bounds)
		}
		if !s.FullScreen || !s.Frameless || !s.HideMenu {
			t.Errorf("secondary must be fullscreen, frameless and menu-less: %+v", s)
		}
		if s.Query.Get(ModeQueryKey) != "secondary" {
			t.Errorf("mode query = %q", s.Query.Get(ModeQueryKey))
		}
		if s.Title == f.byRole(RolePrimary)[0].opts.Title {
			t.Error("window titles must differ so placement can find them")
		}
	}
}

func TestPrimaryAnchoredToPrimaryDisplayOrigin(t *testing.T) {
	offset := display.Display{ID: 20, Bounds: display.Rect{X: -1280, Y: 200, Width: 1280, Height: 1024}, Primary: true}
	c, f := newTestCoordinator(sideDisplay, offset)

	if err := c.CreateWindows(); err != nil {
		t.Fatalf("CreateWindows: %v", err)
	}

	p := f.byRole(RolePrimary)[0].opts
	if p.Bounds.X != -1280 || p.Bounds.Y != 200 {
		t.Errorf("primary origin = %d,%d", p.Bounds.X, p.Bounds.Y)
	}
	s := f.byRole(RoleSecondary)[0].opts
	if s.Bounds != sideDisplay.Bounds {
		t.Errorf("secondary bounds = %v", s.Bounds)
	}
}

func TestCreateWindowsDisplayError(t *testing.T) {
	c, f := newTestCoordinator()

	err := c.CreateWindows()
	if !errors.Is(err, display.ErrNoDisplays) {
		t.Fatalf("err = %v, want ErrNoDisplays", err)
	}
	if len(f.created) != 0 {
		t.Error("no window may be created when enumeration fails")
	}
}

func TestCreateWindowsRefusesSecondSet(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}

	if err := c.CreateWindows(); !errors.Is(err, ErrWindowsOpen) {
		t.Fatalf("err = %v, want ErrWindowsOpen", err)
	}
	if len(f.created) != 2 {
		t.Errorf("created %d windows, want 2", len(f.created))
	}
}

func TestSecondaryReadySentOnceAfterLoad(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}

	primary := f.byRole(RolePrimary)[0]
	if len(primary.received) != 0 {
		t.Fatal("nothing may be sent before the document has loaded")
	}

	primary.finishLoad()

	if len(primary.received) != 1 || primary.received[0].Channel != ipc.SecondaryReady {
		t.Errorf("primary received %v, want one secondary-ready", primary.received)
	}
}

func TestNoSecondaryReadyWithoutSecondary(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}

	primary := f.created[0]
	primary.finishLoad()

	if len(primary.received) != 0 {
		t.Errorf("primary received %v", primary.received)
	}
}

func TestUpdateDisplayRelayedVerbatim(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}

	payload := ipc.Payload(`{"title":"Psalm 23","body":"\u0000binary\xff"}`)
	c.bus.Emit(ipc.Message{Channel: ipc.UpdateDisplay, Payload: payload})

	secondary := f.byRole(RoleSecondary)[0]
	if len(secondary.received) != 1 {
		t.Fatalf("secondary received %d messages", len(secondary.received))
	}
	got := secondary.received[0]
	if got.Channel != ipc.UpdateFromMain {
		t.Errorf("channel = %q", got.Channel)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Errorf("payload = %q, want %q", got.Payload, payload)
	}
}

func TestZoomSequence(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}
	secondary := f.byRole(RoleSecondary)[0]

	steps := []struct {
		ch   ipc.Channel
		want float64
	}{
		{ipc.ZoomIn, 1.1},
		{ipc.ZoomIn, 1.2},
		{ipc.ZoomReset, 1.0},
		{ipc.ZoomOut, 0.9},
		{ipc.ZoomOut, 0.8},
		{ipc.ZoomOut, 0.7},
		{ipc.ZoomOut, 0.6},
		{ipc.ZoomOut, 0.5},
		{ipc.ZoomOut, 0.5},
		{ipc.ZoomOut, 0.5},
		{ipc.ZoomIn, 0.6},
		{ipc.ZoomReset, 1.0},
	}

	for i, step := range steps {
		c.bus.Emit(ipc.Message{Channel: step.ch})
		if secondary.zoom != step.want {
			t.Fatalf("step %d (%s): zoom = %v, want %v", i, step.ch, secondary.zoom, step.want)
		}
	}
}

func TestZoomOutClampsFromOddValue(t *testing.T) {
	if got := zoomOut(0.55, 0.1, 0.5); got != 0.5 {
		t.Errorf("zoomOut(0.55) = %v, want 0.5", got)
	}
	if got := zoomIn(3.0, 0.1); got != 3.1 {
		t.Errorf("zoomIn(3.0) = %v, want 3.1", got)
	}
}

func TestMessagesWithoutSecondaryAreNoOps(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}
	primary := f.created[0]

	for _, ch := range []ipc.Channel{ipc.ZoomIn, ipc.ZoomOut, ipc.ZoomReset, ipc.UpdateDisplay} {
		c.bus.Emit(ipc.Message{Channel: ch, Payload: ipc.Payload("x")})
	}

	if primary.zoom != DefaultZoom {
		t.Errorf("primary zoom changed to %v", primary.zoom)
	}
	if len(primary.received) != 0 {
		t.Errorf("primary received %v", primary.received)
	}
}

func TestMessagesToDestroyedSecondaryAreNoOps(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}
	secondary := f.byRole(RoleSecondary)[0]
	secondary.destroyed = true

	c.bus.Emit(ipc.Message{Channel: ipc.ZoomIn})
	c.bus.Emit(ipc.Message{Channel: ipc.UpdateDisplay, Payload: ipc.Payload("x")})

	if secondary.zoom != DefaultZoom {
		t.Errorf("zoom = %v", secondary.zoom)
	}
	if len(secondary.received) != 0 {
		t.Errorf("received %v", secondary.received)
	}
	if c.HasSecondary() {
		t.Error("destroyed secondary reported live")
	}
}

func TestF11TogglesPrimaryFullscreen(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}
	primary := f.byRole(RolePrimary)[0]
	secondary := f.byRole(RoleSecondary)[0]

	primary.press(KeyF11)
	if primary.fullscreen {
		t.Fatal("F11 must not be bound before the document has loaded")
	}

	primary.finishLoad()

	for i, want := range []bool{true, false, true} {
		primary.press(KeyF11)
		if primary.fullscreen != want {
			t.Fatalf("press %d: fullscreen = %v, want %v", i+1, primary.fullscreen, want)
		}
	}
	if !secondary.fullscreen {
		t.Error("toggling the primary must not touch the secondary")
	}
}

func TestActivateRecreatesOnlyWhenAllClosed(t *testing.T) {
	c, f := newTestCoordinator(mainDisplay, sideDisplay)
	if err := c.CreateWindows(); err != nil {
		t.Fatal(err)
	}

	f.byRole(RolePrimary)[0].Close()
	if err := c.Activate(); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 2 {
		t.Fatalf("activate with a live secondary created windows: %d", len(f.created))
	}

	c.CloseAll()
	if !c.AllClosed() {
		t.Fatal("AllClosed after CloseAll")
	}
	if err := c.Activate(); err != nil {
		t.Fatal(err)
	}
	if len(f.created) != 4 {
		t.Fatalf("created %d windows, want 4", len(f.created))
	}

	// handlers are registered once, so one zoom-in moves the zoom one step
	c.bus.Emit(ipc.Message{Channel: ipc.ZoomIn})
	if z := f.byRole(RoleSecondary)[1].zoom; z != 1.1 {
		t.Errorf("zoom after recreate = %v, want 1.1", z)
	}
}

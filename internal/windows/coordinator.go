package windows

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"dualview/internal/display"
	"dualview/internal/ipc"
	"dualview/internal/logger"
)

var ErrWindowsOpen = errors.New("windows already open")

type Config struct {
	Title    string
	Width    int
	Height   int
	ZoomStep float64
	ZoomMin  float64
}

func DefaultConfig() Config {
	return Config{
		Title:    "dualview",
		Width:    1024,
		Height:   768,
		ZoomStep: 0.1,
		ZoomMin:  0.5,
	}
}

// Coordinator owns the window handles. All methods are expected to run on the
// UI thread.
type Coordinator struct {
	displays display.Provider
	factory  Factory
	bus      *ipc.Bus
	logger   logger.Logger
	config   Config

	primary   Window
	secondary Window

	register sync.Once
}

func NewCoordinator(displays display.Provider, factory Factory, bus *ipc.Bus, config Config, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Coordinator{
		displays: displays,
		factory:  factory,
		bus:      bus,
		logger:   log,
		config:   config,
	}
}

// CreateWindows opens the primary window on the primary display and, when a
// second display is attached, a frameless fullscreen window covering it.
func (c *Coordinator) CreateWindows() error {
	if live(c.primary) || live(c.secondary) {
		return ErrWindowsOpen
	}

	displays, err := c.displays.Displays()
	if err != nil {
		return fmt.Errorf("enumerate displays: %w", err)
	}
	primaryDisplay, err := c.displays.Primary()
	if err != nil {
		return fmt.Errorf("primary display: %w", err)
	}

	c.register.Do(c.registerHandlers)

	primary := c.factory.NewWindow(Options{
		Title:    c.config.Title,
		Role:     RolePrimary,
		Bounds:   display.Rect{X: primaryDisplay.Bounds.X, Y: primaryDisplay.Bounds.Y, Width: c.config.Width, Height: c.config.Height},
		HideMenu: true,
		Emit:     c.bus.Emit,
	})
	c.primary = primary
	c.secondary = nil

	fields := map[string]interface{}{
		"displays":        len(displays),
		"primary_display": primaryDisplay.Name,
		"primary_bounds":  primaryDisplay.Bounds.String(),
	}

	if len(displays) > 1 {
		if sd, ok := display.FindSecondary(displays, primaryDisplay); ok {
			c.secondary = c.factory.NewWindow(Options{
				Title:      c.config.Title + " - " + RoleSecondary.String(),
				Role:       RoleSecondary,
				Bounds:     sd.Bounds,
				FullScreen: true,
				Frameless:  true,
				HideMenu:   true,
				Query:      url.Values{ModeQueryKey: {RoleSecondary.String()}},
				Emit:       c.bus.Emit,
			})

			primary.OnLoaded(func() {
				primary.Send(ipc.Message{Channel: ipc.SecondaryReady})
			})

			fields["secondary_display"] = sd.Name
			fields["secondary_bounds"] = sd.Bounds.String()
		}
	}

	primary.OnLoaded(func() {
		primary.BindKey(KeyF11, ipc.Message{Channel: ipc.ToggleFullscreenMain})
	})

	c.logger.Info("Coordinator", "windows created", fields)
	return nil
}

// Activate re-creates the windows when none is left open.
func (c *Coordinator) Activate() error {
	if !c.AllClosed() {
		return nil
	}
	c.logger.Info("Coordinator", "reactivated with no open windows", nil)
	return c.CreateWindows()
}

func (c *Coordinator) AllClosed() bool {
	return !live(c.primary) && !live(c.secondary)
}

func (c *Coordinator) HasSecondary() bool {
	return live(c.secondary)
}

func (c *Coordinator) Primary() Window { return c.primary }
func (c *Coordinator) Secondary() Window { return c.secondary }

// CloseAll closes whatever windows are still open.
func (c *Coordinator) CloseAll() {
	for _, w := range []Window{c.secondary, c.primary} {
		if live(w) {
			w.Close()
		}
	}
}

func (c *Coordinator) registerHandlers() {
	for _, ch := range []ipc.Channel{
		ipc.UpdateDisplay,
		ipc.ToggleFullscreenMain,
		ipc.ZoomIn,
		ipc.ZoomOut,
		ipc.ZoomReset,
	} {
		c.bus.On(ch, c.Dispatch)
	}
}

// Dispatch applies a message raised by a UI document. Messages aimed at a
// missing or destroyed window are dropped.
func (c *Coordinator) Dispatch(msg ipc.Message) {
	switch msg.Channel {
	case ipc.UpdateDisplay:
		if live(c.secondary) {
			c.secondary.Send(ipc.Message{Channel: ipc.UpdateFromMain, Payload: msg.Payload})
		}

	case ipc.ToggleFullscreenMain:
		if live(c.primary) {
			c.primary.SetFullScreen(!c.primary.FullScreen())
		}

	case ipc.ZoomIn:
		c.logger.Debug("Coordinator", "zoom in requested for secondary window", nil)
		c.setSecondaryZoom(func(z float64) float64 { return zoomIn(z, c.config.ZoomStep) })

	case ipc.ZoomOut:
		c.logger.Debug("Coordinator", "zoom out requested for secondary window", nil)
		c.setSecondaryZoom(func(z float64) float64 { return zoomOut(z, c.config.ZoomStep, c.config.ZoomMin) })

	case ipc.ZoomReset:
		c.logger.Debug("Coordinator", "zoom reset requested for secondary window", nil)
		c.setSecondaryZoom(func(float64) float64 { return DefaultZoom })

	default:
		c.logger.Warning("Coordinator", "unknown channel", map[string]interface{}{
			"channel": string(msg.Channel),
		})
	}
}

func (c *Coordinator) setSecondaryZoom(next func(float64) float64) {
	if !live(c.secondary) {
		return
	}
	c.secondary.SetZoomFactor(next(c.secondary.ZoomFactor()))
}

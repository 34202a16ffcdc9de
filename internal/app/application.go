package app

import (
	"fmt"
	"io"
	"runtime"

	"dualview/internal/config"
	"dualview/internal/display"
	"dualview/internal/gui"
	"dualview/internal/ipc"
	"dualview/internal/logger"
	"dualview/internal/shutdown"
	"dualview/internal/timing"
	"dualview/internal/updater"
	"dualview/internal/windows"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName = "dualview"
	AppID   = "io.dualview.desktop"
)

// Version is stamped at build time with -ldflags "-X dualview/internal/app.Version=1.2.3".
var Version = "dev"

type Options struct {
	ConfigPath string
	LogLevel   string
}

type Application struct {
	fyneApp     fyne.App
	config      *config.Config
	logger      logger.Logger
	lifecycle   Lifecycle
	bus         *ipc.Bus
	coordinator *windows.Coordinator
	notifier    *updater.Notifier
	shutdown    *shutdown.Manager
	timing      *timing.Tracker
	quit        func()
}

// wiring is what newApplication assembles the shell from.
type wiring struct {
	app       fyne.App
	config    *config.Config
	logger    logger.Logger
	shutdown  *shutdown.Manager
	lifecycle Lifecycle
	displays  display.Provider
	placer    display.Placer
	scheduler ipc.Scheduler
}

func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	log, logFile, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	fyneApp := app.NewWithID(AppID)
	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: Version,
		Icon:    fyneApp.Metadata().Icon,
	})

	log.Info("Application", "starting application", map[string]interface{}{
		"version":    Version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"log_level":  cfg.Log.Level,
		"log_file":   cfg.Log.File,
	})

	shutdownMgr := shutdown.NewManager(log)
	shutdownMgr.Register("log file", shutdown.ComponentFunc(func() { logFile.Close() }))

	provider, placer, displayConn := systemDisplays(cfg, log)
	shutdownMgr.Register("display connection", shutdown.ComponentFunc(func() { displayConn.Close() }))

	a := newApplication(wiring{
		app:       fyneApp,
		config:    cfg,
		logger:    log,
		shutdown:  shutdownMgr,
		lifecycle: NewLifecycle(runtime.GOOS),
		displays:  provider,
		placer:    placer,
		scheduler: ipc.SchedulerFunc(fyne.Do),
	})

	if err := a.setupAutoUpdater(); err != nil {
		return nil, err
	}

	log.Info("Application", "initialization complete", nil)
	return a, nil
}

func newApplication(w wiring) *Application {
	tracker := timing.NewTracker(w.logger)
	w.shutdown.Register("timing", tracker)

	bus := ipc.NewBus(w.scheduler, w.logger)
	w.shutdown.Register("ipc bus", bus)

	a := &Application{
		fyneApp:   w.app,
		config:    w.config,
		logger:    w.logger,
		lifecycle: w.lifecycle,
		bus:       bus,
		shutdown:  w.shutdown,
		timing:    tracker,
		quit:      w.app.Quit,
	}

	host := gui.NewHost(w.app, gui.HostOptions{
		Placer:       w.placer,
		Scheduler:    w.scheduler,
		Icon:         w.app.Metadata().Icon,
		KeepResident: w.lifecycle.KeepResident(),
		OnAllClosed:  a.onAllClosed,
	}, w.logger)

	a.coordinator = windows.NewCoordinator(w.displays, host, bus, windows.Config{
		Title:    w.config.Window.Title,
		Width:    w.config.Window.Width,
		Height:   w.config.Window.Height,
		ZoomStep: w.config.Zoom.Step,
		ZoomMin:  w.config.Zoom.Min,
	}, w.logger)

	return a
}

// NewLogger builds the console and file logger described by cfg.
func NewLogger(cfg *config.Config) (logger.Logger, io.Closer, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log, closer, err := logger.NewAppLogger(level, cfg.Log.JSON, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  10,
		MaxBackups: 3,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log, closer, nil
}

// NewUpdateClient builds the feed client for cfg, or returns nil when no
// feed is configured.
func NewUpdateClient(cfg *config.Config, log logger.Logger) (*updater.FeedClient, error) {
	if cfg.Update.FeedURL == "" {
		return nil, nil
	}
	return updater.NewFeedClient(updater.FeedOptions{
		FeedURL:        cfg.Update.FeedURL,
		CurrentVersion: Version,
		CacheDir:       cfg.Update.CacheDir,
	}, log)
}

func (a *Application) setupAutoUpdater() error {
	client, err := NewUpdateClient(a.config, a.logger)
	if err != nil {
		return err
	}
	if client == nil {
		a.logger.Info("Application", "auto-update disabled, no feed configured", nil)
		return nil
	}

	client.SetQuitFunc(func() { fyne.Do(a.quit) })

	a.notifier = updater.NewNotifier(client, updater.NotifierOptions{
		Interval:          a.config.Update.Interval,
		AutoDownload:      a.config.Update.AutoDownload,
		AutoInstallOnQuit: a.config.Update.AutoInstallOnQuit,
	}, a.logger)

	// Reverse order on shutdown: stop checking, then install what is pending.
	a.shutdown.Register("update client", client)
	a.shutdown.Register("update notifier", a.notifier)
	return nil
}

func systemDisplays(cfg *config.Config, log logger.Logger) (display.Provider, display.Placer, io.Closer) {
	provider, placer, conn, err := display.NewSystem()
	if err == nil {
		return provider, placer, conn
	}

	log.Warning("Application", "display enumeration unavailable, assuming one display", map[string]interface{}{
		"error": err.Error(),
	})
	return display.Static{List: []display.Display{{
		Name:    "default",
		Bounds:  display.Rect{Width: cfg.Window.Width, Height: cfg.Window.Height},
		Primary: true,
	}}}, display.NoopPlacer(), io.NopCloser(nil)
}

func (a *Application) Run() error {
	lc := a.fyneApp.Lifecycle()
	lc.SetOnStarted(a.onReady)
	lc.SetOnEnteredForeground(a.onActivate)
	lc.SetOnStopped(a.shutdown.Shutdown)

	a.shutdown.Listen(func() { fyne.Do(a.onSignal) })

	windowsDone := a.timing.Start("create_windows")
	if err := a.coordinator.CreateWindows(); err != nil {
		a.logger.Error("Application", err, map[string]interface{}{"phase": "create_windows"})
		a.shutdown.Shutdown()
		return fmt.Errorf("create windows: %w", err)
	}
	windowsDone()

	a.logger.Info("Application", "GUI displayed", map[string]interface{}{
		"secondary": a.coordinator.HasSecondary(),
	})
	a.fyneApp.Run()

	a.shutdown.Shutdown()
	return nil
}

func (a *Application) onReady() {
	if a.notifier == nil {
		return
	}
	ctx := a.shutdown.Context()
	a.notifier.Start(ctx)

	// The ready event asks for its own check as well; the client drops it
	// while the scheduled startup check is still running.
	go a.notifier.Check(ctx)
}

func (a *Application) onActivate() {
	if !a.lifecycle.KeepResident() {
		return
	}
	if a.coordinator.AllClosed() {
		defer a.timing.Start("recreate_windows")()
	}
	if err := a.coordinator.Activate(); err != nil {
		a.logger.Error("Application", err, map[string]interface{}{"phase": "activate"})
	}
}

func (a *Application) onAllClosed() {
	if !a.lifecycle.QuitOnAllClosed() {
		a.logger.Info("Application", "all windows closed, staying resident", nil)
		return
	}
	a.logger.Info("Application", "all windows closed, quitting", nil)
	a.quit()
}

// onSignal closes the windows and ends the UI loop, even where the last
// closed window would otherwise leave the process resident.
func (a *Application) onSignal() {
	a.coordinator.CloseAll()
	a.quit()
}

package updater

import (
	"context"
	"errors"
	"sync"
	"time"

	"dualview/internal/logger"
)

const DefaultInterval = time.Hour

type NotifierOptions struct {
	Interval          time.Duration
	AutoDownload      bool
	AutoInstallOnQuit bool
}

// Notifier checks for updates at startup and then every Interval, and
// installs a downloaded update immediately.
type Notifier struct {
	client   Client
	logger   logger.Logger
	interval time.Duration

	newTicker func(time.Duration) (<-chan time.Time, func())

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewNotifier(client Client, opts NotifierOptions, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	n := &Notifier{
		client:    client,
		logger:    log,
		interval:  opts.Interval,
		newTicker: realTicker,
	}

	client.SetAutoDownload(opts.AutoDownload)
	client.SetAutoInstallOnAppQuit(opts.AutoInstallOnQuit)
	client.OnEvent(n.handle)

	return n
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Start runs one check right away and schedules the recurring check. It
// returns immediately; Stop or cancelling ctx ends the schedule.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})

	tick, stop := n.newTicker(n.interval)

	n.logger.Info("UpdateNotifier", "update schedule started", map[string]interface{}{
		"interval": n.interval.String(),
	})

	go func() {
		defer close(n.done)
		defer stop()

		n.Check(ctx)
		for {
			select {
			case <-tick:
				n.Check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the schedule and waits for a running check to return.
func (n *Notifier) Stop() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel = nil
	n.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Shutdown satisfies shutdown.Component.
func (n *Notifier) Shutdown() {
	n.Stop()
}

// Check runs a single check. Failures are logged; the next scheduled check is
// the only retry.
func (n *Notifier) Check(ctx context.Context) {
	err := n.client.CheckForUpdates(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrCheckInProgress):
		n.logger.Debug("UpdateNotifier", "check skipped, another check is running", nil)
	case errors.Is(err, context.Canceled):
		n.logger.Debug("UpdateNotifier", "check cancelled", nil)
	default:
		n.logger.Debug("UpdateNotifier", "check ended with error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (n *Notifier) handle(ev Event) {
	fields := map[string]interface{}{"session": ev.Session}

	switch ev.Type {
	case EventChecking:
		n.logger.Info("UpdateNotifier", "checking for update", fields)

	case EventAvailable:
		fields["version"] = ev.Info.Version
		fields["release_date"] = ev.Info.ReleaseDate
		n.logger.Info("UpdateNotifier", "update available", fields)

	case EventNotAvailable:
		fields["version"] = ev.Info.Version
		n.logger.Info("UpdateNotifier", "no update available", fields)

	case EventProgress:
		fields["bytes_per_second"] = ev.Progress.BytesPerSecond
		fields["percent"] = ev.Progress.Percent
		fields["transferred"] = ev.Progress.Transferred
		fields["total"] = ev.Progress.Total
		n.logger.Info("UpdateNotifier", ev.Progress.String(), fields)

	case EventDownloaded:
		fields["version"] = ev.Info.Version
		n.logger.Info("UpdateNotifier", "update downloaded, installing", fields)
		n.client.QuitAndInstall(true, true)

	case EventError:
		n.logger.Error("UpdateNotifier", ev.Err, fields)

	default:
		fields["type"] = string(ev.Type)
		n.logger.Warning("UpdateNotifier", "unknown update event", fields)
	}
}

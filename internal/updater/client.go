package updater

import "context"

// Client is the update-delivery client the notifier drives.
type Client interface {
	SetAutoDownload(enabled bool)
	SetAutoInstallOnAppQuit(enabled bool)

	// OnEvent registers fn for every lifecycle event. fn may be called from
	// any goroutine.
	OnEvent(fn func(Event))

	// CheckForUpdates runs one check and, with auto-download enabled,
	// downloads a newer release. It returns ErrCheckInProgress while another
	// check is running.
	CheckForUpdates(ctx context.Context) error

	// QuitAndInstall installs the downloaded release and quits the
	// application, restarting it when forceRunAfter is set.
	QuitAndInstall(silent, forceRunAfter bool)
}

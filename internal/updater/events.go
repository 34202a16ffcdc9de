// Package updater keeps the application current without user interaction.
//
// A Client performs the check/download/install lifecycle against a release
// feed and reports every transition as an Event. The Notifier drives the
// client on a fixed schedule, logs what it reports and requests a silent
// install as soon as an update has been downloaded.
package updater

import (
	"errors"
	"fmt"
)

var (
	ErrCheckInProgress = errors.New("update check already in progress")
	ErrNoUpdate        = errors.New("no downloaded update to install")
	ErrChecksum        = errors.New("checksum mismatch")
)

type EventType string

const (
	EventChecking     EventType = "checking-for-update"
	EventAvailable    EventType = "update-available"
	EventNotAvailable EventType = "update-not-available"
	EventProgress     EventType = "download-progress"
	EventDownloaded   EventType = "update-downloaded"
	EventError        EventType = "error"
)

// Info describes a release as published in the feed.
type Info struct {
	Version     string
	ReleaseDate string
	Path        string
	SHA512      string
	Size        int64
}

type Progress struct {
	BytesPerSecond int64
	Percent        float64
	Transferred    int64
	Total          int64
}

func (p Progress) String() string {
	return fmt.Sprintf("speed %d B/s - downloaded %.1f%% (%d/%d)", p.BytesPerSecond, p.Percent, p.Transferred, p.Total)
}

// Event is one lifecycle transition. Session correlates the events of a
// single check.
type Event struct {
	Type     EventType
	Session  string
	Info     Info
	Progress Progress
	Err      error
}

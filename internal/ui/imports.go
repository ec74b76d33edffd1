package ui

import "github.com/bamsammich/mirrorsync/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	ManifestFetched = event.ManifestFetched
	ScanStarted     = event.ScanStarted
	ScanComplete    = event.ScanComplete
	Planned         = event.Planned
	FileStarted     = event.FileStarted
	FileProgress    = event.FileProgress
	FileCompleted   = event.FileCompleted
	FileFailed      = event.FileFailed
	FileSkipped     = event.FileSkipped
	Failover        = event.Failover
	Warning         = event.Warning
)

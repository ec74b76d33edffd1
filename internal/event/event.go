// Package event defines the progress events a synchronization pass emits
// for presenters and the structured log.
package event

import (
	"log/slog"
	"time"
)

// Type identifies the kind of event.
type Type int

// Events in the order a pass produces them.
const (
	ManifestFetched Type = iota + 1 // Total = manifest entries
	ScanStarted                     // Total = entries to scan
	ScanComplete                    // Total = tasks found
	Planned                         // Total = tasks queued
	FileStarted
	FileProgress // Size = bytes so far, TotalSize = Content-Length or -1
	FileCompleted
	FileFailed
	FileSkipped // local copy already matches
	Failover    // Host = secondary, Total = tasks handed over
	Warning     // advisory, the file itself was accepted
)

func (t Type) String() string {
	switch t {
	case ManifestFetched:
		return "ManifestFetched"
	case ScanStarted:
		return "ScanStarted"
	case ScanComplete:
		return "ScanComplete"
	case Planned:
		return "Planned"
	case FileStarted:
		return "FileStarted"
	case FileProgress:
		return "FileProgress"
	case FileCompleted:
		return "FileCompleted"
	case FileFailed:
		return "FileFailed"
	case FileSkipped:
		return "FileSkipped"
	case Failover:
		return "Failover"
	case Warning:
		return "Warning"
	default:
		return "Unknown"
	}
}

// Event is one progress notification. Fields a type does not use are zero.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // manifest path
	Host      string
	Size      int64
	Total     int64
	TotalSize int64
	Error     error
}

// Attrs returns the event as log attributes, omitting unset fields.
func (e Event) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("type", e.Type.String())}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Host != "" {
		attrs = append(attrs, slog.String("host", e.Host))
	}
	if e.Size != 0 {
		attrs = append(attrs, slog.Int64("size", e.Size))
	}
	if e.Total != 0 {
		attrs = append(attrs, slog.Int64("total", e.Total))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}
	return attrs
}

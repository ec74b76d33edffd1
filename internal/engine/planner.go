package engine

import (
	"log/slog"

	"github.com/bamsammich/mirrorsync/internal/event"
)

// Plan is the ordered download list for one pass. It is not modified
// after construction; progress is tracked by index.
type Plan struct {
	Tasks   []Task
	Missing int
	Stale   int
}

// NewPlan builds a plan from scanner output, logging each file at debug.
func NewPlan(tasks []Task, logger *slog.Logger, events chan<- event.Event) Plan {
	p := Plan{Tasks: tasks}
	for _, t := range tasks {
		switch t.Reason {
		case Missing:
			p.Missing++
		case Stale:
			p.Stale++
		}
		logger.Debug("planned", "path", t.Path, "reason", t.Reason.String())
	}
	emitEvent(events, event.Event{Type: event.Planned, Total: int64(len(tasks))})
	return p
}

// Len returns the number of files to download.
func (p Plan) Len() int { return len(p.Tasks) }

// Empty reports whether there is nothing to download.
func (p Plan) Empty() bool { return len(p.Tasks) == 0 }

package engine

// Reason records why a manifest entry needs downloading.
type Reason int

const (
	// Missing means no file exists at the local path.
	Missing Reason = iota + 1
	// Stale means a local file exists but its digest differs.
	Stale
)

func (r Reason) String() string {
	switch r {
	case Missing:
		return "missing"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Task describes a single file download.
type Task struct {
	Path       string // manifest path, slash-rooted
	RemotePath string // files prefix + manifest path
	LocalPath  string // absolute destination
	Digest     string // expected hex digest
	Reason     Reason
}

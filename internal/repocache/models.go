package repocache

import (
	"github.com/nanogit/nanogit/internal/git"
)

const (
	unknownAuthorName  = "Unknown"
	unknownAuthorEmail = "unknown@example.com"
	noCommitMessage    = "<no commit message>"
)

// FileStatus is a single entry of the status projection.
type FileStatus struct {
	Path   string
	Status git.Flags
}

// LogItem is a single entry of the log projection.
type LogItem struct {
	CommitID    string
	AuthorName  string
	AuthorEmail string
	Timestamp   int64
	Message     string
}

func newLogItem(c git.CommitInfo, _ int) LogItem {
	item := LogItem{
		CommitID:    c.ID,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		Timestamp:   c.Time,
		Message:     c.Message,
	}

	if item.AuthorName == "" {
		item.AuthorName = unknownAuthorName
	}
	if item.AuthorEmail == "" {
		item.AuthorEmail = unknownAuthorEmail
	}
	if item.Message == "" {
		item.Message = noCommitMessage
	}

	return item
}

func newFileStatus(e git.StatusEntry, _ int) FileStatus {
	return FileStatus{Path: e.Path, Status: e.Flags}
}

// State is the phase of the current status refresh cycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePublishing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePublishing:
		return "publishing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

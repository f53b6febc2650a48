package git

import (
	"time"
)

// Configuration keys understood by ReadConfig.
const (
	KeyUserName  = "user.name"
	KeyUserEmail = "user.email"
)

// LogOrder selects the revision walk order.
type LogOrder string

const (
	LogOrderDefault       LogOrder = "default"
	LogOrderCommitterTime LogOrder = "committer_time"
)

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// StatusEntry is a single path reported by Statuses.
type StatusEntry struct {
	Path  string // Repository-root-relative, slash separated
	Flags Flags
}

// CommitInfo is the metadata of a commit reached by the revision walk.
type CommitInfo struct {
	ID          string // Lowercase hex object id
	AuthorName  string
	AuthorEmail string
	Time        int64 // Committer time, seconds since the Unix epoch
	Message     string
}

// Diff line origins, as emitted by the patch serialiser.
const (
	OriginContext      byte = ' '
	OriginAddition     byte = '+'
	OriginDeletion     byte = '-'
	OriginFileHeader   byte = 'F'
	OriginHunkHeader   byte = 'H'
	OriginBinary       byte = 'B'
	OriginNoEOFNewline byte = '\\'
)

// DiffLine is one line (or, for headers, one block) of a patch.
type DiffLine struct {
	Origin  byte
	Content string
}

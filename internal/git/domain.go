package git

import (
	"strings"

	"github.com/go-git/go-git/v6"
)

// Flags is the status bitset of a single path. Several predicates may hold
// at once, e.g. a path staged and then edited again is both IndexModified and
// WtModified.
type Flags uint16

const (
	FlagConflicted Flags = 1 << iota
	FlagIndexNew
	FlagIndexModified
	FlagIndexDeleted
	FlagIndexRenamed
	FlagIndexTypechange
	FlagWtNew
	FlagWtModified
	FlagWtDeleted
	FlagWtTypechange
)

const (
	indexMask = FlagIndexNew | FlagIndexModified | FlagIndexDeleted | FlagIndexRenamed | FlagIndexTypechange
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagConflicted, "CONFLICTED"},
	{FlagIndexNew, "INDEX_NEW"},
	{FlagIndexModified, "INDEX_MODIFIED"},
	{FlagIndexDeleted, "INDEX_DELETED"},
	{FlagIndexRenamed, "INDEX_RENAMED"},
	{FlagIndexTypechange, "INDEX_TYPECHANGE"},
	{FlagWtNew, "WT_NEW"},
	{FlagWtModified, "WT_MODIFIED"},
	{FlagWtDeleted, "WT_DELETED"},
	{FlagWtTypechange, "WT_TYPECHANGE"},
}

func (f Flags) IsConflicted() bool      { return f&FlagConflicted != 0 }
func (f Flags) IsIndexNew() bool        { return f&FlagIndexNew != 0 }
func (f Flags) IsIndexModified() bool   { return f&FlagIndexModified != 0 }
func (f Flags) IsIndexDeleted() bool    { return f&FlagIndexDeleted != 0 }
func (f Flags) IsIndexRenamed() bool    { return f&FlagIndexRenamed != 0 }
func (f Flags) IsIndexTypechange() bool { return f&FlagIndexTypechange != 0 }
func (f Flags) IsWtNew() bool           { return f&FlagWtNew != 0 }
func (f Flags) IsWtModified() bool      { return f&FlagWtModified != 0 }
func (f Flags) IsWtDeleted() bool       { return f&FlagWtDeleted != 0 }
func (f Flags) IsWtTypechange() bool    { return f&FlagWtTypechange != 0 }

// IsStaged reports whether any index-side predicate holds.
func (f Flags) IsStaged() bool { return f&indexMask != 0 }

// Short returns the one-letter code shown next to a path in the change list.
func (f Flags) Short() string {
	switch {
	case f.IsConflicted():
		return "!"
	case f.IsIndexModified() || f.IsWtModified():
		return "M"
	case f.IsIndexNew() || f.IsWtNew():
		return "U"
	case f.IsIndexDeleted() || f.IsWtDeleted():
		return "D"
	case f.IsIndexTypechange() || f.IsWtTypechange():
		return "A"
	default:
		return "?"
	}
}

func (f Flags) String() string {
	if f == 0 {
		return "CURRENT"
	}

	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}

	return strings.Join(names, " | ")
}

// flagsFromStatus folds the two-sided go-git status code into a bitset.
func flagsFromStatus(st *git.FileStatus) Flags {
	if st == nil {
		return 0
	}

	var f Flags

	switch st.Staging {
	case git.Added, git.Copied:
		f |= FlagIndexNew
	case git.Modified:
		f |= FlagIndexModified
	case git.Deleted:
		f |= FlagIndexDeleted
	case git.Renamed:
		f |= FlagIndexRenamed
	case git.UpdatedButUnmerged:
		f |= FlagConflicted
	case git.Untracked, git.Unmodified:
	}

	switch st.Worktree {
	case git.Untracked:
		f |= FlagWtNew
	case git.Modified, git.Renamed, git.Copied:
		f |= FlagWtModified
	case git.Deleted:
		f |= FlagWtDeleted
	case git.UpdatedButUnmerged:
		f |= FlagConflicted
	case git.Added, git.Unmodified:
	}

	return f
}

package git

import (
	"fmt"
	"maps"
	"slices"
)

// Statuses reports every path that differs between HEAD, the index and the
// working tree. Untracked files are included and untracked directories are
// recursed into; entries come back in path order.
func (r *Repository) Statuses() ([]StatusEntry, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compute status: %w", ErrIO, err)
	}

	entries := make([]StatusEntry, 0, len(status))
	for _, path := range slices.Sorted(maps.Keys(status)) {
		flags := flagsFromStatus(status[path])
		if flags == 0 {
			continue
		}

		entries = append(entries, StatusEntry{Path: path, Flags: flags})
	}

	return entries, nil
}

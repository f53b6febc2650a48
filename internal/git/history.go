package git

import (
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/storer"
)

// Log walks the history reachable from HEAD, newest first, and returns at
// most limit commits. The walk stops as soon as the limit is reached.
func (r *Repository) Log(limit int, order LogOrder) ([]CommitInfo, error) {
	if limit <= 0 {
		return []CommitInfo{}, nil
	}

	head, err := r.HeadCommit()
	if err != nil {
		return nil, err
	}

	opts := &git.LogOptions{From: head.Hash}
	if order == LogOrderCommitterTime {
		opts.Order = git.LogOrderCommitterTime
	}

	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to walk history: %w", ErrIO, err)
	}
	defer iter.Close()

	commits := make([]CommitInfo, 0, limit)
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, CommitInfo{
			ID:          c.Hash.String(),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Time:        c.Committer.When.Unix(),
			Message:     c.Message,
		})

		if len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to walk history: %w", ErrIO, err)
	}

	return commits, nil
}

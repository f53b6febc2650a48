package session

import (
	"context"
	"time"

	"github.com/nanogit/nanogit/internal/preferences"
	"github.com/nanogit/nanogit/internal/repocache"
	"github.com/samber/lo"
)

type Config struct {
	// Root is opened on startup instead of the remembered repository.
	Root string
}

// PreferenceStore remembers opened repositories across runs.
type PreferenceStore interface {
	SaveRoot(ctx context.Context, root string) error
	LastRoot(ctx context.Context) (string, error)
	Recent(ctx context.Context, limit int) ([]preferences.Repository, error)
	Forget(ctx context.Context, root string) error
}

type CommitRequest struct {
	Message string `validate:"required,notblank"`
}

// View is a read-only snapshot of the open repository for rendering.
type View struct {
	Root    string
	Workdir string

	Statuses []repocache.FileStatus
	Log      []repocache.LogItem

	LocalRefreshAt  *time.Time
	RemoteRefreshAt *time.Time
	IsRefreshed     bool
	State           repocache.State

	// AnyStaged enables the commit box.
	AnyStaged bool
}

func newView(c *repocache.Cache) View {
	if c == nil {
		return View{}
	}

	statuses := c.Statuses()

	view := View{
		Root:        c.Root(),
		Workdir:     c.Workdir(),
		Statuses:    statuses,
		Log:         c.Log(),
		IsRefreshed: c.IsLocalRefreshed(),
		State:       c.State(),
		AnyStaged:   anyStaged(statuses),
	}

	if at, ok := c.LocalRefresh(); ok {
		view.LocalRefreshAt = &at
	}
	if at, ok := c.RemoteRefresh(); ok {
		view.RemoteRefreshAt = &at
	}

	return view
}

func anyStaged(statuses []repocache.FileStatus) bool {
	return lo.ContainsBy(statuses, func(s repocache.FileStatus) bool {
		return s.Status.IsStaged()
	})
}

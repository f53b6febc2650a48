package repocache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/google/uuid"
	"github.com/nanogit/nanogit/internal/git"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Cache serialises access to a repository and keeps snapshot projections of
// its status and history that can be read at any time without waiting for
// repository I/O.
type Cache struct {
	mu   sync.Mutex
	repo *git.Repository

	// the status projection carries the local refresh timestamp
	statuses projection[FileStatus]
	log      projection[LogItem]
	remote   clock

	worker *worker

	config  Config
	metrics *Metrics
	logger  *zap.Logger
}

// Open opens the repository at path. Projections start empty and no refresh
// is started.
func Open(path string, opts ...Option) (*Cache, error) {
	o := newOptions(opts)

	repo, err := git.Open(path, git.WithConfigScope(o.config.IdentityScope))
	if err != nil {
		o.logger.Error("failed to open repository", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	return newCache(repo, o), nil
}

// New wraps an already opened repository.
func New(repo *git.Repository, opts ...Option) *Cache {
	return newCache(repo, newOptions(opts))
}

func newCache(repo *git.Repository, o options) *Cache {
	c := &Cache{
		repo:    repo,
		worker:  newWorker(),
		config:  o.config,
		metrics: o.metrics,
		logger:  o.logger.With(zap.String("root", repo.Root())),
	}

	c.worker.start(c.refreshStatuses)
	c.logger.Info("repository opened", zap.String("workdir", repo.Workdir()))

	return c
}

// Stage adds the working-tree content of path to the index.
func (c *Cache) Stage(path string) error {
	c.logger.Info("staging path", zap.String("path", path))

	err := c.mutate(func(repo *git.Repository) error {
		idx, err := repo.Index()
		if err != nil {
			return err
		}
		if err = idx.Add(path); err != nil {
			return err
		}
		return idx.Write()
	})
	c.metrics.mutated("stage", err)
	if err != nil {
		c.logger.Error("failed to stage path", zap.String("path", path), zap.Error(err))
		return err
	}

	c.refreshAfterMutation()
	return nil
}

// Unstage restores the index entry of path to its HEAD version. Paths that
// HEAD does not contain are dropped from the index.
func (c *Cache) Unstage(path string) error {
	c.logger.Info("unstaging path", zap.String("path", path))

	err := c.mutate(func(repo *git.Repository) error {
		tree, err := headTree(repo)
		if err != nil && !errors.Is(err, ErrUnbornHead) {
			return err
		}

		idx, err := repo.Index()
		if err != nil {
			return err
		}
		if err = idx.ResetToTree(path, tree); err != nil {
			return err
		}
		return idx.Write()
	})
	c.metrics.mutated("unstage", err)
	if err != nil {
		c.logger.Error("failed to unstage path", zap.String("path", path), zap.Error(err))
		return err
	}

	c.refreshAfterMutation()
	return nil
}

// Commit records the index as a new commit on top of HEAD, authored by the
// configured identity.
func (c *Cache) Commit(message string) error {
	c.logger.Info("creating commit")

	var id string
	err := c.mutate(func(repo *git.Repository) error {
		name, err := identity(repo, git.KeyUserName)
		if err != nil {
			return err
		}
		email, err := identity(repo, git.KeyUserEmail)
		if err != nil {
			return err
		}

		parent, err := repo.HeadCommit()
		if err != nil {
			return err
		}

		idx, err := repo.Index()
		if err != nil {
			return err
		}
		treeID, err := idx.WriteTree()
		if err != nil {
			return err
		}
		tree, err := repo.FindTree(treeID)
		if err != nil {
			return err
		}

		sig := git.Signature{Name: name, Email: email, When: time.Now()}
		commitID, err := repo.CreateCommit(message, sig, sig, tree, parent)
		if err != nil {
			return err
		}

		id = commitID.String()
		return nil
	})
	c.metrics.mutated("commit", err)
	if err != nil {
		c.logger.Error("failed to create commit", zap.Error(err))
		return err
	}

	c.logger.Info("commit created", zap.String("id", id))

	c.refreshAfterMutation()
	return nil
}

// Diff renders the difference between HEAD and the working-tree version of
// path. Every line is prefixed with its origin marker and a space.
func (c *Cache) Diff(path string) (string, error) {
	c.logger.Debug("computing diff", zap.String("path", path))

	if c.worker.isClosed() {
		return "", ErrClosed
	}

	c.mu.Lock()
	lines, err := func() ([]git.DiffLine, error) {
		tree, err := headTree(c.repo)
		if err != nil {
			return nil, err
		}
		return c.repo.DiffTreeToWorkdir(tree, path)
	}()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to compute diff", zap.String("path", path), zap.Error(err))
		return "", err
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteByte(line.Origin)
		b.WriteByte(' ')
		writeLossy(&b, line.Content)
	}

	return b.String(), nil
}

// Refresh schedules a background recomputation of the status projection and
// recomputes the log projection before returning.
func (c *Cache) Refresh() error {
	if !c.worker.schedule() {
		return ErrClosed
	}

	return c.refreshLog()
}

// Settle blocks until every refresh requested before the call has run, or
// ctx is done.
func (c *Cache) Settle(ctx context.Context) error {
	return c.worker.settle(ctx)
}

// Close stops the refresh worker. Verbs fail with ErrClosed afterwards while
// the accessors keep returning the last published projections.
func (c *Cache) Close(ctx context.Context) error {
	c.logger.Info("closing repository cache")

	if err := c.worker.close(ctx); err != nil {
		c.logger.Warn("abandoning in-flight refresh", zap.Error(err))
		return fmt.Errorf("failed to stop refresh worker: %w", err)
	}

	return nil
}

func (c *Cache) Statuses() []FileStatus {
	return c.statuses.snapshot()
}

func (c *Cache) Log() []LogItem {
	return c.log.snapshot()
}

// LocalRefresh returns the time the status projection was last published.
func (c *Cache) LocalRefresh() (time.Time, bool) {
	return c.statuses.stamp()
}

// RemoteRefresh returns the time of the last remote refresh. Nothing in this
// package sets it; see MarkRemoteRefreshed.
func (c *Cache) RemoteRefresh() (time.Time, bool) {
	return c.remote.get()
}

func (c *Cache) MarkRemoteRefreshed(at time.Time) {
	c.remote.mark(at)
}

func (c *Cache) IsLocalRefreshed() bool {
	_, ok := c.statuses.stamp()
	return ok
}

// Root returns the repository's common directory.
func (c *Cache) Root() string {
	return c.repo.Root()
}

func (c *Cache) Workdir() string {
	return c.repo.Workdir()
}

// State reports the phase of the status refresh cycle.
func (c *Cache) State() State {
	return c.worker.currentState()
}

func (c *Cache) mutate(fn func(repo *git.Repository) error) error {
	if c.worker.isClosed() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return fn(c.repo)
}

func (c *Cache) refreshAfterMutation() {
	if err := c.Refresh(); err != nil {
		c.logger.Error("failed to refresh after mutation", zap.Error(err))
	}
}

func (c *Cache) refreshLog() error {
	c.mu.Lock()
	commits, err := c.repo.Log(c.config.MaxLog, c.config.LogOrder)
	c.mu.Unlock()

	switch {
	case errors.Is(err, ErrUnbornHead), errors.Is(err, ErrDetachedHead):
		c.logger.Debug("no history to show", zap.Error(err))
		commits = nil
	case err != nil:
		c.logger.Error("failed to refresh log", zap.Error(err))
		return err
	}

	items := lo.Map(commits, newLogItem)
	c.log.replace(items)
	c.metrics.logPublished(len(items))

	return nil
}

func (c *Cache) refreshStatuses() {
	logger := c.logger.With(zap.String("refresh_id", uuid.NewString()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.worker.setState(StateIdle)
			logger.Error("status refresh panicked", zap.Error(fmt.Errorf("%w: %v", ErrInternal, r)))
		}
	}()

	c.worker.setState(StateRunning)
	logger.Debug("refreshing statuses")

	c.mu.Lock()
	entries, err := c.repo.Statuses()
	c.mu.Unlock()

	if err != nil {
		c.worker.setState(StateIdle)
		c.metrics.refreshed(err, time.Since(start), 0)
		logger.Error("failed to refresh statuses", zap.Error(err))
		return
	}

	c.worker.setState(StatePublishing)
	items := lo.Map(entries, newFileStatus)
	c.statuses.publish(items, time.Now())
	c.worker.setState(StateDone)

	c.metrics.refreshed(nil, time.Since(start), len(items))
	logger.Debug("statuses refreshed", zap.Int("entries", len(items)), zap.Duration("took", time.Since(start)))

	c.worker.setState(StateIdle)
}

func headTree(repo *git.Repository) (*object.Tree, error) {
	head, err := repo.HeadCommit()
	if err != nil {
		return nil, err
	}

	tree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read HEAD tree: %w", ErrIO, err)
	}

	return tree, nil
}

func identity(repo *git.Repository, key string) (string, error) {
	value, err := repo.ReadConfig(key)
	if errors.Is(err, git.ErrMissingConfig) {
		return "", fmt.Errorf("%w: %w", ErrMissingIdentity, err)
	}

	return value, err
}

// writeLossy writes s replacing every maximal ill-formed subsequence with
// U+FFFD.
func writeLossy(b *strings.Builder, s string) {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			s = s[invalidPrefix(s):]
			continue
		}

		b.WriteString(s[:size])
		s = s[size:]
	}
}

// invalidPrefix returns the length of the truncated sequence s starts with,
// and one for a byte that cannot start a sequence.
func invalidPrefix(s string) int {
	low, high := byte(0x80), byte(0xBF)

	var n int
	switch c := s[0]; {
	case c >= 0xC2 && c <= 0xDF:
		n = 2
	case c == 0xE0:
		n, low = 3, 0xA0
	case c == 0xED:
		n, high = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		n = 3
	case c == 0xF0:
		n, low = 4, 0x90
	case c == 0xF4:
		n, high = 4, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		n = 4
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(s); i++ {
		if s[i] < low || s[i] > high {
			break
		}
		low, high = 0x80, 0xBF
	}

	return i
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/nanogit/nanogit/internal/preferences"
	"github.com/nanogit/nanogit/internal/repocache"
	"github.com/nanogit/nanogit/internal/watcher"
	"go.uber.org/zap"
)

// Service owns the repository the user is working on and is the only entry
// point the presentation layer talks to.
type Service struct {
	config Config

	caches   *repocache.Factory
	watchers *watcher.Factory
	prefs    PreferenceStore

	validator *validator.Validate

	mu      sync.RWMutex
	cache   *repocache.Cache
	watcher *watcher.Watcher

	logger *zap.Logger
}

func NewService(
	config Config,
	caches *repocache.Factory,
	watchers *watcher.Factory,
	prefs PreferenceStore,
	validate *validator.Validate,
	logger *zap.Logger,
) (*Service, error) {
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, fmt.Errorf("failed to register validation: %w", err)
	}

	return &Service{
		config: config,

		caches:   caches,
		watchers: watchers,
		prefs:    prefs,

		validator: validate,

		logger: logger,
	}, nil
}

// OpenRepository makes the repository at path the current one and starts
// refreshing it. The previously open repository is closed.
func (s *Service) OpenRepository(ctx context.Context, path string) error {
	s.logger.Info("opening repository", zap.String("path", path))

	cache, err := s.caches.Open(path)
	if err != nil {
		s.logger.Error("failed to open repository", zap.String("path", path), zap.Error(err))
		return err
	}

	s.mu.Lock()
	prevCache, prevWatcher := s.cache, s.watcher
	s.cache, s.watcher = cache, nil
	s.mu.Unlock()

	_ = s.release(ctx, prevCache, prevWatcher)

	if saveErr := s.prefs.SaveRoot(ctx, cache.Root()); saveErr != nil {
		s.logger.Warn("failed to remember repository", zap.Error(saveErr))
	}

	s.watch(ctx, cache)

	if refreshErr := cache.Refresh(); refreshErr != nil {
		s.logger.Error("failed to refresh repository", zap.Error(refreshErr))
	}

	s.logger.Info("repository opened", zap.String("root", cache.Root()))
	return nil
}

// Restore reopens the configured or the last remembered repository. A
// remembered repository that no longer exists is forgotten.
func (s *Service) Restore(ctx context.Context) error {
	root := s.config.Root
	remembered := false

	if root == "" {
		last, err := s.prefs.LastRoot(ctx)
		if errors.Is(err, preferences.ErrNotFound) {
			s.logger.Info("no repository to restore")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read last repository: %w", err)
		}

		root, remembered = last, true
	}

	err := s.OpenRepository(ctx, root)
	if remembered && errors.Is(err, repocache.ErrNotARepo) {
		s.logger.Warn("forgetting missing repository", zap.String("root", root))
		if forgetErr := s.prefs.Forget(ctx, root); forgetErr != nil {
			s.logger.Warn("failed to forget repository", zap.Error(forgetErr))
		}
		return nil
	}

	return err
}

// RecentRepositories lists remembered repositories for the open dialog, most
// recently opened first.
func (s *Service) RecentRepositories(ctx context.Context, limit int) ([]preferences.Repository, error) {
	repos, err := s.prefs.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list recent repositories", zap.Error(err))
		return nil, err
	}

	return repos, nil
}

// Current returns the open repository cache, or nil.
func (s *Service) Current() *repocache.Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cache
}

func (s *Service) View() View {
	return newView(s.Current())
}

func (s *Service) Stage(path string) error {
	c, err := s.current()
	if err != nil {
		return err
	}

	return c.Stage(path)
}

func (s *Service) Unstage(path string) error {
	c, err := s.current()
	if err != nil {
		return err
	}

	return c.Unstage(path)
}

// Commit validates the request before committing the staged changes.
func (s *Service) Commit(req CommitRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	c, err := s.current()
	if err != nil {
		return err
	}

	return c.Commit(req.Message)
}

// CanCommit reports whether the commit box should be enabled for message.
func (s *Service) CanCommit(message string) bool {
	c := s.Current()
	if c == nil || !anyStaged(c.Statuses()) {
		return false
	}

	return s.validator.Struct(CommitRequest{Message: message}) == nil
}

func (s *Service) Diff(path string) (string, error) {
	c, err := s.current()
	if err != nil {
		return "", err
	}

	return c.Diff(path)
}

func (s *Service) Refresh() error {
	c, err := s.current()
	if err != nil {
		return err
	}

	return c.Refresh()
}

// Close remembers the open repository and releases it.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	cache, w := s.cache, s.watcher
	s.cache, s.watcher = nil, nil
	s.mu.Unlock()

	if cache == nil {
		return nil
	}

	if err := s.prefs.SaveRoot(ctx, cache.Root()); err != nil {
		s.logger.Warn("failed to remember repository", zap.Error(err))
	}

	return s.release(ctx, cache, w)
}

func (s *Service) current() (*repocache.Cache, error) {
	c := s.Current()
	if c == nil {
		return nil, ErrNoRepository
	}

	return c, nil
}

func (s *Service) watch(ctx context.Context, cache *repocache.Cache) {
	if !s.watchers.Enabled() {
		return
	}

	// the watcher outlives the call that opened the repository
	w, err := s.watchers.Watch(context.WithoutCancel(ctx), cache.Workdir(), cache.Root(), cache)
	if err != nil {
		s.logger.Warn("failed to watch working tree", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != cache {
		// replaced while the watcher was starting
		_ = w.Stop()
		return
	}
	s.watcher = w
}

func (s *Service) release(ctx context.Context, cache *repocache.Cache, w *watcher.Watcher) error {
	var errs []error

	if w != nil {
		if err := w.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if cache != nil {
		if err := cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to release repository", zap.Error(err))
		return err
	}

	return nil
}

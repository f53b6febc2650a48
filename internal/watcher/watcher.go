package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const dotGit = ".git"

// Refresher is notified once the working tree has been quiet for the
// debounce interval after a change.
type Refresher interface {
	Refresh() error
}

// Watcher monitors a working tree and the index/HEAD files of its
// repository.
type Watcher struct {
	workdir  string
	gitDir   string
	target   Refresher
	debounce time.Duration

	fw   *fsnotify.Watcher
	kick chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group

	logger *zap.Logger
}

func New(workdir, gitDir string, target Refresher, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		workdir:  filepath.Clean(workdir),
		gitDir:   filepath.Clean(gitDir),
		target:   target,
		debounce: debounce,

		fw:   fw,
		kick: make(chan struct{}, 1),

		logger: logger,
	}, nil
}

// Start registers the working tree directories and begins watching. The
// watcher runs until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.group != nil {
		return ErrStarted
	}

	if err := w.addTree(w.workdir); err != nil {
		return err
	}
	if err := w.fw.Add(w.gitDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.gitDir, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.group, ctx = errgroup.WithContext(ctx)
	w.group.Go(func() error { return w.watch(ctx) })
	w.group.Go(func() error { return w.settle(ctx) })

	w.logger.Info("watching working tree", zap.String("workdir", w.workdir), zap.Duration("debounce", w.debounce))
	return nil
}

// Stop ends watching and waits for the loops to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	err := w.fw.Close()
	if w.group != nil {
		if waitErr := w.group.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
			err = errors.Join(err, waitErr)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}

	w.logger.Info("stopped watching working tree", zap.String("workdir", w.workdir))
	return nil
}

func (w *Watcher) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			if event.Has(fsnotify.Create) && !w.inGitDir(event.Name) {
				if fi, err := os.Lstat(event.Name); err == nil && fi.IsDir() {
					if addErr := w.addTree(event.Name); addErr != nil {
						w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(addErr))
					}
				}
			}

			w.logger.Debug("working tree changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			select {
			case w.kick <- struct{}{}:
			default:
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// settle calls the refresher once no change has arrived for the debounce
// interval.
func (w *Watcher) settle(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.kick:
			timer.Reset(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.target.Refresh(); err != nil {
				w.logger.Error("failed to refresh after change", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if w.inGitDir(event.Name) {
		base := filepath.Base(event.Name)
		return filepath.Dir(event.Name) == w.gitDir && (base == "index" || base == "HEAD")
	}

	return true
}

func (w *Watcher) inGitDir(path string) bool {
	rel, err := filepath.Rel(w.gitDir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == dotGit || path == w.gitDir {
			return filepath.SkipDir
		}

		return w.fw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	return nil
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh() error {
	r.calls.Add(1)
	return nil
}

func newWorkdir(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	return dir, gitDir
}

func startWatcher(t *testing.T, dir, gitDir string, target Refresher) *Watcher {
	t.Helper()

	factory := NewFactory(Config{Enabled: true, Debounce: 20 * time.Millisecond}, zaptest.NewLogger(t))
	w, err := factory.Watch(context.Background(), dir, gitDir, target)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	return w
}

func TestWatcher_RefreshesOnChange(t *testing.T) {
	dir, gitDir := newWorkdir(t)
	target := &countingRefresher{}
	startWatcher(t, dir, gitDir, target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.txt"), []byte("a"), 0o644))

	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_Debounces(t *testing.T) {
	dir, gitDir := newWorkdir(t)
	target := &countingRefresher{}

	factory := NewFactory(Config{Enabled: true, Debounce: 300 * time.Millisecond}, zaptest.NewLogger(t))
	w, err := factory.Watch(context.Background(), dir, gitDir, target)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte{byte(i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), target.calls.Load())
}

func TestWatcher_IgnoresGitInternals(t *testing.T) {
	dir, gitDir := newWorkdir(t)
	target := &countingRefresher{}
	startWatcher(t, dir, gitDir, target)

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte("[core]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "objects", "blob"), []byte("x"), 0o644))

	assert.Never(t, func() bool { return target.calls.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index"), []byte("DIRC"), 0o644))
	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir, gitDir := newWorkdir(t)
	target := &countingRefresher{}
	startWatcher(t, dir, gitDir, target)

	nested := filepath.Join(dir, "new", "deeper")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	before := target.calls.Load()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new", "file.txt"), []byte("x"), 0o644))
	assert.Eventually(t, func() bool { return target.calls.Load() > before }, 5*time.Second, 10*time.Millisecond)
}

func TestFactory_Disabled(t *testing.T) {
	dir, gitDir := newWorkdir(t)

	factory := NewFactory(Config{Enabled: false}, zaptest.NewLogger(t))
	assert.False(t, factory.Enabled())

	_, err := factory.Watch(context.Background(), dir, gitDir, &countingRefresher{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestWatcher_StartTwice(t *testing.T) {
	dir, gitDir := newWorkdir(t)
	w := startWatcher(t, dir, gitDir, &countingRefresher{})

	require.ErrorIs(t, w.Start(context.Background()), ErrStarted)
}

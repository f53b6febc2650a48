package repocache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	dir  string
	repo *git.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWithHome(t, t.TempDir())
}

// newFixtureWithHome initialises a repository whose user configuration lives
// in home.
func newFixtureWithHome(t *testing.T, home string) *fixture {
	t.Helper()

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	return &fixture{dir: dir, repo: repo}
}

// newRootedFixture returns a repository whose HEAD is an empty root commit.
func newRootedFixture(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t)
	f.commit(t, "root", time.Unix(1700000000, 0))

	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) commit(t *testing.T, message string, when time.Time, files ...string) {
	t.Helper()

	worktree, err := f.repo.Worktree()
	require.NoError(t, err)

	for _, name := range files {
		_, err = worktree.Add(name)
		require.NoError(t, err)
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  when,
		},
		AllowEmptyCommits: true,
	})
	require.NoError(t, err)
}

func (f *fixture) commitMany(t *testing.T, n int) {
	t.Helper()

	base := time.Unix(1700000000, 0)
	for i := range n {
		f.write(t, "history.txt", fmt.Sprintf("revision %d\n", i))
		f.commit(t, fmt.Sprintf("commit %d", i), base.Add(time.Duration(i)*time.Minute), "history.txt")
	}
}

func (f *fixture) setIdentity(t *testing.T, name, email string) {
	t.Helper()

	cfg, err := f.repo.Config()
	require.NoError(t, err)

	cfg.User.Name = name
	cfg.User.Email = email
	require.NoError(t, f.repo.SetConfig(cfg))
}

func (f *fixture) open(t *testing.T, opts ...Option) *Cache {
	t.Helper()

	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	c, err := Open(f.dir, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})

	return c
}

func settle(t *testing.T, c *Cache) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Settle(ctx))
}

func refreshAndSettle(t *testing.T, c *Cache) {
	t.Helper()

	require.NoError(t, c.Refresh())
	settle(t, c)
}

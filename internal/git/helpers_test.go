package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
)

type fixture struct {
	dir  string
	repo *git.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	isolateUserConfig(t)

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{dir: dir, repo: repo}
}

// isolateUserConfig points the user configuration at an empty home directory
// and returns it.
func isolateUserConfig(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	return home
}

func writeUserConfig(t *testing.T, home, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(home, ".gitconfig"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()

	path := filepath.Join(f.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) commit(t *testing.T, message string, when time.Time, files ...string) {
	t.Helper()

	worktree, err := f.repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range files {
		if _, err = worktree.Add(name); err != nil {
			t.Fatal(err)
		}
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  when,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) setIdentity(t *testing.T, name, email string) {
	t.Helper()

	cfg, err := f.repo.Config()
	if err != nil {
		t.Fatal(err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err = f.repo.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) open(t *testing.T) *Repository {
	t.Helper()

	r, err := Open(f.dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	return r
}

func statusOf(t *testing.T, r *Repository, path string) Flags {
	t.Helper()

	entries, err := r.Statuses()
	if err != nil {
		t.Fatalf("Statuses failed: %v", err)
	}

	for _, e := range entries {
		if e.Path == path {
			return e.Flags
		}
	}

	return 0
}

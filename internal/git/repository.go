package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
)

const dotGit = ".git"

// Repository is a thin capability layer over a go-git repository handle.
//
// It keeps no state besides the handle and never spawns goroutines; callers
// are responsible for serialising access.
type Repository struct {
	repo *git.Repository

	workdir string
	root    string
	scope   ConfigScope
}

// ConfigScope selects the configuration files ReadConfig consults. Each scope
// includes the ones below it.
type ConfigScope string

const (
	ScopeLocal  ConfigScope = "local"
	ScopeGlobal ConfigScope = "global"
	ScopeSystem ConfigScope = "system"
)

type Option func(*Repository)

// WithConfigScope overrides the default ScopeSystem, which merges the
// system, user and repository configuration the way git does.
func WithConfigScope(scope ConfigScope) Option {
	return func(r *Repository) {
		r.scope = scope
	}
}

// Open opens the working copy rooted at path. Both the working tree root and
// its .git directory are accepted; parent directories are not searched.
func Open(path string, opts ...Option) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathInvalid, err)
	}

	if filepath.Base(abs) == dotGit {
		abs = filepath.Dir(abs)
	}

	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit:          false,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return nil, fmt.Errorf("%w: %s is a bare repository", ErrNotARepository, abs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	r := &Repository{
		repo:    repo,
		workdir: wt.Filesystem.Root(),
		root:    filepath.Join(abs, dotGit),
		scope:   ScopeSystem,
	}

	if fs, ok := repo.Storer.(*filesystem.Storage); ok {
		r.root = fs.Filesystem().Root()
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Root returns the repository's common directory.
func (r *Repository) Root() string {
	return r.root
}

// Workdir returns the root of the working tree.
func (r *Repository) Workdir() string {
	return r.workdir
}

// ReadConfig returns the value of a "section.key" or
// "section.subsection.key" configuration entry.
func (r *Repository) ReadConfig(key string) (string, error) {
	cfg, err := r.config()
	if err != nil {
		return "", err
	}

	var value string
	switch key {
	case KeyUserName:
		value = cfg.User.Name
	case KeyUserEmail:
		value = cfg.User.Email
	default:
		parts := strings.Split(key, ".")
		switch len(parts) {
		case 2:
			value = cfg.Raw.Section(parts[0]).Option(parts[1])
		case 3:
			value = cfg.Raw.Section(parts[0]).Subsection(parts[1]).Option(parts[2])
		default:
			return "", fmt.Errorf("%w: malformed key %q", ErrMissingConfig, key)
		}
	}

	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}

	return value, nil
}

func (r *Repository) config() (*config.Config, error) {
	var scope config.Scope
	switch r.scope {
	case ScopeLocal:
		scope = config.LocalScope
	case ScopeGlobal:
		scope = config.GlobalScope
	default:
		scope = config.SystemScope
	}

	cfg, err := r.repo.ConfigScoped(scope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config: %w", ErrIO, err)
	}

	return cfg, nil
}

// HeadCommit resolves HEAD to the commit it points at.
func (r *Repository) HeadCommit() (*object.Commit, error) {
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, ErrUnbornHead
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve HEAD: %w", ErrIO, err)
	}

	if ref.Type() != plumbing.HashReference {
		return nil, fmt.Errorf("%w: %s", ErrDetachedHead, ref.Name())
	}

	return r.FindCommit(ref.Hash())
}

// FindCommit loads a commit object.
func (r *Repository) FindCommit(id plumbing.Hash) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(id)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: commit %s", ErrObjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read commit %s: %w", ErrIO, id, err)
	}

	return commit, nil
}

// FindTree loads a tree object.
func (r *Repository) FindTree(id plumbing.Hash) (*object.Tree, error) {
	tree, err := r.repo.TreeObject(id)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: tree %s", ErrObjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read tree %s: %w", ErrIO, id, err)
	}

	return tree, nil
}

// CreateCommit records a commit of tree with the given parents and moves
// the reference HEAD points at (or HEAD itself when detached) to it.
func (r *Repository) CreateCommit(
	message string,
	author, committer Signature,
	tree *object.Tree,
	parents ...*object.Commit,
) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:    object.Signature{Name: author.Name, Email: author.Email, When: author.When},
		Committer: object.Signature{Name: committer.Name, Email: committer.Email, When: committer.When},
		Message:   message,
		TreeHash:  tree.Hash,
	}
	for _, p := range parents {
		commit.ParentHashes = append(commit.ParentHashes, p.Hash)
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to encode commit: %w", ErrIO, err)
	}

	id, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to store commit: %w", ErrIO, err)
	}

	if refErr := r.updateHead(id); refErr != nil {
		return plumbing.ZeroHash, refErr
	}

	return id, nil
}

func (r *Repository) updateHead(id plumbing.Hash) error {
	name := plumbing.HEAD

	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("%w: failed to read HEAD: %w", ErrIO, err)
	}
	if head != nil && head.Type() == plumbing.SymbolicReference {
		name = head.Target()
	}

	if setErr := r.repo.Storer.SetReference(plumbing.NewHashReference(name, id)); setErr != nil {
		return fmt.Errorf("%w: failed to update %s: %w", ErrIO, name, setErr)
	}

	return nil
}

// relPath turns a caller supplied path into a slash separated path relative
// to the working tree root.
func (r *Repository) relPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathInvalid)
	}

	p := path
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.workdir, p)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrPathInvalid, path, err)
		}
		p = rel
	}

	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") || p == dotGit || strings.HasPrefix(p, dotGit+"/") {
		return "", fmt.Errorf("%w: %s is outside the working tree", ErrPathInvalid, path)
	}

	return p, nil
}

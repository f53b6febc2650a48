package git

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/format/index"
	"github.com/go-git/go-git/v6/plumbing/object"
)

// Index is an in-memory copy of the staging area. Changes are persisted only
// by Write.
type Index struct {
	repo *Repository
	idx  *index.Index
}

// Index loads the staging area.
func (r *Repository) Index() (*Index, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read index: %w", ErrIO, err)
	}

	return &Index{repo: r, idx: idx}, nil
}

// Has reports whether path has an entry in the index.
func (ix *Index) Has(path string) bool {
	p, err := ix.repo.relPath(path)
	if err != nil {
		return false
	}

	_, err = ix.idx.Entry(p)
	return err == nil
}

// Add stages the working-tree content of path. A path missing from the
// working tree but present in the index is staged as a deletion.
func (ix *Index) Add(path string) error {
	p, err := ix.repo.relPath(path)
	if err != nil {
		return err
	}

	wt, err := ix.repo.repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	fi, err := wt.Filesystem.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		if _, entryErr := ix.idx.Entry(p); entryErr != nil {
			return fmt.Errorf("%w: %s did not match any file", ErrPathInvalid, p)
		}
		return ix.Remove(p)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to stat %s: %w", ErrIO, p, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrPathInvalid, p)
	}

	var content []byte
	if fi.Mode()&os.ModeSymlink != 0 {
		target, linkErr := wt.Filesystem.Readlink(p)
		if linkErr != nil {
			return fmt.Errorf("%w: failed to read link %s: %w", ErrIO, p, linkErr)
		}
		content = []byte(target)
	} else {
		content, err = util.ReadFile(wt.Filesystem, p)
		if err != nil {
			return fmt.Errorf("%w: failed to read %s: %w", ErrIO, p, err)
		}
	}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPathInvalid, p, err)
	}

	id, err := ix.repo.writeBlob(content)
	if err != nil {
		return err
	}

	entry, err := ix.idx.Entry(p)
	if err != nil {
		entry = ix.idx.Add(p)
	}
	entry.Hash = id
	entry.Mode = mode
	entry.Size = uint32(fi.Size()) //nolint:gosec //index stores the low 32 bits
	entry.ModifiedAt = fi.ModTime()
	entry.CreatedAt = fi.ModTime()
	ix.idx.Cache = nil

	return nil
}

// Remove drops the index entry of path.
func (ix *Index) Remove(path string) error {
	p, err := ix.repo.relPath(path)
	if err != nil {
		return err
	}

	if _, rmErr := ix.idx.Remove(p); rmErr != nil {
		if errors.Is(rmErr, index.ErrEntryNotFound) {
			return fmt.Errorf("%w: %s is not in the index", ErrPathInvalid, p)
		}
		return fmt.Errorf("%w: %w", ErrIO, rmErr)
	}
	ix.idx.Cache = nil

	return nil
}

// ResetToTree makes the entry of path match tree. When tree is nil or does
// not contain path the entry is removed.
func (ix *Index) ResetToTree(path string, tree *object.Tree) error {
	p, err := ix.repo.relPath(path)
	if err != nil {
		return err
	}

	if tree == nil {
		return ix.Remove(p)
	}

	te, err := tree.FindEntry(p)
	if err != nil || !te.Mode.IsFile() {
		return ix.Remove(p)
	}

	entry, err := ix.idx.Entry(p)
	if err != nil {
		entry = ix.idx.Add(p)
	}

	blob, err := ix.repo.repo.BlobObject(te.Hash)
	if err != nil {
		return fmt.Errorf("%w: failed to read blob %s: %w", ErrIO, te.Hash, err)
	}

	entry.Hash = te.Hash
	entry.Mode = te.Mode
	entry.Size = uint32(blob.Size) //nolint:gosec //index stores the low 32 bits
	entry.ModifiedAt = time.Time{}
	entry.CreatedAt = time.Time{}
	ix.idx.Cache = nil

	return nil
}

// Write persists the index.
func (ix *Index) Write() error {
	if err := ix.repo.repo.Storer.SetIndex(ix.idx); err != nil {
		return fmt.Errorf("%w: failed to write index: %w", ErrIO, err)
	}

	return nil
}

// stageMerged is the stage of an entry without conflicts. go-git's
// index.Merged constant shares its value with AncestorMode.
const stageMerged index.Stage = 0

type treeNode struct {
	entry    *index.Entry
	children map[string]*treeNode
}

// WriteTree stores the tree objects described by the index and returns the
// id of the root tree.
func (ix *Index) WriteTree() (plumbing.Hash, error) {
	root := &treeNode{children: map[string]*treeNode{}}

	for _, e := range ix.idx.Entries {
		if e.Stage != stageMerged {
			return plumbing.ZeroHash, fmt.Errorf("%w: %s", ErrUnmergedIndex, e.Name)
		}

		parts := strings.Split(e.Name, "/")
		node := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.children[dir]
			if !ok {
				child = &treeNode{children: map[string]*treeNode{}}
				node.children[dir] = child
			}
			node = child
		}
		node.children[parts[len(parts)-1]] = &treeNode{entry: e}
	}

	return ix.repo.writeTree(root)
}

func (r *Repository) writeTree(node *treeNode) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(node.children))
	for name, child := range node.children {
		if child.entry != nil {
			entries = append(entries, object.TreeEntry{Name: name, Mode: child.entry.Mode, Hash: child.entry.Hash})
			continue
		}

		id, err := r.writeTree(child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: id})
	}

	// git orders tree entries as if directory names ended with a slash
	slices.SortFunc(entries, func(a, b object.TreeEntry) int {
		return strings.Compare(treeSortKey(a), treeSortKey(b))
	})

	tree := &object.Tree{Entries: entries}
	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to encode tree: %w", ErrIO, err)
	}

	id, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to store tree: %w", ErrIO, err)
	}

	return id, nil
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func (r *Repository) writeBlob(content []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err = w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to write blob: %w", ErrIO, err)
	}
	if err = w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to write blob: %w", ErrIO, err)
	}

	id, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to store blob: %w", ErrIO, err)
	}

	return id, nil
}

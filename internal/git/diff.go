package git

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	contextLines  = 3
	binaryProbe   = 8000
	abbrevLength  = 7
	devNull       = "/dev/null"
	noEOFNewline  = "No newline at end of file\n"
	zeroAbbrevHex = "0000000"
)

type diffSide struct {
	content []byte
	mode    filemode.FileMode
	hash    plumbing.Hash
}

// DiffTreeToWorkdir compares the version of pathspec recorded in tree with
// the working-tree file. The line diff is minimal: the diff algorithm runs
// without a deadline. A nil tree is treated as empty. Paths unknown to both
// the tree and the index produce no output.
func (r *Repository) DiffTreeToWorkdir(tree *object.Tree, pathspec string) ([]DiffLine, error) {
	p, err := r.relPath(pathspec)
	if err != nil {
		return nil, err
	}

	from, err := r.treeSide(tree, p)
	if err != nil {
		return nil, err
	}

	to, err := r.workdirSide(p)
	if err != nil {
		return nil, err
	}

	if from == nil && to == nil {
		return nil, nil
	}

	if from == nil {
		idx, idxErr := r.Index()
		if idxErr != nil {
			return nil, idxErr
		}
		if !idx.Has(p) {
			return nil, nil
		}
	}

	if from != nil && to != nil && from.mode == to.mode && bytes.Equal(from.content, to.content) {
		return nil, nil
	}

	binary := isBinary(from) || isBinary(to)

	lines := []DiffLine{{Origin: OriginFileHeader, Content: fileHeader(p, from, to, binary)}}
	if binary {
		return append(lines, DiffLine{
			Origin:  OriginBinary,
			Content: fmt.Sprintf("Binary files %s and %s differ\n", sideName("a/", p, from), sideName("b/", p, to)),
		}), nil
	}

	ops := lineOps(diff.Do(string(contentOf(from)), string(contentOf(to))))
	return append(lines, hunks(ops)...), nil
}

func (r *Repository) treeSide(tree *object.Tree, path string) (*diffSide, error) {
	if tree == nil {
		return nil, nil
	}

	entry, err := tree.FindEntry(path)
	if err != nil || !entry.Mode.IsFile() {
		return nil, nil //nolint:nilerr //a missing entry is an added file
	}

	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob %s: %w", ErrIO, entry.Hash, err)
	}

	rd, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob %s: %w", ErrIO, entry.Hash, err)
	}
	defer rd.Close()

	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read blob %s: %w", ErrIO, entry.Hash, err)
	}

	return &diffSide{content: content, mode: entry.Mode, hash: entry.Hash}, nil
}

func (r *Repository) workdirSide(path string) (*diffSide, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	fi, err := wt.Filesystem.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIO, path, err)
	}
	if fi.IsDir() {
		return nil, nil
	}

	var content []byte
	if fi.Mode()&os.ModeSymlink != 0 {
		target, linkErr := wt.Filesystem.Readlink(path)
		if linkErr != nil {
			return nil, fmt.Errorf("%w: failed to read link %s: %w", ErrIO, path, linkErr)
		}
		content = []byte(target)
	} else if content, err = util.ReadFile(wt.Filesystem, path); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIO, path, err)
	}

	mode, err := filemode.NewFromOSFileMode(fi.Mode())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPathInvalid, path, err)
	}

	obj := &plumbing.MemoryObject{}
	obj.SetType(plumbing.BlobObject)
	if _, err = obj.Write(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return &diffSide{content: content, mode: mode, hash: obj.Hash()}, nil
}

func fileHeader(path string, from, to *diffSide, binary bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)

	switch {
	case from == nil:
		fmt.Fprintf(&b, "new file mode %s\n", modeString(to.mode))
		fmt.Fprintf(&b, "index %s..%s\n", zeroAbbrevHex, abbrev(to.hash))
	case to == nil:
		fmt.Fprintf(&b, "deleted file mode %s\n", modeString(from.mode))
		fmt.Fprintf(&b, "index %s..%s\n", abbrev(from.hash), zeroAbbrevHex)
	case from.mode != to.mode:
		fmt.Fprintf(&b, "old mode %s\nnew mode %s\n", modeString(from.mode), modeString(to.mode))
		if from.hash != to.hash {
			fmt.Fprintf(&b, "index %s..%s\n", abbrev(from.hash), abbrev(to.hash))
		}
	default:
		fmt.Fprintf(&b, "index %s..%s %s\n", abbrev(from.hash), abbrev(to.hash), modeString(to.mode))
	}

	if !binary {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", sideName("a/", path, from), sideName("b/", path, to))
	}

	return b.String()
}

type lineOp struct {
	origin byte
	text   string
}

// lineOps flattens the line-mode diff into single lines, placing the
// deletions of every changed region before its additions.
func lineOps(diffs []diffmatchpatch.Diff) []lineOp {
	var ops, dels, adds []lineOp

	flush := func() {
		ops = append(ops, dels...)
		ops = append(ops, adds...)
		dels, adds = nil, nil
	}

	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				flush()
				ops = append(ops, lineOp{origin: OriginContext, text: line})
			case diffmatchpatch.DiffDelete:
				dels = append(dels, lineOp{origin: OriginDeletion, text: line})
			case diffmatchpatch.DiffInsert:
				adds = append(adds, lineOp{origin: OriginAddition, text: line})
			}
		}
	}
	flush()

	return ops
}

// hunks groups changed lines with up to contextLines of surrounding context,
// merging groups whose context would overlap.
func hunks(ops []lineOp) []DiffLine {
	oldSeen := make([]int, len(ops)+1)
	newSeen := make([]int, len(ops)+1)
	for i, op := range ops {
		oldSeen[i+1], newSeen[i+1] = oldSeen[i], newSeen[i]
		if op.origin != OriginAddition {
			oldSeen[i+1]++
		}
		if op.origin != OriginDeletion {
			newSeen[i+1]++
		}
	}

	var lines []DiffLine
	for i := 0; i < len(ops); {
		if ops[i].origin == OriginContext {
			i++
			continue
		}

		start := max(0, i-contextLines)
		end := i
		for end < len(ops) {
			if ops[end].origin != OriginContext {
				end++
				continue
			}

			next := end
			for next < len(ops) && ops[next].origin == OriginContext {
				next++
			}
			if next == len(ops) || next-end > 2*contextLines {
				break
			}
			end = next
		}
		stop := min(len(ops), end+contextLines)

		lines = append(lines, DiffLine{
			Origin: OriginHunkHeader,
			Content: fmt.Sprintf("@@ -%s +%s @@\n",
				hunkRange(oldSeen[start], oldSeen[stop]-oldSeen[start]),
				hunkRange(newSeen[start], newSeen[stop]-newSeen[start]),
			),
		})

		for _, op := range ops[start:stop] {
			if strings.HasSuffix(op.text, "\n") {
				lines = append(lines, DiffLine{Origin: op.origin, Content: op.text})
				continue
			}
			lines = append(lines,
				DiffLine{Origin: op.origin, Content: op.text + "\n"},
				DiffLine{Origin: OriginNoEOFNewline, Content: noEOFNewline},
			)
		}

		i = stop
	}

	return lines
}

func hunkRange(before, count int) string {
	switch count {
	case 0:
		return strconv.Itoa(before) + ",0"
	case 1:
		return strconv.Itoa(before + 1)
	default:
		return strconv.Itoa(before+1) + "," + strconv.Itoa(count)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func isBinary(side *diffSide) bool {
	if side == nil {
		return false
	}

	probe := side.content[:min(len(side.content), binaryProbe)]
	return bytes.IndexByte(probe, 0) >= 0
}

func contentOf(side *diffSide) []byte {
	if side == nil {
		return nil
	}
	return side.content
}

func sideName(prefix, path string, side *diffSide) string {
	if side == nil {
		return devNull
	}
	return prefix + path
}

func modeString(mode filemode.FileMode) string {
	return fmt.Sprintf("%06o", uint32(mode))
}

func abbrev(id plumbing.Hash) string {
	return id.String()[:abbrevLength]
}

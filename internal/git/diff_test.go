package git

import (
	"strings"
	"testing"
	"time"
)

func render(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteByte(l.Origin)
		b.WriteByte(' ')
		b.WriteString(l.Content)
	}
	return b.String()
}

func headTreeDiff(t *testing.T, r *Repository, path string) []DiffLine {
	t.Helper()

	head, err := r.HeadCommit()
	if err != nil {
		t.Fatal(err)
	}
	tree, err := head.Tree()
	if err != nil {
		t.Fatal(err)
	}

	lines, err := r.DiffTreeToWorkdir(tree, path)
	if err != nil {
		t.Fatalf("DiffTreeToWorkdir failed: %v", err)
	}

	return lines
}

func TestDiffTreeToWorkdir_Modified(t *testing.T) {
	f := newFixture(t)
	f.write(t, "b.txt", "1\n2\n3\n")
	f.commit(t, "initial commit", time.Now(), "b.txt")
	f.write(t, "b.txt", "1\n2x\n3\n")

	r := f.open(t)
	lines := headTreeDiff(t, r, "b.txt")

	if len(lines) == 0 || lines[0].Origin != OriginFileHeader {
		t.Fatalf("Expected a file header first, got %v", lines)
	}
	if !strings.HasPrefix(lines[0].Content, "diff --git a/b.txt b/b.txt\n") {
		t.Errorf("Unexpected file header %q", lines[0].Content)
	}

	out := render(lines)
	del := strings.Index(out, "- 2\n")
	add := strings.Index(out, "+ 2x\n")
	if del < 0 || add < 0 || del > add {
		t.Fatalf("Expected deletion before addition, got:\n%s", out)
	}

	if !strings.Contains(out, "H @@ -1,3 +1,3 @@\n") {
		t.Errorf("Expected hunk header, got:\n%s", out)
	}
	if !strings.Contains(out, "  1\n") || !strings.Contains(out, "  3\n") {
		t.Errorf("Expected context lines, got:\n%s", out)
	}

	// Pure function of the repository state.
	if again := render(headTreeDiff(t, r, "b.txt")); again != out {
		t.Errorf("Expected identical diff on second call")
	}
}

func TestDiffTreeToWorkdir_Hunks(t *testing.T) {
	var before, after strings.Builder
	for i := range 30 {
		line := strings.Repeat("x", i+1) + "\n"
		before.WriteString(line)
		if i == 2 || i == 25 {
			after.WriteString("changed\n")
			continue
		}
		after.WriteString(line)
	}

	f := newFixture(t)
	f.write(t, "long.txt", before.String())
	f.commit(t, "initial commit", time.Now(), "long.txt")
	f.write(t, "long.txt", after.String())

	lines := headTreeDiff(t, f.open(t), "long.txt")

	var headers []string
	for _, l := range lines {
		if l.Origin == OriginHunkHeader {
			headers = append(headers, l.Content)
		}
	}

	want := []string{"@@ -1,6 +1,6 @@\n", "@@ -23,7 +23,7 @@\n"}
	if len(headers) != len(want) {
		t.Fatalf("Expected %d hunks, got %v", len(want), headers)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Errorf("Hunk %d: expected %q, got %q", i, want[i], headers[i])
		}
	}
}

func TestDiffTreeToWorkdir_NoTrailingNewline(t *testing.T) {
	f := newFixture(t)
	f.write(t, "c.txt", "a\nb")
	f.commit(t, "initial commit", time.Now(), "c.txt")
	f.write(t, "c.txt", "a\nc")

	out := render(headTreeDiff(t, f.open(t), "c.txt"))

	if !strings.Contains(out, "- b\n\\ No newline at end of file\n") {
		t.Errorf("Expected end-of-file marker after deletion, got:\n%s", out)
	}
	if !strings.Contains(out, "+ c\n\\ No newline at end of file\n") {
		t.Errorf("Expected end-of-file marker after addition, got:\n%s", out)
	}
}

func TestDiffTreeToWorkdir_DeletedAndUntracked(t *testing.T) {
	f := newFixture(t)
	f.write(t, "gone.txt", "bye\n")
	f.commit(t, "initial commit", time.Now(), "gone.txt")
	f.write(t, "untracked.txt", "new\n")

	r := f.open(t)

	if lines := headTreeDiff(t, r, "untracked.txt"); len(lines) != 0 {
		t.Errorf("Expected no diff for untracked file, got %v", lines)
	}

	if lines := headTreeDiff(t, r, "gone.txt"); len(lines) != 0 {
		t.Errorf("Expected no diff while the file is unchanged, got %v", lines)
	}

	if err := removeFile(f.dir, "gone.txt"); err != nil {
		t.Fatal(err)
	}

	out := render(headTreeDiff(t, r, "gone.txt"))
	if !strings.Contains(out, "deleted file mode 100644") || !strings.Contains(out, "+++ /dev/null") {
		t.Errorf("Expected deleted-file header, got:\n%s", out)
	}
	if !strings.Contains(out, "- bye\n") {
		t.Errorf("Expected removed line, got:\n%s", out)
	}
}

func TestDiffTreeToWorkdir_StagedNewFile(t *testing.T) {
	f := newFixture(t)
	f.write(t, "README.md", "readme\n")
	f.commit(t, "initial commit", time.Now(), "README.md")
	f.write(t, "a.txt", "hello\n")

	r := f.open(t)
	idx, err := r.Index()
	if err != nil {
		t.Fatal(err)
	}
	if err = idx.Add("a.txt"); err != nil {
		t.Fatal(err)
	}
	if err = idx.Write(); err != nil {
		t.Fatal(err)
	}

	out := render(headTreeDiff(t, r, "a.txt"))
	if !strings.Contains(out, "new file mode 100644") || !strings.Contains(out, "--- /dev/null") {
		t.Errorf("Expected new-file header, got:\n%s", out)
	}
	if !strings.Contains(out, "H @@ -0,0 +1 @@\n+ hello\n") {
		t.Errorf("Expected single-line hunk, got:\n%s", out)
	}
}

func TestDiffTreeToWorkdir_Binary(t *testing.T) {
	f := newFixture(t)
	f.write(t, "bin.dat", "a\x00b")
	f.commit(t, "initial commit", time.Now(), "bin.dat")
	f.write(t, "bin.dat", "a\x00c")

	lines := headTreeDiff(t, f.open(t), "bin.dat")
	if len(lines) != 2 || lines[1].Origin != OriginBinary {
		t.Fatalf("Expected header and binary notice, got %v", lines)
	}
	if lines[1].Content != "Binary files a/bin.dat and b/bin.dat differ\n" {
		t.Errorf("Unexpected binary notice %q", lines[1].Content)
	}
}

package completion

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
)

func TestFilesystemCandidatesListsCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	must(t, os.WriteFile(filepath.Join(dir, "main.go"), nil, 0o644))
	must(t, os.WriteFile(filepath.Join(dir, "main_test.go"), nil, 0o644))
	must(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	c := New("/home/zish")
	got := c.Candidates("cat ", 4, 4, dir)
	sort.Strings(got)
	want := []string{"main.go", "main_test.go", "sub/"}
	sort.Strings(want)
	if !equalSlices(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilesystemCandidatesFilterByPrefixAndSubdir(t *testing.T) {
	dir := t.TempDir()
	must(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))
	must(t, os.WriteFile(filepath.Join(dir, "src", "lexer.go"), nil, 0o644))
	must(t, os.WriteFile(filepath.Join(dir, "src", "parser.go"), nil, 0o644))

	c := New("/home/zish")
	got := c.Candidates("cat src/lex", 4, 11, dir)
	if !equalSlices(got, []string{"src/lexer.go"}) {
		t.Fatalf("got %v", got)
	}
}

func TestFilesystemCandidatesExpandsTilde(t *testing.T) {
	home := t.TempDir()
	must(t, os.WriteFile(filepath.Join(home, "notes.txt"), nil, 0o644))

	c := New(home)
	got := c.Candidates("cat ~/", 4, 6, t.TempDir())
	if !equalSlices(got, []string{"~/notes.txt"}) {
		t.Fatalf("got %v", got)
	}
}

func TestCandidatesSuppressesTokenPresentElsewhereOnLine(t *testing.T) {
	dir := t.TempDir()
	must(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644))
	must(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0o644))

	c := New("/home/zish")
	line := "diff a.txt "
	got := c.Candidates(line, len(line), len(line), dir)
	if !equalSlices(got, []string{"b.txt"}) {
		t.Fatalf("expected a.txt suppressed, got %v", got)
	}
}

func TestGitBranchCompletionListsLocalBranches(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run(t, dir, "git", "init", "-q")
	run(t, dir, "git", "-c", "user.email=t@t", "-c", "user.name=t", "commit", "--allow-empty", "-q", "-m", "init")
	run(t, dir, "git", "branch", "feature-x")

	c := New("/home/zish")
	line := "git checkout feat"
	got := c.Candidates(line, 13, len(line), dir)
	found := false
	for _, cand := range got {
		if cand == "feature-x" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'feature-x' among candidates, got %v", got)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%s %v: %v: %s", name, args, err, out)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

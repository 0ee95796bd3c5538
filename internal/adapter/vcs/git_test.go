package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"repoindex/internal/port"
)

func TestParsePorcelain(t *testing.T) {
	out := []byte(" M backend/app.py\n" +
		"?? frontend/new file.ts\n" +
		"R  old/name.go -> new/name.go\n" +
		"A  \"quoted\\tname.go\"\n" +
		"\n")

	got := ParsePorcelain(out)
	want := []string{
		"backend/app.py",
		"frontend/new file.ts",
		"old/name.go",
		"new/name.go",
		"quoted\tname.go",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParsePorcelain() = %q, want %q", got, want)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGitNoRepository(t *testing.T) {
	requireGit(t)

	_, err := NewGit(t.TempDir()).Head(context.Background())
	if !errors.Is(err, port.ErrNoRevision) {
		t.Errorf("expected ErrNoRevision, got %v", err)
	}
}

func TestGitHeadAndChanges(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	ctx := context.Background()
	g := NewGit(dir)

	gitCmd(t, dir, "init", "-q")
	if _, err := g.Head(ctx); !errors.Is(err, port.ErrNoRevision) {
		t.Errorf("repository without commits should have no head, got %v", err)
	}

	writeFile(t, filepath.Join(dir, "backend", "app.py"), "print(1)\n")
	writeFile(t, filepath.Join(dir, "README.md"), "hello\n")
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "-c", "commit.gpgsign=false", "commit", "-q", "-m", "first")

	first, err := g.Head(ctx)
	if err != nil || len(first) != 40 {
		t.Fatalf("unexpected head %q: %v", first, err)
	}

	writeFile(t, filepath.Join(dir, "README.md"), "hello again\n")
	gitCmd(t, dir, "-c", "commit.gpgsign=false", "commit", "-q", "-am", "second")
	second, _ := g.Head(ctx)

	changed, err := g.ChangedFiles(ctx, first, second)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	if !reflect.DeepEqual(changed, []string{"README.md"}) {
		t.Errorf("unexpected changed files: %v", changed)
	}

	writeFile(t, filepath.Join(dir, "backend", "app.py"), "print(2)\n")
	writeFile(t, filepath.Join(dir, "frontend", "main.ts"), "export {}\n")

	dirty, err := g.DirtyFiles(ctx)
	if err != nil {
		t.Fatalf("DirtyFiles failed: %v", err)
	}
	sort.Strings(dirty)
	want := []string{"backend/app.py", "frontend/main.ts"}
	if !reflect.DeepEqual(dirty, want) {
		t.Errorf("unexpected dirty files: %v, want %v", dirty, want)
	}

	sub := NewGit(filepath.Join(dir, "backend"))
	dirty, err = sub.DirtyFiles(ctx)
	if err != nil {
		t.Fatalf("DirtyFiles in subdirectory failed: %v", err)
	}
	if !reflect.DeepEqual(dirty, []string{"app.py"}) {
		t.Errorf("subdirectory paths should be relative to it, got %v", dirty)
	}
}

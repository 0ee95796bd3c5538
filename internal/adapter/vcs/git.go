package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"repoindex/internal/port"
)

// Git reads repository state by shelling out to the git binary.
// Returned paths are relative to dir with forward slashes.
type Git struct {
	dir string
	bin string
}

func NewGit(dir string) *Git {
	return &Git{dir: dir, bin: "git"}
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", g.dir}, args...)
	cmd := exec.CommandContext(ctx, g.bin, fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// Head returns the full hash of HEAD, or port.ErrNoRevision when dir is not
// inside a repository, has no commits, or git is not installed.
func (g *Git) Head(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrNoRevision, err)
	}
	head := strings.TrimSpace(string(out))
	if head == "" {
		return "", port.ErrNoRevision
	}
	return head, nil
}

// ChangedFiles lists the files that differ between two commits.
func (g *Git) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only", "--relative", from+".."+to)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range lines(out) {
		files = append(files, unquote(line))
	}
	return files, nil
}

// DirtyFiles lists modified, staged and untracked files. Renames
// contribute both the old and the new path.
func (g *Git) DirtyFiles(ctx context.Context) ([]string, error) {
	prefixOut, err := g.run(ctx, "rev-parse", "--show-prefix")
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSpace(string(prefixOut))

	out, err := g.run(ctx, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, p := range ParsePorcelain(out) {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		files = append(files, strings.TrimPrefix(p, prefix))
	}
	return files, nil
}

// ParsePorcelain extracts the paths from `git status --porcelain` output.
func ParsePorcelain(out []byte) []string {
	var files []string
	for _, line := range lines(out) {
		if len(line) < 4 {
			continue
		}
		rest := line[3:]
		if before, after, ok := strings.Cut(rest, " -> "); ok {
			files = append(files, unquote(before), unquote(after))
			continue
		}
		files = append(files, unquote(rest))
	}
	return files
}

func lines(out []byte) []string {
	var result []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

// unquote undoes git's C-style quoting of unusual file names.
func unquote(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if s, err := strconv.Unquote(p); err == nil {
			return s
		}
	}
	return p
}

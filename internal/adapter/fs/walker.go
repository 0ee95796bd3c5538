package fs

import (
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"repoindex/internal/port"
)

// Walker selects files by extension, excluded directory names, size and
// include/exclude globs.
type Walker struct {
	exts         map[string]struct{}
	excludeDirs  map[string]struct{}
	maxFileBytes int64
}

func NewWalker(exts, excludeDirs []string, maxFileBytes int64) *Walker {
	w := &Walker{
		exts:         make(map[string]struct{}, len(exts)),
		excludeDirs:  make(map[string]struct{}, len(excludeDirs)),
		maxFileBytes: maxFileBytes,
	}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.exts[ext] = struct{}{}
	}
	for _, dir := range excludeDirs {
		w.excludeDirs[dir] = struct{}{}
	}
	return w
}

// Files walks root lazily and yields eligible files. Exclude globs win over
// include globs; an empty include list selects nothing.
func (w *Walker) Files(root string, includes, excludes []string) iter.Seq[port.FileInfo] {
	return func(yield func(port.FileInfo) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			slog.Warn("cannot resolve root", "root", root, "error", err)
			return
		}

		_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() && path != absRoot {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != absRoot && w.isExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			info, ok := w.eligible(path, d)
			if !ok {
				return nil
			}

			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return nil
			}
			relPath = filepath.ToSlash(relPath)

			if !MatchAny(includes, relPath) || MatchAny(excludes, relPath) {
				return nil
			}

			if !yield(info) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// eligible applies the regular-file, extension and size rules.
func (w *Walker) eligible(path string, d fs.DirEntry) (port.FileInfo, bool) {
	if _, ok := w.exts[strings.ToLower(filepath.Ext(path))]; !ok {
		return port.FileInfo{}, false
	}

	var (
		info fs.FileInfo
		err  error
	)
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = d.Info()
	}
	if err != nil || !info.Mode().IsRegular() {
		return port.FileInfo{}, false
	}

	if info.Size() > w.maxFileBytes {
		return port.FileInfo{}, false
	}

	return port.FileInfo{
		Path:    path,
		ModTime: info.ModTime().Unix(),
		Size:    info.Size(),
	}, true
}

func (w *Walker) isExcludedDir(name string) bool {
	_, ok := w.excludeDirs[name]
	return ok
}

// MatchAny reports whether path matches at least one of the glob patterns.
// Invalid patterns never match.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

package port

import "iter"

// FileSelector enumerates eligible files under a root directory.
type FileSelector interface {
	// Files yields eligible files lazily. The sequence is recomputed on every call.
	Files(root string, includes, excludes []string) iter.Seq[FileInfo]
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

type FileReader interface {
	ReadFile(path string) (string, error)
}

package fs

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"repoindex/internal/domain"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// Reader reads source files as text.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadFile returns the file content with invalid UTF-8 sequences dropped.
// Files that cannot be read or look binary fail with domain.ErrFileUnreadable.
func (r *Reader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
	}

	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return "", fmt.Errorf("%w: %s: binary content", domain.ErrFileUnreadable, path)
	}

	return strings.ToValidUTF8(string(data), ""), nil
}

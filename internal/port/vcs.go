package port

import (
	"context"
	"errors"
)

// ErrNoRevision is returned when the current revision cannot be determined.
var ErrNoRevision = errors.New("no revision available")

// RevisionControl exposes the bits of version control state used for
// change detection. Paths are repository-relative with forward slashes.
type RevisionControl interface {
	Head(ctx context.Context) (string, error)
	ChangedFiles(ctx context.Context, from, to string) ([]string, error)
	DirtyFiles(ctx context.Context) ([]string, error)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFileUnreadable marks a per-file read failure. It is counted and skipped.
	ErrFileUnreadable = errors.New("file unreadable")

	// ErrLocked is returned when another refresh holds the index lock.
	ErrLocked = errors.New("index refresh already in progress")

	// ErrInvalidTopK is returned for k outside the accepted range.
	ErrInvalidTopK = errors.New("k must be between 1 and 20")
)

// ConfigurationError reports a missing or invalid required setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// EmbeddingServiceError covers transport failures, timeouts, non-2xx
// responses and malformed bodies from the embedding endpoint.
type EmbeddingServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *EmbeddingServiceError) Error() string {
	msg := "embedding service failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("embedding service returned status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		if e.StatusCode == 0 && e.Body == "" {
			return fmt.Sprintf("embedding service: %v", e.Err)
		}
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// VectorStoreError wraps a failure of a vector store operation.
type VectorStoreError struct {
	Op  string
	Err error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no document exists for a date key.
var ErrNotFound = errors.New("briefing not found")

// FetchError wraps any failure of a source adapter.
type FetchError struct {
	SourceID string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.SourceID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// NormalizationError reports an item that lacks a required field.
type NormalizationError struct {
	SourceID string
	Field    string
	Reason   string
}

func (e *NormalizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("normalize %s: %s: %s", e.SourceID, e.Field, e.Reason)
	}
	return fmt.Sprintf("normalize %s: missing %s", e.SourceID, e.Field)
}

// SummarizationError wraps a failure of the summarization capability.
type SummarizationError struct {
	Cause error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize: %v", e.Cause)
}

func (e *SummarizationError) Unwrap() error { return e.Cause }

// CompilationError is raised only for hard constraint violations.
type CompilationError struct {
	Reason string
}

func (e *CompilationError) Error() string {
	return "compile: " + e.Reason
}

// StorageErrorKind classifies store failures.
type StorageErrorKind string

const (
	StorageRead        StorageErrorKind = "read"
	StorageWrite       StorageErrorKind = "write"
	StorageUnsupported StorageErrorKind = "unsupported"
	StorageCorrupt     StorageErrorKind = "corrupt"
)

// StorageError wraps backend failures.
type StorageError struct {
	Kind    StorageErrorKind
	Backend string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("storage %s (%s)", e.Kind, e.Backend)
	}
	return fmt.Sprintf("storage %s (%s): %v", e.Kind, e.Backend, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// IsUnsupported reports whether err is a StorageError of kind Unsupported.
func IsUnsupported(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == StorageUnsupported
}

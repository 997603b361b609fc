// Package apperr defines the error taxonomy shared across the content pipeline.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a slug or category does not exist
	// among the resolved records.
	ErrNotFound = errors.New("not found")

	// ErrUnknownSource is returned when a request names a content source
	// that is not configured.
	ErrUnknownSource = errors.New("unknown content source")
)

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}

// ScanError reports an unreadable directory during a content scan.
// Path is the offending directory, not the scan root.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ParseError reports malformed frontmatter in a single content file.
// Whether the batch skips the file or aborts is the caller's decision.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse frontmatter %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateSlugError reports two files resolving to the same slug within
// one content root. Always surfaced loudly, never resolved by extension
// precedence.
type DuplicateSlugError struct {
	Slug   string
	First  string
	Second string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("duplicate slug %q: %s and %s", e.Slug, e.First, e.Second)
}

package coursecontent

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrContentNotFound indicates the content document does not exist
	ErrContentNotFound = errors.New("content not found")

	// ErrItemNotFound indicates no item of the expected kind at a position
	ErrItemNotFound = errors.New("content item not found")

	// ErrInvalidPosition indicates a position below 1 or one already in use
	ErrInvalidPosition = errors.New("invalid position")

	// ErrItemRequired indicates an item operation without an item payload
	ErrItemRequired = errors.New("content item is required")

	// ErrTypeMismatch indicates the declared content type or number does not
	// match the stored document
	ErrTypeMismatch = errors.New("content type mismatch")

	// ErrInvalidContentType indicates an unknown content type name
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidPath indicates a course/unit/task path with missing segments
	ErrInvalidPath = errors.New("invalid content path")

	// ErrConflict indicates the document changed between read and write
	ErrConflict = errors.New("content revision conflict")

	// ErrSystem indicates the document store failed
	ErrSystem = errors.New("content system error")
)

// ContentError represents a failed store interaction for one document.
// It matches ErrSystem as well as the underlying cause.
type ContentError struct {
	Path      string
	ContentID string
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	if e.ContentID == "" {
		return fmt.Sprintf("content operation %s failed under %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// Is reports ErrSystem for every ContentError.
func (e *ContentError) Is(target error) bool {
	return target == ErrSystem
}

// ConflictError is returned by conditional writes whose expected revision no
// longer matches the stored one.
type ConflictError struct {
	ContentID string
	Expected  int64
	Current   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("content %s: revision conflict (expected %d, current %d)", e.ContentID, e.Expected, e.Current)
}

// Is reports ErrConflict for every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// systemError wraps a store failure unless it already carries one of the
// caller-visible error kinds.
func systemError(op string, path ContentPath, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrContentNotFound) {
		return err
	}
	return &ContentError{Path: path.String(), ContentID: id, Op: op, Err: err}
}

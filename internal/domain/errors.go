package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrCapacity     = errors.New("hierarchy capacity exceeded")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found; ID names the first
	// missing resource when resolvable.
	NotFoundError struct {
		Resource string
		ID       string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// ForbiddenError indicates the actor lacks the required permission
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
func (e *ValidationError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string  { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ForbiddenError) StatusCode() int  { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ForbiddenError) Is(target error) bool  { return target == ErrForbidden }

// ConflictError represents a resource conflict with details about the
// existing resource.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Hierarchy capacity errors. All are rejected before any write (pre-check
// against current counts) and map to 400.
type (
	// TooDeepError indicates the operation would exceed the maximum tree depth
	TooDeepError struct {
		Depth, Max int
	}

	// TooManyChildrenError indicates the parent already holds the maximum
	// number of direct children
	TooManyChildrenError struct {
		Count, Max int
	}

	// TooManyDescendantsError indicates the subtree is too large for the
	// requested operation (move/copy/delete have distinct budgets)
	TooManyDescendantsError struct {
		Operation  string
		Count, Max int
	}

	// NotFolderError indicates an item that cannot hold children was used as
	// a parent
	NotFolderError struct {
		ID   string
		Type string
	}

	// InvalidMoveTargetError indicates a move into the moved subtree itself
	// or into the current parent
	InvalidMoveTargetError struct {
		ID string
	}
)

func (e *TooDeepError) Error() string {
	return fmt.Sprintf("hierarchy too deep: depth %d exceeds maximum %d", e.Depth, e.Max)
}
func (e *TooManyChildrenError) Error() string {
	return fmt.Sprintf("too many children: %d exceeds maximum %d", e.Count, e.Max)
}
func (e *TooManyDescendantsError) Error() string {
	return fmt.Sprintf("too many descendants for %s: %d exceeds maximum %d", e.Operation, e.Count, e.Max)
}
func (e *NotFolderError) Error() string {
	return fmt.Sprintf("item %s of type %q cannot hold children", e.ID, e.Type)
}
func (e *InvalidMoveTargetError) Error() string {
	return fmt.Sprintf("invalid move target for item %s", e.ID)
}

func (e *TooDeepError) StatusCode() int            { return http.StatusBadRequest }
func (e *TooManyChildrenError) StatusCode() int    { return http.StatusBadRequest }
func (e *TooManyDescendantsError) StatusCode() int { return http.StatusBadRequest }
func (e *NotFolderError) StatusCode() int          { return http.StatusBadRequest }
func (e *InvalidMoveTargetError) StatusCode() int  { return http.StatusBadRequest }

func (e *TooDeepError) Is(target error) bool            { return target == ErrCapacity }
func (e *TooManyChildrenError) Is(target error) bool    { return target == ErrCapacity }
func (e *TooManyDescendantsError) Is(target error) bool { return target == ErrCapacity }
func (e *NotFolderError) Is(target error) bool          { return target == ErrValidation }
func (e *InvalidMoveTargetError) Is(target error) bool  { return target == ErrValidation }

// OrderingError surfaces a partially applied sibling rescale. Display order
// may be corrupted; the caller must not treat the operation as succeeded.
type OrderingError struct {
	ParentPath string
	Err        error
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering corrupted at parent %s: %v", e.ParentPath, e.Err)
}
func (e *OrderingError) StatusCode() int { return http.StatusInternalServerError }
func (e *OrderingError) Unwrap() error   { return e.Err }

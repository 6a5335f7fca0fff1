// Package apperr defines the sentinel error kinds shared across NoteHub.
package apperr

import "errors"

var (
	// ErrNotFound signals that a document or index row does not resolve.
	// Callers treat it as recoverable and fall back to alternate resolution
	// (e.g. the shared-access path) before failing.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied signals a write without sufficient share permission.
	// Surfaced to the caller, never retried.
	ErrPermissionDenied = errors.New("permission denied")

	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

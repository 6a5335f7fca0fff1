// Package storage implements the per-owner document tree NoteHub manages.
package storage

import (
	"path"
	"strings"
	"time"
)

// RootFolderName is the fixed folder, under each owner's space, that holds
// managed documents. It is created on first access and nothing outside it is
// ever touched by the index.
const RootFolderName = "Notes"

// DocExt is the managed document extension.
const DocExt = ".md"

// DocInfo describes one managed document as seen by the storage backend.
type DocInfo struct {
	// ID is the storage-assigned numeric identity. It is stable across
	// renames, moves and in-place writes, and unique within the backend.
	ID uint64
	// Name is the file name including the extension.
	Name string
	// Dir is the directory path relative to the owner's document root,
	// empty for the root itself.
	Dir string
	// ModTime is the document's modification timestamp.
	ModTime time.Time
	// CTime is the creation timestamp, zero when the backend cannot
	// provide one.
	CTime time.Time
}

// Rel returns the document path relative to the owner's root.
func (d DocInfo) Rel() string {
	return path.Join(d.Dir, d.Name)
}

// Title returns the document name without the extension.
func (d DocInfo) Title() string {
	return strings.TrimSuffix(d.Name, DocExt)
}

// Provider is the hierarchical storage backend the synchronization engine
// consumes. All identity-keyed operations return apperr.ErrNotFound when the
// identity does not resolve; callers treat that as recoverable.
type Provider interface {
	// EnsureRoot creates the owner's document root if absent. This is the
	// only implicit-creation point in the system.
	EnsureRoot(owner string) error
	// Owners enumerates every owner known to the backend.
	Owners() ([]string, error)
	// List recursively enumerates every managed document under the
	// owner's root.
	List(owner string) ([]DocInfo, error)
	// ReadPath returns the text of the document at the root-relative path.
	ReadPath(owner, rel string) (string, error)
	// StatPath returns the document at the root-relative path.
	StatPath(owner, rel string) (DocInfo, error)
	// Read resolves an identity and returns the document and its text.
	Read(owner string, id uint64) (DocInfo, string, error)
	// Write replaces the document text, preserving its identity.
	Write(owner string, id uint64, text string) error
	// Create writes a new document under dir (created if needed) and
	// returns its assigned identity.
	Create(owner, dir, name, text string) (DocInfo, error)
	// Rename changes the document's file name within its directory.
	Rename(owner string, id uint64, newName string) (DocInfo, error)
	// Delete removes the document.
	Delete(owner string, id uint64) error
}

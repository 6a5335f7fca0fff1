// Package share defines the capability for resolving documents that belong
// to another owner.
package share

import "github.com/Voelzke/notehub/internal/apperr"

// Manager resolves shared access. Implementations sit on top of whatever
// sharing backend the deployment provides.
type Manager interface {
	// Resolve returns the owner actually holding fileID when user has been
	// granted access to it. apperr.ErrNotFound when no grant exists,
	// apperr.ErrPermissionDenied when a grant exists but does not cover
	// the requested access.
	Resolve(user string, fileID uint64) (owner string, err error)
	// IsShared reports whether the owner's document has outgoing grants.
	IsShared(owner string, fileID uint64) (bool, error)
}

// NopManager is the Manager for deployments without a sharing backend:
// nothing is ever shared.
type NopManager struct{}

func (NopManager) Resolve(string, uint64) (string, error) {
	return "", apperr.ErrNotFound
}

func (NopManager) IsShared(string, uint64) (bool, error) {
	return false, nil
}

var _ Manager = NopManager{}

// Package api implements the NoteHub REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

// OwnerHeader carries the acting user on every API request. A front proxy
// is expected to set it after authentication.
const OwnerHeader = "X-NoteHub-User"

type ctxKey int

const ownerKey ctxKey = 0

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerMiddleware requires the owner header and stores its value in the
// request context.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(OwnerHeader)
		if owner == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("missing "+OwnerHeader+" header"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}

// ownerFrom returns the owner stored by OwnerMiddleware.
func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey).(string)
	return owner
}

// OwnerFromRequest extracts the owner header directly, for handlers mounted
// outside the middleware chain.
func OwnerFromRequest(r *http.Request) string {
	return r.Header.Get(OwnerHeader)
}

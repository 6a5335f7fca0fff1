// Package testutil provides shared test helpers for setting up document
// stores and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notehub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary base directory with a storage.Provider and
// an initialized document root for the given owner.
func TestStore(t *testing.T, owner string) (string, storage.Provider) {
	t.Helper()
	base := t.TempDir()
	store, err := storage.NewFS(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureRoot(owner); err != nil {
		t.Fatal(err)
	}
	return base, store
}

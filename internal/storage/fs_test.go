package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Voelzke/notehub/internal/apperr"
)

func testFS(t *testing.T, owner string) (*FS, string) {
	t.Helper()
	base := t.TempDir()
	f, err := NewFS(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.EnsureRoot(owner); err != nil {
		t.Fatal(err)
	}
	return f, base
}

func TestNewFSRequiresExistingBase(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("NewFS accepted a missing base")
	}
}

func TestEnsureRootIsIdempotent(t *testing.T) {
	f, _ := testFS(t, "alice")
	if err := f.EnsureRoot("alice"); err != nil {
		t.Fatal(err)
	}

	owners, err := f.Owners()
	if err != nil {
		t.Fatal(err)
	}
	if len(owners) != 1 || owners[0] != "alice" {
		t.Errorf("Owners = %v", owners)
	}
}

func TestInvalidOwner(t *testing.T) {
	f, _ := testFS(t, "alice")
	for _, owner := range []string{"", "a/b", `a\b`} {
		if err := f.EnsureRoot(owner); err == nil {
			t.Errorf("EnsureRoot(%q) accepted", owner)
		}
	}
}

func TestListRecursesAndFilters(t *testing.T) {
	f, _ := testFS(t, "alice")
	if _, err := f.Create("alice", "", "Top.md", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Create("alice", "Projects/Deep", "Nested.md", "b"); err != nil {
		t.Fatal(err)
	}

	docs, err := f.List("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("List = %d docs, want 2", len(docs))
	}
	byName := map[string]DocInfo{}
	for _, d := range docs {
		byName[d.Name] = d
	}
	if d := byName["Top.md"]; d.Dir != "" || d.Title() != "Top" {
		t.Errorf("Top = %+v", d)
	}
	if d := byName["Nested.md"]; d.Dir != "Projects/Deep" || d.Rel() != "Projects/Deep/Nested.md" {
		t.Errorf("Nested = %+v", d)
	}
}

func TestListAbsentRoot(t *testing.T) {
	f, _ := testFS(t, "alice")
	docs, err := f.List("ghost")
	if err != nil {
		t.Fatalf("absent root must not error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("List = %v", docs)
	}
}

func TestCreateReadWriteDelete(t *testing.T) {
	f, _ := testFS(t, "alice")
	doc, err := f.Create("alice", "", "Note.md", "v1")
	if err != nil {
		t.Fatal(err)
	}

	got, text, err := f.Read("alice", doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if text != "v1" || got.Name != "Note.md" {
		t.Errorf("Read = (%+v, %q)", got, text)
	}

	if err := f.Write("alice", doc.ID, "v2"); err != nil {
		t.Fatal(err)
	}
	if text, err := f.ReadPath("alice", "Note.md"); err != nil || text != "v2" {
		t.Errorf("ReadPath = (%q, %v)", text, err)
	}

	if err := f.Delete("alice", doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Read("alice", doc.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read after delete: %v", err)
	}
}

func TestCreateExisting(t *testing.T) {
	f, _ := testFS(t, "alice")
	if _, err := f.Create("alice", "", "Dup.md", "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Create("alice", "", "Dup.md", "b"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create: %v", err)
	}
}

func TestIdentityStableAcrossWriteAndRename(t *testing.T) {
	f, _ := testFS(t, "alice")
	doc, err := f.Create("alice", "", "Stable.md", "v1")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.Write("alice", doc.ID, "v2"); err != nil {
		t.Fatal(err)
	}
	after, err := f.StatPath("alice", "Stable.md")
	if err != nil {
		t.Fatal(err)
	}
	if after.ID != doc.ID {
		t.Errorf("identity changed by write: %d != %d", after.ID, doc.ID)
	}

	renamed, err := f.Rename("alice", doc.ID, "Renamed.md")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.ID != doc.ID {
		t.Errorf("identity changed by rename: %d != %d", renamed.ID, doc.ID)
	}
	if renamed.Name != "Renamed.md" || renamed.Dir != "" {
		t.Errorf("renamed = %+v", renamed)
	}

	// The old name is gone; the identity still resolves.
	if _, err := f.StatPath("alice", "Stable.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old name still resolves: %v", err)
	}
	if _, text, err := f.Read("alice", doc.ID); err != nil || text != "v2" {
		t.Errorf("Read after rename = (%q, %v)", text, err)
	}
}

func TestResolveSurvivesExternalMove(t *testing.T) {
	f, base := testFS(t, "alice")
	doc, err := f.Create("alice", "", "Wander.md", "body")
	if err != nil {
		t.Fatal(err)
	}

	// Move the file behind the provider's back; the cached path is stale
	// and resolution must fall back to a rescan.
	root := filepath.Join(base, "alice", RootFolderName)
	if err := os.Rename(filepath.Join(root, "Wander.md"), filepath.Join(root, "Moved.md")); err != nil {
		t.Fatal(err)
	}

	got, text, err := f.Read("alice", doc.ID)
	if err != nil {
		t.Fatalf("Read after external move: %v", err)
	}
	if got.Name != "Moved.md" || text != "body" {
		t.Errorf("Read = (%+v, %q)", got, text)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	f, _ := testFS(t, "alice")
	if _, err := f.ReadPath("alice", "../secret.md"); err == nil {
		t.Error("escaping path accepted")
	}
	if _, err := f.Create("alice", "..", "escape.md", "x"); err == nil {
		t.Error("escaping create accepted")
	}
}

func TestStatPathNotFound(t *testing.T) {
	f, _ := testFS(t, "alice")
	if _, err := f.StatPath("alice", "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("StatPath: %v", err)
	}
	if _, err := f.ReadPath("alice", "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ReadPath: %v", err)
	}
}

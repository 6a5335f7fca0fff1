package index

import (
	"os"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "notehub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func taskRow(id uint64, title string) NoteRow {
	return NoteRow{
		FileID:   id,
		Title:    title,
		Type:     "task",
		Status:   "open",
		Tags:     []string{"work"},
		Modified: 1000,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
}

func TestUpsertInsertAndUpdate(t *testing.T) {
	db := testDB(t)

	if err := db.Upsert("alice", taskRow(7, "Report")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	row, ok, err := db.GetByFileID(7)
	if err != nil || !ok {
		t.Fatalf("GetByFileID: ok=%v err=%v", ok, err)
	}
	if row.Title != "Report" || row.Status != "open" {
		t.Errorf("row = %+v", row)
	}

	changed := taskRow(7, "Report")
	changed.Status = "done"
	changed.Modified = 2000
	if err := db.Upsert("alice", changed); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	n, err := db.Count("alice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Count = %d, want 1 (same identity must not duplicate)", n)
	}
	row, _, _ = db.GetByFileID(7)
	if row.Status != "done" || row.Modified != 2000 {
		t.Errorf("after update: %+v", row)
	}
}

func TestUpsertPreservesSharedFlag(t *testing.T) {
	db := testDB(t)

	if err := db.Upsert("alice", taskRow(3, "Shared task")); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSharedFlag(3, true); err != nil {
		t.Fatalf("SetSharedFlag: %v", err)
	}

	// A content re-index must not reset the externally managed flag.
	if err := db.Upsert("alice", taskRow(3, "Shared task")); err != nil {
		t.Fatal(err)
	}
	row, _, _ := db.GetByFileID(3)
	if !row.Shared {
		t.Error("shared flag lost on re-upsert")
	}
}

func TestOwnerScoping(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert("alice", taskRow(1, "A"))
	_ = db.Upsert("bob", taskRow(2, "B"))

	if err := db.DeleteAllForOwner("alice"); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.Count("alice"); n != 0 {
		t.Errorf("alice count = %d, want 0", n)
	}
	if n, _ := db.Count("bob"); n != 1 {
		t.Errorf("bob count = %d, want 1", n)
	}
}

func TestModifiedMap(t *testing.T) {
	db := testDB(t)
	a := taskRow(1, "A")
	a.Modified = 111
	b := taskRow(2, "B")
	b.Modified = 222
	_ = db.Upsert("alice", a)
	_ = db.Upsert("alice", b)

	m, err := db.ModifiedMap("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m[1].Modified != 111 || m[2].Modified != 222 {
		t.Errorf("ModifiedMap = %v", m)
	}
	if m[1].Title != "A" || m[1].Path != a.Path {
		t.Errorf("stamp for 1 = %+v, want title A path %q", m[1], a.Path)
	}
}

func TestFileIDByPath(t *testing.T) {
	db := testDB(t)
	row := taskRow(9, "Meeting")
	row.Path = "Projects"
	_ = db.Upsert("alice", row)

	id, ok, err := db.FileIDByPath("alice", "Projects", "Meeting")
	if err != nil || !ok || id != 9 {
		t.Errorf("FileIDByPath = (%d, %v, %v), want (9, true, nil)", id, ok, err)
	}

	_, ok, err = db.FileIDByPath("alice", "Projects", "Nope")
	if err != nil || ok {
		t.Errorf("missing location: ok=%v err=%v", ok, err)
	}
}

func TestDeleteByFileIDAbsentRow(t *testing.T) {
	db := testDB(t)
	if err := db.DeleteByFileID(42); err != nil {
		t.Errorf("deleting an absent row: %v", err)
	}
}

func TestTemplateFiltering(t *testing.T) {
	db := testDB(t)
	tpl := NoteRow{FileID: 1, Title: "Weekly", Type: "note", Template: true, TemplateName: "Weekly", Modified: 1}
	note := NoteRow{FileID: 2, Title: "Notes", Type: "note", Modified: 1}
	_ = db.Upsert("alice", tpl)
	_ = db.Upsert("alice", note)

	notes, err := db.ListNotes("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].FileID != 2 {
		t.Errorf("ListNotes = %+v", notes)
	}

	tpls, err := db.Templates("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 1 || tpls[0].TemplateName != "Weekly" {
		t.Errorf("Templates = %+v", tpls)
	}
}

func TestTitleMatches(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert("alice", NoteRow{FileID: 1, Title: "Shopping list", Type: "note", Modified: 1})
	_ = db.Upsert("alice", NoteRow{FileID: 2, Title: "Project 100% done", Type: "note", Modified: 1})

	rows, err := db.TitleMatches("alice", "shopping")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].FileID != 1 {
		t.Errorf("TitleMatches(shopping) = %+v", rows)
	}

	// LIKE metacharacters in the query are literal.
	rows, err = db.TitleMatches("alice", "100%")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].FileID != 2 {
		t.Errorf("TitleMatches(100%%) = %+v", rows)
	}
}

func TestPendingReminderCandidates(t *testing.T) {
	db := testDB(t)
	due := taskRow(1, "Due")
	due.Remind = "2026-01-01 09:00"
	done := taskRow(2, "Done")
	done.Status = "done"
	done.Remind = "2026-01-01 09:00"
	already := taskRow(3, "Already")
	already.Remind = "2026-01-01 09:00"
	already.Reminded = true
	noRemind := taskRow(4, "Plain")
	for _, r := range []NoteRow{due, done, already, noRemind} {
		if err := db.Upsert("alice", r); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.PendingReminderCandidates("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].FileID != 1 {
		t.Errorf("candidates = %+v", rows)
	}
}

func TestTagsRoundTrip(t *testing.T) {
	db := testDB(t)
	row := taskRow(1, "Tagged")
	row.Tags = []string{"a", "b"}
	_ = db.Upsert("alice", row)

	got, _, _ := db.GetByFileID(1)
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Errorf("Tags = %v", got.Tags)
	}

	row.Tags = nil
	_ = db.Upsert("alice", row)
	got, _, _ = db.GetByFileID(1)
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("nil tags should load as empty slice, got %#v", got.Tags)
	}
}

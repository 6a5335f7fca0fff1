package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Voelzke/notehub/internal/apperr"
	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/models"
	"github.com/Voelzke/notehub/internal/share"
	"github.com/Voelzke/notehub/internal/testutil"
)

func testService(t *testing.T, owner string) *Service {
	t.Helper()
	db := testutil.TestDB(t)
	_, store := testutil.TestStore(t, owner)
	syncer := index.NewSyncer(db, store, slog.New(slog.DiscardHandler))
	return NewService(store, db, syncer, share.NopManager{})
}

func TestCreateAndFind(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "Shopping", "", "", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title != "Shopping" || created.Type != "note" {
		t.Errorf("created = %+v", created)
	}
	if !strings.Contains(created.Content, "# Shopping") {
		t.Errorf("default body missing heading: %q", created.Content)
	}

	found, err := svc.Find(ctx, "alice", created.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Content != created.Content {
		t.Errorf("Find content = %q", found.Content)
	}
}

func TestCreateTaskGetsOpenStatus(t *testing.T) {
	svc := testService(t, "alice")
	n, err := svc.Create(context.Background(), "alice", "Chore", "body", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if n.Type != "task" || n.Status != "open" {
		t.Errorf("task = %+v", n)
	}
}

func TestCreateSanitizesAndDeduplicates(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()

	n, err := svc.Create(ctx, "alice", `a/b:c?"d"`, "x", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "abcd" {
		t.Errorf("sanitized title = %q", n.Title)
	}

	second, err := svc.Create(ctx, "alice", "abcd", "y", "", false)
	if err != nil {
		t.Fatalf("duplicate title must get a fresh name: %v", err)
	}
	if second.Title != "abcd (2)" {
		t.Errorf("second title = %q", second.Title)
	}

	empty, err := svc.Create(ctx, "alice", "???", "z", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Title != "Untitled" {
		t.Errorf("empty title = %q", empty.Title)
	}
}

func TestUpdateRenamesOnTitleChange(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", "Old", "body", "Projects", false)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, "alice", n.ID, "New", "fresh body")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != n.ID {
		t.Errorf("identity changed: %d != %d", updated.ID, n.ID)
	}
	if updated.Title != "New" || updated.Folder != "Projects" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateRemindChangeRearms(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", "Task",
		"---\ntype: task\nstatus: open\nremind: 2026-01-01 09:00\nreminded: true\n---\n\nbody", "", true)
	if err != nil {
		t.Fatal(err)
	}

	// Same remind value: reminded stays set.
	same, err := svc.Update(ctx, "alice", n.ID, "",
		"---\ntype: task\nstatus: open\nremind: 2026-01-01 09:00\nreminded: true\n---\n\nbody")
	if err != nil {
		t.Fatal(err)
	}
	if !same.Reminded {
		t.Error("reminded flag lost without a remind change")
	}

	// New remind value: the reminder is re-armed.
	rearmed, err := svc.Update(ctx, "alice", n.ID, "",
		"---\ntype: task\nstatus: open\nremind: 2026-02-01 09:00\nreminded: true\n---\n\nbody")
	if err != nil {
		t.Fatal(err)
	}
	if rearmed.Reminded {
		t.Error("reminded flag not reset after remind change")
	}
}

func TestDelete(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", "Doomed", "body", "", false)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, "alice", n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Find(ctx, "alice", n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Find after delete: %v", err)
	}
	if n, _ := svc.db.Count("alice"); n != 0 {
		t.Errorf("index row survived delete")
	}
}

func TestFindSharedFallback(t *testing.T) {
	db := testutil.TestDB(t)
	_, store := testutil.TestStore(t, "alice")
	if err := store.EnsureRoot("bob"); err != nil {
		t.Fatal(err)
	}
	syncer := index.NewSyncer(db, store, slog.New(slog.DiscardHandler))

	owned := NewService(store, db, syncer, share.NopManager{})
	n, err := owned.Create(context.Background(), "bob", "Shared note", "body", "", false)
	if err != nil {
		t.Fatal(err)
	}

	svc := NewService(store, db, syncer, grantAll{owner: "bob"})
	got, err := svc.Find(context.Background(), "alice", n.ID)
	if err != nil {
		t.Fatalf("Find via share: %v", err)
	}
	if !got.Shared || got.Title != "Shared note" {
		t.Errorf("shared note = %+v", got)
	}

	// Without a grant the original not-found surfaces.
	if _, err := owned.Find(context.Background(), "alice", n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("ungranted access: %v", err)
	}
}

// grantAll resolves every id to a fixed owner.
type grantAll struct{ owner string }

func (g grantAll) Resolve(string, uint64) (string, error) { return g.owner, nil }
func (g grantAll) IsShared(string, uint64) (bool, error)  { return true, nil }

func TestFindAllSortOrder(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()

	mk := func(title, raw string) models.Note {
		t.Helper()
		n, err := svc.Create(ctx, "alice", title, raw, "", false)
		if err != nil {
			t.Fatal(err)
		}
		return n
	}

	mk("Done", "---\ntype: task\nstatus: done\n---\n\nx")
	mk("Note", "plain")
	mk("Open", "---\ntype: task\nstatus: open\n---\n\nx")
	mk("Overdue", "---\ntype: task\nstatus: open\ndue: 2020-01-01\n---\n\nx")

	notes, err := svc.FindAll(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	want := []string{"Overdue", "Open", "Note", "Done"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

func TestFindAllTagFilterAndTemplateExclusion(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	if _, err := svc.Create(ctx, "alice", "Tagged", "---\ntags: [work]\n---\n\nx", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Plain", "x", "", false); err != nil {
		t.Fatal(err)
	}
	tpl, err := svc.Create(ctx, "alice", "Tpl", "x", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetTemplate(ctx, "alice", tpl.ID, "Weekly"); err != nil {
		t.Fatal(err)
	}

	all, err := svc.FindAll(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("FindAll = %d notes, want 2 (template hidden)", len(all))
	}

	tagged, err := svc.FindAll(ctx, "alice", "work")
	if err != nil {
		t.Fatal(err)
	}
	if len(tagged) != 1 || tagged[0].Title != "Tagged" {
		t.Errorf("tag filter = %+v", tagged)
	}
}

func TestSearchTitleAndContent(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	if _, err := svc.Create(ctx, "alice", "Grocery run", "milk and eggs", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Journal", "bought groceries today", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Unrelated", "nothing here", "", false); err != nil {
		t.Fatal(err)
	}

	results, err := svc.Search(ctx, "alice", "grocer")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("Search = %+v", results)
	}
	// Title match comes first, content match second, no duplicates.
	if results[0].Title != "Grocery run" || results[1].Title != "Journal" {
		t.Errorf("order = %q, %q", results[0].Title, results[1].Title)
	}
}

func TestToggleSetUnsetTask(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", "Note", "body", "", false)
	if err != nil {
		t.Fatal(err)
	}

	toggled, err := svc.ToggleTask(ctx, "alice", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.Type != "task" || toggled.Status != "open" {
		t.Errorf("after first toggle: %+v", toggled)
	}

	done, err := svc.ToggleTask(ctx, "alice", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != "done" {
		t.Errorf("after second toggle: %+v", done)
	}

	plain, err := svc.UnsetTask(ctx, "alice", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Type != "note" || plain.Status != "" {
		t.Errorf("after unset: %+v", plain)
	}

	task, err := svc.SetTask(ctx, "alice", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Type != "task" || task.Status != "open" {
		t.Errorf("after set: %+v", task)
	}
}

func TestTemplates(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	n, err := svc.Create(ctx, "alice", "Standup", "- yesterday\n- today {{date}}\n", "Meetings", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetTemplate(ctx, "alice", n.ID, "Standup"); err != nil {
		t.Fatal(err)
	}

	tpls, err := svc.Templates(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 1 || tpls[0].TemplateName != "Standup" {
		t.Fatalf("Templates = %+v", tpls)
	}

	note, err := svc.CreateFromTemplate(ctx, "alice", n.ID)
	if err != nil {
		t.Fatalf("CreateFromTemplate: %v", err)
	}
	today := time.Now().Format(time.DateOnly)
	if note.Title != "Standup "+today {
		t.Errorf("instantiated title = %q", note.Title)
	}
	if note.Folder != "Meetings" {
		t.Errorf("instantiated folder = %q", note.Folder)
	}
	if note.Template {
		t.Error("instantiated note still flagged as template")
	}
	if !strings.Contains(note.Content, "today "+today) {
		t.Errorf("placeholder not expanded: %q", note.Content)
	}

	back, err := svc.UnsetTemplate(ctx, "alice", n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if back.Template {
		t.Error("template flag survived unset")
	}
}

func TestTagsAndTitles(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	if _, err := svc.Create(ctx, "alice", "B note", "---\ntags: [work, home]\n---\n\nx", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "A note", "---\ntags: [work]\n---\n\nx", "", false); err != nil {
		t.Fatal(err)
	}

	tags, err := svc.Tags(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Name != "work" || tags[0].Count != 2 || tags[1].Name != "home" {
		t.Errorf("Tags = %+v", tags)
	}

	titles, err := svc.Titles(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 2 || titles[0].Title != "A note" || titles[1].Title != "B note" {
		t.Errorf("Titles = %+v", titles)
	}
}

func TestFolders(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	if _, err := svc.Create(ctx, "alice", "Root", "x", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Deep", "x", "Projects/2026", false); err != nil {
		t.Fatal(err)
	}

	folders, err := svc.Folders(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 1 || folders[0].Path != "Projects/2026" || folders[0].Name != "2026" {
		t.Errorf("Folders = %+v", folders)
	}
}

func TestBacklinks(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	target, err := svc.Create(ctx, "alice", "Target", "x", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Linker", "intro\nsee [[Target]] for details", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Silent", "no links", "", false); err != nil {
		t.Fatal(err)
	}

	links, err := svc.Backlinks(ctx, "alice", target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("Backlinks = %+v", links)
	}
	if links[0].Title != "Linker" || links[0].Line != 2 || !strings.Contains(links[0].Context, "[[Target]]") {
		t.Errorf("backlink = %+v", links[0])
	}
}

func TestRemindersLifecycle(t *testing.T) {
	svc := testService(t, "alice")
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour).Format("2006-01-02 15:04")
	future := now.Add(time.Hour).Format("2006-01-02 15:04")
	due, err := svc.Create(ctx, "alice", "Due", "---\ntype: task\nstatus: open\nremind: "+past+"\n---\n\nx", "", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "alice", "Later", "---\ntype: task\nstatus: open\nremind: "+future+"\n---\n\nx", "", true); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.FindPendingReminders(ctx, "alice", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != due.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if err := svc.MarkReminded(ctx, "alice", due.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = svc.FindPendingReminders(ctx, "alice", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after mark = %+v", pending)
	}
}

func TestParseRemindForms(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	tests := []struct {
		in      string
		pending bool
	}{
		{"2026-03-01 09:00", true},
		{"2026-03-01T09:00", true},
		{"2026-03-01", true},
		{"2026-03-01 13:00", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		at, ok := parseRemind(tt.in)
		pending := ok && !at.After(now)
		if pending != tt.pending {
			t.Errorf("parseRemind(%q): pending = %v, want %v", tt.in, pending, tt.pending)
		}
	}
}

// An owner's documents can predate the process (restored backup, files
// written by another tool), so the first index-backed query must bootstrap
// the index instead of answering from the empty table.
func TestQueriesBootstrapUnindexedOwner(t *testing.T) {
	db := testutil.TestDB(t)
	_, store := testutil.TestStore(t, "carol")
	syncer := index.NewSyncer(db, store, slog.New(slog.DiscardHandler))
	svc := NewService(store, db, syncer, share.NopManager{})

	if _, err := store.Create("carol", "", "Inbox.md", "body"); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.Count("carol"); n != 0 {
		t.Fatalf("precondition: index holds %d rows, want 0", n)
	}

	notes, err := svc.FindAll(context.Background(), "carol", "")
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Inbox" {
		t.Errorf("FindAll = %+v, want the on-disk note", notes)
	}

	titles, err := svc.Titles(context.Background(), "carol")
	if err != nil {
		t.Fatalf("Titles: %v", err)
	}
	if len(titles) != 1 || titles[0].Title != "Inbox" {
		t.Errorf("Titles = %+v, want the on-disk note", titles)
	}
}

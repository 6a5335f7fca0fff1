package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Voelzke/notehub/internal/meta"
	"github.com/Voelzke/notehub/internal/storage"
)

// Status reports whether an owner's index has been built and how many rows
// it holds.
type Status struct {
	Indexed bool `json:"indexed"`
	Count   int  `json:"count"`
}

// Result summarizes one sync pass.
type Result struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
}

// Syncer keeps the index reconciled with the document store. All three
// protocols (full, incremental, single-document) are idempotent and safe to
// re-run after partial failure; a failed pass leaves the index partially
// stale until the next periodic pass corrects it.
type Syncer struct {
	db     *DB
	store  storage.Provider
	logger *slog.Logger
}

// NewSyncer creates a Syncer over the given repository and document store.
func NewSyncer(db *DB, store storage.Provider, logger *slog.Logger) *Syncer {
	return &Syncer{db: db, store: store, logger: logger}
}

// GetStatus returns the index status for an owner.
func (s *Syncer) GetStatus(owner string) (Status, error) {
	n, err := s.db.Count(owner)
	if err != nil {
		return Status{}, err
	}
	return Status{Indexed: n > 0, Count: n}, nil
}

// EnsureSync bootstraps the index with a full sync iff it holds no rows for
// the owner. Steady-state reconciliation is the periodic driver's job.
func (s *Syncer) EnsureSync(owner string) error {
	st, err := s.GetStatus(owner)
	if err != nil {
		return err
	}
	if !st.Indexed {
		_, err = s.FullSync(owner)
	}
	return err
}

// FullSync rebuilds the owner's rows from scratch: delete all, then rescan
// the whole document tree. Other owners' rows are never touched.
func (s *Syncer) FullSync(owner string) (Result, error) {
	if err := s.db.DeleteAllForOwner(owner); err != nil {
		return Result{}, err
	}

	docs, err := s.store.List(owner)
	if err != nil {
		return Result{}, fmt.Errorf("sync: list %s: %w", owner, err)
	}

	count := 0
	for _, doc := range docs {
		row, ok := s.scanRow(owner, doc)
		if !ok {
			continue
		}
		if err := s.db.Upsert(owner, row); err != nil {
			s.logger.Warn("sync: upsert failed",
				slog.String("owner", owner),
				slog.Uint64("fileID", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		count++
	}

	s.logger.Debug("sync: full sync finished",
		slog.String("owner", owner), slog.Int("count", count))
	return Result{Total: count, Updated: count}, nil
}

// IncrementalSync reconciles the owner's rows against the current tree:
// unseen identities are inserted, rows with an older stored modified time
// or a stale location are updated, and rows whose documents vanished from
// the scan are deleted.
func (s *Syncer) IncrementalSync(owner string) (Result, error) {
	stored, err := s.db.ModifiedMap(owner)
	if err != nil {
		return Result{}, err
	}

	docs, err := s.store.List(owner)
	if err != nil {
		return Result{}, fmt.Errorf("sync: list %s: %w", owner, err)
	}

	seen := make(map[uint64]bool, len(docs))
	updated := 0

	for _, doc := range docs {
		seen[doc.ID] = true

		// A stored row whose location disagrees with the scan holds a
		// recycled identity (the old document was deleted and the backend
		// reissued its id); it must be rebuilt even when the stored modified
		// time looks current.
		st, known := stored[doc.ID]
		if known && doc.ModTime.Unix() <= st.Modified &&
			doc.Title() == st.Title && doc.Dir == st.Path {
			continue
		}
		row, ok := s.scanRow(owner, doc)
		if !ok {
			continue
		}
		if err := s.db.Upsert(owner, row); err != nil {
			s.logger.Warn("sync: upsert failed",
				slog.String("owner", owner),
				slog.Uint64("fileID", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	// Orphan rows: the document was removed or moved out of the tree.
	for id := range stored {
		if seen[id] {
			continue
		}
		if err := s.db.DeleteByFileID(id); err != nil {
			s.logger.Warn("sync: orphan delete failed",
				slog.String("owner", owner),
				slog.Uint64("fileID", id),
				slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	return Result{Total: len(docs), Updated: updated}, nil
}

// SyncDocument upserts the row for a single document from its current text.
// Unlike the bulk scans this propagates errors: callers of a direct mutation
// need to know their write did not take effect.
func (s *Syncer) SyncDocument(owner string, doc storage.DocInfo, raw string) error {
	m, _ := meta.Parse(raw)
	return s.db.Upsert(owner, s.buildRow(doc, m))
}

// DeleteFromIndex propagates a document deletion (or a move outside the
// managed tree) to the index.
func (s *Syncer) DeleteFromIndex(owner string, fileID uint64) error {
	return s.db.DeleteByFileID(fileID)
}

// DeleteByLocation resolves a document identity from its indexed location
// and deletes the row. Used by the event path, where a deletion notification
// carries only a path.
func (s *Syncer) DeleteByLocation(owner, dir, title string) error {
	id, ok, err := s.db.FileIDByPath(owner, dir, title)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.db.DeleteByFileID(id)
}

// scanRow reads and parses one document during a bulk scan. Read failures
// are logged and the document skipped so the pass keeps making progress.
func (s *Syncer) scanRow(owner string, doc storage.DocInfo) (NoteRow, bool) {
	raw, err := s.store.ReadPath(owner, doc.Rel())
	if err != nil {
		s.logger.Warn("sync: read failed",
			slog.String("owner", owner),
			slog.String("path", doc.Rel()),
			slog.String("error", err.Error()))
		return NoteRow{}, false
	}
	m, _ := meta.Parse(raw)
	return s.buildRow(doc, m), true
}

// buildRow converts parsed metadata plus document info into an index row.
// A missing start date is derived from the creation time (modification time
// when the backend has none); the derived value is computed fresh each pass
// and never written back into the document.
func (s *Syncer) buildRow(doc storage.DocInfo, m meta.Meta) NoteRow {
	start := m.Start
	if start == "" {
		t := doc.CTime
		if t.IsZero() {
			t = doc.ModTime
		}
		start = t.Format(time.DateOnly)
	}
	return NoteRow{
		FileID:       doc.ID,
		Title:        doc.Title(),
		Path:         doc.Dir,
		Type:         m.Type,
		Status:       m.Status,
		Due:          m.Due,
		Priority:     m.Priority,
		Tags:         m.Tags,
		Remind:       m.Remind,
		Reminded:     m.Reminded,
		Person:       m.Person,
		Start:        start,
		Template:     m.Template,
		TemplateName: m.TemplateName,
		Modified:     doc.ModTime.Unix(),
	}
}

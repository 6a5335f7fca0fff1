// Package noteservice coordinates storage, index and sharing into the
// note-level operations the outer surfaces expose.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Voelzke/notehub/internal/apperr"
	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/meta"
	"github.com/Voelzke/notehub/internal/models"
	"github.com/Voelzke/notehub/internal/share"
	"github.com/Voelzke/notehub/internal/storage"
)

// Service coordinates storage and index operations for one deployment.
type Service struct {
	store  storage.Provider
	db     *index.DB
	syncer *index.Syncer
	shares share.Manager
}

// NewService creates a note service. shares may be share.NopManager{} when
// no sharing backend exists.
func NewService(store storage.Provider, db *index.DB, syncer *index.Syncer, shares share.Manager) *Service {
	return &Service{store: store, db: db, syncer: syncer, shares: shares}
}

// ensureIndexed bootstraps the index for an owner first seen through a
// query. Every index-backed read calls this first, so an owner whose
// documents predate the process still gets correct results on their very
// first request.
func (s *Service) ensureIndexed(owner string) error {
	return s.syncer.EnsureSync(owner)
}

// Find reads a single note with content. When the id does not resolve in the
// user's own tree, shared access is tried before giving up.
func (s *Service) Find(_ context.Context, user string, id uint64) (models.Note, error) {
	doc, raw, err := s.store.Read(user, id)
	if err == nil {
		return s.buildNote(user, doc, raw, false)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Note{}, err
	}

	owner, shareErr := s.shares.Resolve(user, id)
	if shareErr != nil {
		// Keep the original not-found unless the share layer refused.
		if errors.Is(shareErr, apperr.ErrPermissionDenied) {
			return models.Note{}, shareErr
		}
		return models.Note{}, err
	}
	doc, raw, err = s.store.Read(owner, id)
	if err != nil {
		return models.Note{}, err
	}
	return s.buildNote(owner, doc, raw, true)
}

// Create writes a new note and indexes it. An empty content gets a heading
// derived from the title; a task additionally starts with an open status.
func (s *Service) Create(_ context.Context, owner, title, content, folder string, isTask bool) (models.Note, error) {
	name, err := s.uniqueName(owner, folder, sanitizeTitle(title))
	if err != nil {
		return models.Note{}, err
	}

	m, body := meta.Parse(content)
	if content == "" {
		body = "# " + strings.TrimSuffix(name, storage.DocExt) + "\n"
	}
	if isTask {
		m.Type = meta.TypeTask
		if m.Status == "" {
			m.Status = meta.StatusOpen
		}
	}
	raw := meta.Serialize(m, body)

	doc, err := s.store.Create(owner, folder, name, raw)
	if err != nil {
		return models.Note{}, err
	}
	if err := s.syncer.SyncDocument(owner, doc, raw); err != nil {
		return models.Note{}, err
	}
	return s.buildNote(owner, doc, raw, false)
}

// Update replaces a note's content and, when the title changed, renames the
// underlying document. Changing the remind moment re-arms the reminder.
func (s *Service) Update(_ context.Context, owner string, id uint64, title, content string) (models.Note, error) {
	doc, existing, err := s.store.Read(owner, id)
	if err != nil {
		return models.Note{}, err
	}

	oldMeta, _ := meta.Parse(existing)
	m, body := meta.Parse(content)
	if m.Remind != oldMeta.Remind {
		m.Reminded = false
	}
	raw := meta.Serialize(m, body)

	if err := s.store.Write(owner, id, raw); err != nil {
		return models.Note{}, err
	}

	if title != "" && title != doc.Title() {
		name, err := s.uniqueName(owner, doc.Dir, sanitizeTitle(title))
		if err != nil {
			return models.Note{}, err
		}
		doc, err = s.store.Rename(owner, id, name)
		if err != nil {
			return models.Note{}, err
		}
	} else {
		doc, err = s.store.StatPath(owner, doc.Rel())
		if err != nil {
			return models.Note{}, err
		}
	}

	if err := s.syncer.SyncDocument(owner, doc, raw); err != nil {
		return models.Note{}, err
	}
	return s.buildNote(owner, doc, raw, false)
}

// Delete removes a note from storage and index.
func (s *Service) Delete(_ context.Context, owner string, id uint64) error {
	if err := s.store.Delete(owner, id); err != nil {
		return err
	}
	return s.syncer.DeleteFromIndex(owner, id)
}

// buildNote constructs the full representation from a freshly read document.
func (s *Service) buildNote(owner string, doc storage.DocInfo, raw string, viaShare bool) (models.Note, error) {
	row, ok, err := s.db.GetByFileID(doc.ID)
	if err != nil {
		return models.Note{}, err
	}
	if !ok {
		// Not indexed yet.
		if err := s.syncer.SyncDocument(owner, doc, raw); err == nil {
			row, _, _ = s.db.GetByFileID(doc.ID)
		}
	}
	n := rowToNote(row)
	n.ID = doc.ID
	n.Title = doc.Title()
	n.Folder = doc.Dir
	n.Content = raw
	if viaShare {
		n.Shared = true
	}
	return n, nil
}

// rewrite reads a note, lets mutate adjust its metadata, and writes the
// result back through storage and index.
func (s *Service) rewrite(owner string, id uint64, mutate func(*meta.Meta)) (models.Note, error) {
	doc, raw, err := s.store.Read(owner, id)
	if err != nil {
		return models.Note{}, err
	}
	m, body := meta.Parse(raw)
	mutate(&m)
	out := meta.Serialize(m, body)

	if err := s.store.Write(owner, id, out); err != nil {
		return models.Note{}, err
	}
	doc, err = s.store.StatPath(owner, doc.Rel())
	if err != nil {
		return models.Note{}, err
	}
	if err := s.syncer.SyncDocument(owner, doc, out); err != nil {
		return models.Note{}, err
	}
	return s.buildNote(owner, doc, out, false)
}

// uniqueName turns a title into a file name that does not collide with an
// existing document in the folder, appending " (2)", " (3)", ... as needed.
func (s *Service) uniqueName(owner, folder, title string) (string, error) {
	for i := 1; ; i++ {
		name := title
		if i > 1 {
			name = fmt.Sprintf("%s (%d)", title, i)
		}
		name += storage.DocExt
		rel := name
		if folder != "" {
			rel = folder + "/" + name
		}
		_, err := s.store.StatPath(owner, rel)
		if errors.Is(err, apperr.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// sanitizeTitle strips characters that are unsafe in file names.
func sanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '*', '|', '/', '\\', ':', '"', '<', '>', '?':
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "Untitled"
	}
	return cleaned
}

// rowToNote maps an index row to the API representation, without content.
func rowToNote(r index.NoteRow) models.Note {
	return models.Note{
		ID:           r.FileID,
		Title:        r.Title,
		Folder:       r.Path,
		Modified:     r.Modified,
		Type:         r.Type,
		Status:       r.Status,
		Due:          r.Due,
		Priority:     r.Priority,
		Tags:         nonNilSlice(r.Tags),
		Remind:       r.Remind,
		Person:       r.Person,
		Start:        r.Start,
		Reminded:     r.Reminded,
		Template:     r.Template,
		TemplateName: r.TemplateName,
		Shared:       r.Shared,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

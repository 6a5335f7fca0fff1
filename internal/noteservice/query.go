package noteservice

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/meta"
	"github.com/Voelzke/notehub/internal/models"
	"github.com/Voelzke/notehub/internal/storage"
)

// FindAll lists the owner's notes and tasks, templates excluded, optionally
// filtered by tag. The order puts actionable work first: overdue open tasks,
// then open tasks, then notes, then done tasks, newest first within each
// group.
func (s *Service) FindAll(_ context.Context, owner, tag string) ([]models.Note, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.ListNotes(owner)
	if err != nil {
		return nil, err
	}

	notes := make([]models.Note, 0, len(rows))
	for _, r := range rows {
		if tag != "" && !slices.Contains(r.Tags, tag) {
			continue
		}
		notes = append(notes, rowToNote(r))
	}

	today := time.Now().Format(time.DateOnly)
	sort.SliceStable(notes, func(i, j int) bool {
		wi, wj := sortWeight(notes[i], today), sortWeight(notes[j], today)
		if wi != wj {
			return wi < wj
		}
		return notes[i].Modified > notes[j].Modified
	})
	return notes, nil
}

// sortWeight buckets a note for list ordering. Lower sorts earlier.
func sortWeight(n models.Note, today string) int {
	switch {
	case n.Type == meta.TypeTask && n.Status == meta.StatusDone:
		return 3
	case n.Type == meta.TypeTask:
		if n.Due != "" && n.Due < today {
			return 0
		}
		return 1
	default:
		return 2
	}
}

// Search matches the query against titles via the index and against document
// content via a scan, skipping documents already matched by title. Templates
// never appear in results.
func (s *Service) Search(_ context.Context, owner, query string) ([]models.Note, error) {
	if query == "" {
		return []models.Note{}, nil
	}
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}

	titleRows, err := s.db.TitleMatches(owner, query)
	if err != nil {
		return nil, err
	}
	results := make([]models.Note, 0, len(titleRows))
	matched := make(map[uint64]bool, len(titleRows))
	for _, r := range titleRows {
		results = append(results, rowToNote(r))
		matched[r.FileID] = true
	}

	rows, err := s.db.ListNotes(owner)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	for _, r := range rows {
		if matched[r.FileID] {
			continue
		}
		rel := r.Title + storage.DocExt
		if r.Path != "" {
			rel = r.Path + "/" + rel
		}
		text, err := s.store.ReadPath(owner, rel)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(text), needle) {
			results = append(results, rowToNote(r))
		}
	}
	return results, nil
}

// Tags returns the owner's tags with usage counts, most used first, ties
// alphabetical.
func (s *Service) Tags(_ context.Context, owner string) ([]models.TagCount, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.ListNotes(owner)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range rows {
		for _, tag := range r.Tags {
			counts[tag]++
		}
	}
	out := make([]models.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Titles returns id/title pairs for link autocompletion, alphabetical.
func (s *Service) Titles(_ context.Context, owner string) ([]models.TitleEntry, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.ListNotes(owner)
	if err != nil {
		return nil, err
	}
	out := make([]models.TitleEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TitleEntry{ID: r.FileID, Title: r.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Folders returns the distinct folders holding the owner's notes,
// alphabetical, root excluded.
func (s *Service) Folders(_ context.Context, owner string) ([]models.FolderEntry, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.ListByOwner(owner)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []models.FolderEntry
	for _, r := range rows {
		if r.Path == "" || seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		name := r.Path
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		out = append(out, models.FolderEntry{Name: name, Path: r.Path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if out == nil {
		out = []models.FolderEntry{}
	}
	return out, nil
}

// backlinkContextMax caps the context snippet around a link occurrence.
const backlinkContextMax = 150

// Backlinks scans the owner's documents for [[wikilinks]] to the given note
// and returns each occurrence with its line and surrounding text.
func (s *Service) Backlinks(_ context.Context, owner string, id uint64) ([]models.Backlink, error) {
	target, _, err := s.store.Read(owner, id)
	if err != nil {
		return nil, err
	}
	needle := "[[" + target.Title() + "]]"

	docs, err := s.store.List(owner)
	if err != nil {
		return nil, err
	}

	out := []models.Backlink{}
	for _, doc := range docs {
		if doc.ID == id {
			continue
		}
		text, err := s.store.ReadPath(owner, doc.Rel())
		if err != nil {
			continue
		}
		if !strings.Contains(text, needle) {
			continue
		}
		for lineNo, line := range strings.Split(text, "\n") {
			if !strings.Contains(line, needle) {
				continue
			}
			ctx := strings.TrimSpace(line)
			if len(ctx) > backlinkContextMax {
				ctx = ctx[:backlinkContextMax]
			}
			out = append(out, models.Backlink{
				NoteID:  doc.ID,
				Title:   doc.Title(),
				Line:    lineNo + 1,
				Context: ctx,
			})
		}
	}
	return out, nil
}

// Status reports whether the owner's index is built.
func (s *Service) Status(_ context.Context, owner string) (index.Status, error) {
	return s.syncer.GetStatus(owner)
}

// Sync runs a full rebuild of the owner's index.
func (s *Service) Sync(_ context.Context, owner string) (index.Result, error) {
	return s.syncer.FullSync(owner)
}

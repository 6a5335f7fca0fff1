package noteservice

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Voelzke/notehub/internal/meta"
	"github.com/Voelzke/notehub/internal/models"
)

// ToggleTask flips a task between open and done. Toggling a plain note turns
// it into an open task first, matching the editor's checkbox behavior.
func (s *Service) ToggleTask(_ context.Context, owner string, id uint64) (models.Note, error) {
	return s.rewrite(owner, id, func(m *meta.Meta) {
		if m.Type != meta.TypeTask {
			m.Type = meta.TypeTask
			m.Status = meta.StatusOpen
			return
		}
		if m.Status == meta.StatusDone {
			m.Status = meta.StatusOpen
		} else {
			m.Status = meta.StatusDone
		}
	})
}

// SetTask converts a note into an open task, keeping any task fields it
// already carries.
func (s *Service) SetTask(_ context.Context, owner string, id uint64) (models.Note, error) {
	return s.rewrite(owner, id, func(m *meta.Meta) {
		m.Type = meta.TypeTask
		if m.Status == "" {
			m.Status = meta.StatusOpen
		}
	})
}

// UnsetTask converts a task back into a plain note, clearing task state.
func (s *Service) UnsetTask(_ context.Context, owner string, id uint64) (models.Note, error) {
	return s.rewrite(owner, id, func(m *meta.Meta) {
		m.Type = meta.TypeNote
		m.Status = ""
		m.Due = ""
		m.Priority = 0
		m.Remind = ""
		m.Reminded = false
	})
}

// Templates lists the owner's note templates, alphabetical by name.
func (s *Service) Templates(_ context.Context, owner string) ([]models.TemplateInfo, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.Templates(owner)
	if err != nil {
		return nil, err
	}
	out := make([]models.TemplateInfo, 0, len(rows))
	for _, r := range rows {
		name := r.TemplateName
		if name == "" {
			name = r.Title
		}
		out = append(out, models.TemplateInfo{ID: r.FileID, TemplateName: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateName < out[j].TemplateName })
	return out, nil
}

// SetTemplate marks a note as a template under the given name. Templates are
// hidden from listings and search until unset.
func (s *Service) SetTemplate(_ context.Context, owner string, id uint64, name string) (models.Note, error) {
	return s.rewrite(owner, id, func(m *meta.Meta) {
		m.Template = true
		m.TemplateName = name
	})
}

// UnsetTemplate turns a template back into a regular note.
func (s *Service) UnsetTemplate(_ context.Context, owner string, id uint64) (models.Note, error) {
	return s.rewrite(owner, id, func(m *meta.Meta) {
		m.Template = false
		m.TemplateName = ""
	})
}

// CreateFromTemplate instantiates a template into a new note named after the
// template and today's date. The placeholders {{date}}, {{time}} and
// {{datetime}} in the template body are substituted at creation time.
func (s *Service) CreateFromTemplate(ctx context.Context, owner string, templateID uint64) (models.Note, error) {
	doc, raw, err := s.store.Read(owner, templateID)
	if err != nil {
		return models.Note{}, err
	}
	m, body := meta.Parse(raw)

	name := m.TemplateName
	if name == "" {
		name = doc.Title()
	}
	now := time.Now()
	title := name + " " + now.Format(time.DateOnly)

	body = expandPlaceholders(body, now)
	m.Template = false
	m.TemplateName = ""

	return s.Create(ctx, owner, title, meta.Serialize(m, body), doc.Dir, m.Type == meta.TypeTask)
}

func expandPlaceholders(body string, now time.Time) string {
	r := strings.NewReplacer(
		"{{date}}", now.Format(time.DateOnly),
		"{{time}}", now.Format("15:04"),
		"{{datetime}}", now.Format("2006-01-02 15:04"),
	)
	return r.Replace(body)
}

// FindPendingReminders returns open tasks whose remind moment has passed and
// that have not been reminded yet.
func (s *Service) FindPendingReminders(_ context.Context, owner string, now time.Time) ([]models.Note, error) {
	if err := s.ensureIndexed(owner); err != nil {
		return nil, err
	}
	rows, err := s.db.PendingReminderCandidates(owner)
	if err != nil {
		return nil, err
	}
	out := []models.Note{}
	for _, r := range rows {
		at, ok := parseRemind(r.Remind)
		if !ok || at.After(now) {
			continue
		}
		out = append(out, rowToNote(r))
	}
	return out, nil
}

// MarkReminded records that a reminder was delivered, so it never fires
// twice for the same remind value.
func (s *Service) MarkReminded(_ context.Context, owner string, id uint64) error {
	_, err := s.rewrite(owner, id, func(m *meta.Meta) {
		m.Reminded = true
	})
	return err
}

// parseRemind normalizes a remind value to a local timestamp. A date-only
// value means the start of that day; a "T" separator is accepted.
func parseRemind(v string) (time.Time, bool) {
	v = strings.Replace(v, "T", " ", 1)
	if len(v) == len(time.DateOnly) {
		v += " 00:00"
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", v, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

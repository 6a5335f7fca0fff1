package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// NoteRow is the denormalized mirror of one document's metadata. FileID is
// unique across all rows; user_id scopes multi-row operations.
type NoteRow struct {
	FileID       uint64
	Title        string
	Path         string // folder path relative to the owner root, "" for root
	Type         string
	Status       string
	Due          string
	Priority     int
	Tags         []string
	Remind       string
	Reminded     bool
	Person       string
	Start        string
	Template     bool
	TemplateName string
	Shared       bool
	Modified     int64
}

const rowColumns = `file_id, title, path, type, status, due, priority, tags,
	remind, reminded, person, start, template, template_name, shared, modified`

// Count returns the number of index rows for an owner.
func (db *DB) Count(owner string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes WHERE user_id = ?`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// ListByOwner returns every row for an owner, templates included.
func (db *DB) ListByOwner(owner string) ([]NoteRow, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM notes WHERE user_id = ?`, owner)
}

// ListNotes returns the owner's non-template rows.
func (db *DB) ListNotes(owner string) ([]NoteRow, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM notes WHERE user_id = ? AND template = 0`, owner)
}

// Templates returns the owner's template rows.
func (db *DB) Templates(owner string) ([]NoteRow, error) {
	return db.queryRows(`SELECT `+rowColumns+` FROM notes WHERE user_id = ? AND template = 1`, owner)
}

// TitleMatches returns non-template rows whose title contains the query,
// case-insensitively.
func (db *DB) TitleMatches(owner, query string) ([]NoteRow, error) {
	like := "%" + escapeLike(query) + "%"
	return db.queryRows(
		`SELECT `+rowColumns+` FROM notes
		 WHERE user_id = ? AND template = 0 AND title LIKE ? ESCAPE '\'`,
		owner, like)
}

// PendingReminderCandidates returns open, non-template tasks with a remind
// value that have not been reminded yet. Whether the remind moment has
// actually passed is decided by the caller.
func (db *DB) PendingReminderCandidates(owner string) ([]NoteRow, error) {
	return db.queryRows(
		`SELECT `+rowColumns+` FROM notes
		 WHERE user_id = ? AND type = 'task' AND status = 'open'
		   AND template = 0 AND reminded = 0 AND remind != ''`,
		owner)
}

// GetByFileID returns the row for a document identity.
func (db *DB) GetByFileID(fileID uint64) (NoteRow, bool, error) {
	rows, err := db.queryRows(`SELECT `+rowColumns+` FROM notes WHERE file_id = ?`, fileID)
	if err != nil {
		return NoteRow{}, false, err
	}
	if len(rows) == 0 {
		return NoteRow{}, false, nil
	}
	return rows[0], true, nil
}

// FileIDByPath resolves a document identity from its indexed location.
func (db *DB) FileIDByPath(owner, dir, title string) (uint64, bool, error) {
	var id uint64
	err := db.conn.QueryRow(
		`SELECT file_id FROM notes WHERE user_id = ? AND path = ? AND title = ?`,
		owner, dir, title).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("index: file id by path: %w", err)
	}
	return id, true, nil
}

// RowStamp is the minimal stored state needed to decide whether a scanned
// document is current: its freshness plus its indexed location. The location
// matters because file identities can be recycled by the backend after a
// delete; a stamp whose title or path disagrees with the scan marks a row
// that must be rebuilt regardless of timestamps.
type RowStamp struct {
	Modified int64
	Title    string
	Path     string
}

// ModifiedMap returns the owner's file_id → stamp mapping.
func (db *DB) ModifiedMap(owner string) (map[uint64]RowStamp, error) {
	rows, err := db.conn.Query(`SELECT file_id, modified, title, path FROM notes WHERE user_id = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("index: modified map: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64]RowStamp)
	for rows.Next() {
		var id uint64
		var st RowStamp
		if err := rows.Scan(&id, &st.Modified, &st.Title, &st.Path); err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, rows.Err()
}

// Upsert inserts the row, or fully updates the existing row with the same
// file_id. The shared flag is owned by SetSharedFlag and survives updates.
func (db *DB) Upsert(owner string, r NoteRow) error {
	tagsJSON, _ := json.Marshal(nonNil(r.Tags))
	_, err := db.conn.Exec(`
		INSERT INTO notes (user_id, file_id, title, path, type, status, due,
			priority, tags, remind, reminded, person, start, template,
			template_name, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			title         = excluded.title,
			path          = excluded.path,
			type          = excluded.type,
			status        = excluded.status,
			due           = excluded.due,
			priority      = excluded.priority,
			tags          = excluded.tags,
			remind        = excluded.remind,
			reminded      = excluded.reminded,
			person        = excluded.person,
			start         = excluded.start,
			template      = excluded.template,
			template_name = excluded.template_name,
			modified      = excluded.modified
	`, owner, r.FileID, r.Title, r.Path, r.Type, r.Status, r.Due,
		r.Priority, string(tagsJSON), r.Remind, r.Reminded, r.Person, r.Start,
		r.Template, r.TemplateName, r.Modified)
	if err != nil {
		return fmt.Errorf("index: upsert: %w", err)
	}
	return nil
}

// DeleteByFileID removes the row for a document identity. Deleting an absent
// row is not an error.
func (db *DB) DeleteByFileID(fileID uint64) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("index: delete %d: %w", fileID, err)
	}
	return nil
}

// DeleteAllForOwner removes every row for an owner.
func (db *DB) DeleteAllForOwner(owner string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE user_id = ?`, owner); err != nil {
		return fmt.Errorf("index: delete all for %s: %w", owner, err)
	}
	return nil
}

// SetSharedFlag records the share state of a document for index queries.
func (db *DB) SetSharedFlag(fileID uint64, shared bool) error {
	if _, err := db.conn.Exec(`UPDATE notes SET shared = ? WHERE file_id = ?`, shared, fileID); err != nil {
		return fmt.Errorf("index: set shared flag: %w", err)
	}
	return nil
}

func (db *DB) queryRows(query string, args ...any) ([]NoteRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query rows: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var r NoteRow
		var tagsJSON string
		err := rows.Scan(&r.FileID, &r.Title, &r.Path, &r.Type, &r.Status,
			&r.Due, &r.Priority, &tagsJSON, &r.Remind, &r.Reminded, &r.Person,
			&r.Start, &r.Template, &r.TemplateName, &r.Shared, &r.Modified)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil || r.Tags == nil {
			r.Tags = []string{}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

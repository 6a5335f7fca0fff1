// Package models defines the domain types for NoteHub.
package models

// Note is the API-facing representation of one managed document. Content is
// only populated by single-note reads; list operations serve everything else
// straight from the index.
type Note struct {
	ID           uint64   `json:"id"`
	Title        string   `json:"title"`
	Folder       string   `json:"folder"`
	Modified     int64    `json:"modified"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Due          string   `json:"due"`
	Priority     int      `json:"priority"`
	Tags         []string `json:"tags"`
	Remind       string   `json:"remind"`
	Person       string   `json:"person"`
	Start        string   `json:"start"`
	Reminded     bool     `json:"reminded"`
	Template     bool     `json:"template"`
	TemplateName string   `json:"template_name"`
	Shared       bool     `json:"shared"`
	Content      string   `json:"content,omitempty"`
}

// TagCount is one entry of the tag overview.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TitleEntry is a minimal id/title pair used for link autocompletion.
type TitleEntry struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// TemplateInfo identifies one note template.
type TemplateInfo struct {
	ID           uint64 `json:"id"`
	TemplateName string `json:"template_name"`
}

// Backlink is one occurrence of a [[wikilink]] to a note.
type Backlink struct {
	NoteID  uint64 `json:"noteId"`
	Title   string `json:"title"`
	Line    int    `json:"line"`
	Context string `json:"context"`
}

// FolderEntry is one folder in the owner's document tree.
type FolderEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

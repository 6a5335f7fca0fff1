package api

import "github.com/Voelzke/notehub/internal/models"

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Folder  string `json:"folder"`
	IsTask  bool   `json:"is_task"`
}

// UpdateNoteRequest is the request body for updating a note. An empty title
// keeps the current one.
type UpdateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SetTemplateRequest names a note as a template.
type SetTemplateRequest struct {
	TemplateName string `json:"template_name"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Note `json:"results"`
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Voelzke/notehub/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// SSE resolves the owner itself, outside OwnerMiddleware.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(OwnerMiddleware)

		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		r.Post("/notes/{id}/toggle", h.ToggleTask)
		r.Post("/notes/{id}/task", h.SetTask)
		r.Delete("/notes/{id}/task", h.UnsetTask)

		r.Get("/notes/{id}/backlinks", h.Backlinks)

		r.Get("/templates", h.ListTemplates)
		r.Post("/templates/{id}", h.CreateFromTemplate)
		r.Post("/notes/{id}/template", h.SetTemplate)
		r.Delete("/notes/{id}/template", h.UnsetTemplate)

		r.Get("/tags", h.Tags)
		r.Get("/titles", h.Titles)
		r.Get("/folders", h.Folders)
		r.Get("/search", h.Search)
		r.Get("/reminders", h.Reminders)

		r.Get("/status", h.Status)
		r.Post("/sync", h.Sync)
	})

	return r
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Voelzke/notehub/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID parses the {id} URL parameter.
func noteID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.FindAll(r.Context(), ownerFrom(r), r.URL.Query().Get("tag"))
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.Find(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	note, err := h.svc.Create(r.Context(), ownerFrom(r), req.Title, req.Content, req.Folder, req.IsTask)
	if err != nil {
		writeServiceError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.Update(r.Context(), ownerFrom(r), id, req.Title, req.Content)
	if err != nil {
		writeServiceError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	if err := h.svc.Delete(r.Context(), ownerFrom(r), id); err != nil {
		writeServiceError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutation is the shape shared by the task and template toggles.
type mutation func(*http.Request, uint64) (any, error)

func (h *Handler) mutate(op string, fn mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := noteID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
			return
		}
		out, err := fn(r, id)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ToggleTask handles POST /notes/{id}/toggle.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	h.mutate("toggle task", func(r *http.Request, id uint64) (any, error) {
		return h.svc.ToggleTask(r.Context(), ownerFrom(r), id)
	})(w, r)
}

// SetTask handles POST /notes/{id}/task.
func (h *Handler) SetTask(w http.ResponseWriter, r *http.Request) {
	h.mutate("set task", func(r *http.Request, id uint64) (any, error) {
		return h.svc.SetTask(r.Context(), ownerFrom(r), id)
	})(w, r)
}

// UnsetTask handles DELETE /notes/{id}/task.
func (h *Handler) UnsetTask(w http.ResponseWriter, r *http.Request) {
	h.mutate("unset task", func(r *http.Request, id uint64) (any, error) {
		return h.svc.UnsetTask(r.Context(), ownerFrom(r), id)
	})(w, r)
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.svc.Templates(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": tpls})
}

// SetTemplate handles POST /notes/{id}/template.
func (h *Handler) SetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req SetTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.TemplateName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("template_name is required"))
		return
	}
	note, err := h.svc.SetTemplate(r.Context(), ownerFrom(r), id, req.TemplateName)
	if err != nil {
		writeServiceError(w, "set template", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UnsetTemplate handles DELETE /notes/{id}/template.
func (h *Handler) UnsetTemplate(w http.ResponseWriter, r *http.Request) {
	h.mutate("unset template", func(r *http.Request, id uint64) (any, error) {
		return h.svc.UnsetTemplate(r.Context(), ownerFrom(r), id)
	})(w, r)
}

// CreateFromTemplate handles POST /templates/{id}.
func (h *Handler) CreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid template id"))
		return
	}
	note, err := h.svc.CreateFromTemplate(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeServiceError(w, "create from template", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Tags handles GET /tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Titles handles GET /titles.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	titles, err := h.svc.Titles(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "titles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"titles": titles})
}

// Folders handles GET /folders.
func (h *Handler) Folders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.svc.Folders(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "folders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), ownerFrom(r), q)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Backlinks handles GET /notes/{id}/backlinks.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), ownerFrom(r), id)
	if err != nil {
		writeServiceError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": links})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Sync handles POST /sync: a full index rebuild for the owner.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.svc.Sync(r.Context(), ownerFrom(r))
	if err != nil {
		writeServiceError(w, "sync", err)
		return
	}
	slog.Info("full sync via api",
		slog.String("owner", ownerFrom(r)),
		slog.Int("total", res.Total),
		slog.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, res)
}

// Reminders handles GET /reminders: tasks whose remind moment has passed.
func (h *Handler) Reminders(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.FindPendingReminders(r.Context(), ownerFrom(r), time.Now())
	if err != nil {
		writeServiceError(w, "reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": pending})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/engine"
)

// ViewHandler serves view discovery, rendering, and sync.
type ViewHandler struct {
	engine *engine.Engine
	log    *zap.Logger
}

func NewViewHandler(eng *engine.Engine, log *zap.Logger) *ViewHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewHandler{engine: eng, log: log}
}

// ListViews returns every parseable view document.
func (h *ViewHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.DiscoverViews(r.Context())
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"views": docs})
}

// GetView returns one view's definition and components. Absent ids are a
// 404; stored but unparseable views are a 422.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.engine.GetView(r.Context(), id)
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "view "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// RenderRequest is the body for render and the base of sync.
type RenderRequest struct {
	EntityURL string         `json:"entity_url"`
	Filters   map[string]any `json:"filters,omitempty"`
}

// RenderView renders a view for a context entity.
func (h *ViewHandler) RenderView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RenderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.EntityURL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ENTITY_URL", "entity_url is required")
		return
	}

	result, err := h.engine.Render(r.Context(), id, engine.ViewContext{
		EntityURL: req.EntityURL,
		Filters:   req.Filters,
	})
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncRequest is the body for sync: the render context plus the edited
// markdown.
type SyncRequest struct {
	RenderRequest
	Markdown string `json:"markdown"`
}

// SyncResponse is the sync result, with Applied set when ?apply=true
// persisted the changes.
type SyncResponse struct {
	*engine.SyncResult
	Applied bool `json:"applied"`
}

// SyncView diffs edited markdown against the view's reference render.
// With ?apply=true the resulting entities are created and mutations
// applied before returning.
func (h *ViewHandler) SyncView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.EntityURL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ENTITY_URL", "entity_url is required")
		return
	}

	result, err := h.engine.Sync(r.Context(), id, engine.ViewContext{
		EntityURL: req.EntityURL,
		Filters:   req.Filters,
	}, req.Markdown)
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}

	resp := SyncResponse{SyncResult: result}
	if r.URL.Query().Get("apply") == "true" {
		if _, err := h.engine.CreateEntities(r.Context(), result.Created); err != nil {
			engineErrorToHTTP(w, h.log, err)
			return
		}
		if err := h.engine.ApplyMutations(r.Context(), result.Mutations); err != nil {
			engineErrorToHTTP(w, h.log, err)
			return
		}
		resp.Applied = true
	}
	writeJSON(w, http.StatusOK, resp)
}

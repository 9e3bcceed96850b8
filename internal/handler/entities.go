package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/engine"
	"github.com/matthewbaird/tapestry/internal/graph"
)

// EntityHandler serves entity fetch/create, mutation application, and
// relationship inference.
type EntityHandler struct {
	engine *engine.Engine
	store  graph.Store
	log    *zap.Logger
}

func NewEntityHandler(eng *engine.Engine, store graph.Store, log *zap.Logger) *EntityHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntityHandler{engine: eng, store: store, log: log}
}

// GetEntity fetches one entity by type and id.
func (h *EntityHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")

	url := graph.CanonicalURL(h.engine.Origin(), entityType, id)
	entity, err := h.store.Get(r.Context(), url)
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	if entity == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "entity "+url+" not found")
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

// CreateEntitiesRequest is the body for entity creation.
type CreateEntitiesRequest struct {
	Entities []graph.Entity `json:"entities"`
}

// CreateEntities stores a batch of new entities.
func (h *EntityHandler) CreateEntities(w http.ResponseWriter, r *http.Request) {
	var req CreateEntitiesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	created, err := h.engine.CreateEntities(r.Context(), req.Entities)
	if err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": created})
}

// ApplyMutationsRequest is the body for mutation application.
type ApplyMutationsRequest struct {
	Mutations []graph.Mutation `json:"mutations"`
}

// ApplyMutations applies a mutation batch in order.
func (h *EntityHandler) ApplyMutations(w http.ResponseWriter, r *http.Request) {
	var req ApplyMutationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	if err := h.engine.ApplyMutations(r.Context(), req.Mutations); err != nil {
		engineErrorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": len(req.Mutations)})
}

// InferRelationship resolves the predicate and direction for a
// context/component pair from query parameters.
func (h *EntityHandler) InferRelationship(w http.ResponseWriter, r *http.Request) {
	contextType := r.URL.Query().Get("context")
	component := r.URL.Query().Get("component")
	if contextType == "" || component == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "context and component query parameters are required")
		return
	}

	rel := h.engine.InferRelationship(contextType, component)
	writeJSON(w, http.StatusOK, rel)
}

// Package engine renders graph entities through view templates and syncs
// edited renderings back into graph mutations.
package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/eventbus"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/relate"
	"github.com/matthewbaird/tapestry/internal/view"
)

// ViewContext identifies the entity a view is rendered for, plus optional
// exact-match filters over related entity fields. Per-call, never
// persisted.
type ViewContext struct {
	EntityURL string         `json:"entity_url"`
	Filters   map[string]any `json:"filters,omitempty"`
}

// Config wires the engine's collaborators. Views and Graph are required;
// the rest default.
type Config struct {
	Views    view.Store
	Cache    view.Cache
	Graph    graph.Store
	Resolver *relate.Resolver
	Origin   string
	Log      *zap.Logger
	Bus      *eventbus.Bus
}

// Engine is the view rendering and sync engine. Safe for concurrent use.
type Engine struct {
	views    view.Store
	cache    view.Cache
	store    graph.Store
	resolver *relate.Resolver
	origin   string
	log      *zap.Logger
	bus      *eventbus.Bus
}

func New(cfg Config) *Engine {
	if cfg.Cache == nil {
		cfg.Cache = view.NewMapCache()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = relate.NewResolver()
	}
	if cfg.Origin == "" {
		cfg.Origin = graph.DefaultOrigin
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Engine{
		views:    cfg.Views,
		cache:    cfg.Cache,
		store:    cfg.Graph,
		resolver: cfg.Resolver,
		origin:   cfg.Origin,
		log:      cfg.Log,
		bus:      cfg.Bus,
	}
}

// Origin returns the URL namespace the engine mints entity URLs under.
func (e *Engine) Origin() string { return e.origin }

// GetView loads and parses a view document through the cache. Absent views
// return (nil, nil); stored views that fail to parse return a
// MalformedViewError. Cache population races are harmless because parsing
// is pure; last write wins.
func (e *Engine) GetView(ctx context.Context, id string) (*view.Document, error) {
	if doc, ok := e.cache.Get(id); ok {
		return doc, nil
	}

	def, err := e.views.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, nil
	}

	doc, err := parseDefinition(def)
	if err != nil {
		return nil, err
	}
	e.cache.Set(id, doc)
	return doc, nil
}

// DiscoverViews lists and parses every stored view. Malformed definitions
// are skipped with a warning so one bad file does not fail the listing.
func (e *Engine) DiscoverViews(ctx context.Context) ([]*view.Document, error) {
	defs, err := e.views.List(ctx, view.Filter{})
	if err != nil {
		return nil, err
	}

	docs := make([]*view.Document, 0, len(defs))
	for i := range defs {
		doc, err := parseDefinition(&defs[i])
		if err != nil {
			e.log.Warn("skipping malformed view", zap.String("view_id", defs[i].ID), zap.Error(err))
			continue
		}
		e.cache.Set(doc.ID, doc)
		docs = append(docs, doc)
	}
	return docs, nil
}

// InferRelationship resolves the predicate and direction connecting a
// context entity type to a component name.
func (e *Engine) InferRelationship(contextType, componentName string) *graph.Relationship {
	return e.resolver.Infer(contextType, componentName)
}

func parseDefinition(def *view.Definition) (*view.Document, error) {
	components, err := view.ParseComponents(def.Template)
	if err != nil {
		return nil, &view.MalformedViewError{ID: def.ID, Err: err}
	}
	return &view.Document{
		ID:         def.ID,
		EntityType: def.EntityType,
		Template:   def.Template,
		Components: components,
	}, nil
}

// relationshipFor resolves the effective relationship for a component: an
// explicit relationship attribute overrides the predicate, direction still
// comes from schema/heuristic resolution, and an unresolvable pair falls
// back to the lowercase component name, forward.
func (e *Engine) relationshipFor(contextType string, comp view.Component) graph.Relationship {
	rel := e.resolver.Infer(contextType, comp.Name)
	if rel == nil {
		rel = &graph.Relationship{
			Predicate: strings.ToLower(comp.Name),
			Direction: graph.DirectionForward,
		}
	}
	if comp.Relationship != "" {
		rel.Predicate = comp.Relationship
	}
	return *rel
}

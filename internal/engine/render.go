package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matthewbaird/tapestry/internal/event"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
	"github.com/matthewbaird/tapestry/internal/vtl"
)

// RenderResult is a rendered view: the markdown text and the entities each
// component resolved to, keyed by component name.
type RenderResult struct {
	Markdown string                    `json:"markdown"`
	Entities map[string][]graph.Entity `json:"entities"`
}

// Render renders the view for the given context entity. The view id and
// the entity URL must both resolve; either missing is a NotFoundError.
func (e *Engine) Render(ctx context.Context, viewID string, vctx ViewContext) (*RenderResult, error) {
	start := time.Now()

	doc, err := e.GetView(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &NotFoundError{Kind: "view", ID: viewID}
	}

	entity, err := e.store.Get(ctx, vctx.EntityURL)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &NotFoundError{Kind: "entity", ID: vctx.EntityURL}
	}

	result, _, err := e.renderDoc(ctx, doc, entity, vctx)
	if err != nil {
		return nil, err
	}

	e.log.Debug("rendered view",
		zap.String("view_id", viewID),
		zap.String("entity_url", vctx.EntityURL),
		zap.Int("components", len(doc.Components)),
		zap.Duration("duration", time.Since(start)))
	if e.bus != nil {
		e.bus.Publish(ctx, event.NewViewRendered(event.ViewRenderedPayload{
			ViewID:     viewID,
			EntityURL:  vctx.EntityURL,
			Components: len(doc.Components),
			Duration:   time.Since(start),
		}))
	}
	return result, nil
}

// renderDoc fetches every component's entities concurrently, then splices
// formatted output over the template's tag spans in source order. The
// per-component formatted blocks are returned alongside the result; sync
// uses them as extraction boundaries.
func (e *Engine) renderDoc(ctx context.Context, doc *view.Document, entity *graph.Entity, vctx ViewContext) (*RenderResult, map[string]string, error) {
	entities := make(map[string][]graph.Entity, len(doc.Components))

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]graph.Entity, len(doc.Components))
	for i, comp := range doc.Components {
		g.Go(func() error {
			rel := e.relationshipFor(entity.Type, comp)
			related, err := e.store.Related(gctx, vctx.EntityURL, rel.Predicate, rel.Direction)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", comp.Name, err)
			}
			results[i] = filterEntities(filterEntities(related, comp.Filters), vctx.Filters)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	rendered := make(map[string]string, len(doc.Components))
	for i, comp := range doc.Components {
		entities[comp.Name] = results[i]
		rendered[comp.Name] = e.formatComponent(comp, results[i])
	}

	tmpl, errs := vtl.Parse(doc.Template)
	if len(errs) > 0 {
		return nil, nil, &view.MalformedViewError{ID: doc.ID, Err: errs[0]}
	}

	var b strings.Builder
	for _, node := range tmpl.Nodes {
		switch n := node.(type) {
		case *vtl.TextNode:
			b.WriteString(interpolate(n.Text, entity))
		case *vtl.TagNode:
			b.WriteString(rendered[n.Name])
		}
	}

	return &RenderResult{Markdown: b.String(), Entities: entities}, rendered, nil
}

func filterEntities(entities []graph.Entity, filters map[string]any) []graph.Entity {
	if len(filters) == 0 {
		return entities
	}
	var out []graph.Entity
	for _, e := range entities {
		if graph.MatchesFilters(e, filters) {
			out = append(out, e)
		}
	}
	return out
}

var fieldToken = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// interpolate replaces {field.path} tokens with values from the context
// entity, dot-pathing through nested maps. Unresolved tokens stay literal.
func interpolate(text string, entity *graph.Entity) string {
	return fieldToken.ReplaceAllStringFunc(text, func(token string) string {
		path := token[1 : len(token)-1]
		if v, ok := resolvePath(entity, path); ok {
			return displayValue(v)
		}
		return token
	})
}

func resolvePath(entity *graph.Entity, path string) (any, bool) {
	parts := strings.Split(path, ".")

	var current any
	if v, ok := entity.Fields[parts[0]]; ok {
		current = v
	} else {
		switch parts[0] {
		case "id":
			current = entity.ID
		case "type":
			current = entity.Type
		default:
			return nil, false
		}
	}

	for _, part := range parts[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// displayValue renders a field value as template text. Maps flatten to
// "k: v; k2: v2" in key order.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+": "+displayValue(val[k]))
		}
		return strings.Join(pairs, "; ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package relate decides which graph predicate connects a context entity
// type to a view component, and in which direction. Explicit schema rules
// win; a convention-based ownership table is the fallback.
package relate

import (
	"strings"

	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/inflect"
)

// Rule is one explicit relationship declaration: for views of Context, a
// component of Component entities uses Predicate in Direction.
type Rule struct {
	Context   string
	Component string
	Predicate string
	Direction graph.Direction
}

// defaultOwnership maps a lowercase context type to the set of entity types
// it is conventionally said to own. This is a heuristic fallback, not a
// general relationship resolver; schema rules take precedence.
var defaultOwnership = map[string]map[string]bool{
	"post": {"tag": true, "author": true, "category": true, "comment": true},
	"user": {"post": true, "comment": true, "order": true},
}

// Resolver infers relationships from schema rules and the ownership
// heuristic.
type Resolver struct {
	rules map[string]graph.Relationship // "context→component", lowercase
	owns  map[string]map[string]bool
}

// NewResolver creates a resolver with the default ownership table and any
// explicit schema rules.
func NewResolver(rules ...Rule) *Resolver {
	r := &Resolver{
		rules: make(map[string]graph.Relationship),
		owns:  defaultOwnership,
	}
	r.AddRules(rules...)
	return r
}

// AddRules registers explicit relationship rules. Later rules overwrite
// earlier ones for the same type pair.
func (r *Resolver) AddRules(rules ...Rule) {
	for _, rule := range rules {
		rel := graph.Relationship{
			Predicate: strings.ToLower(rule.Predicate),
			Direction: rule.Direction,
		}
		if rel.Direction == "" {
			rel.Direction = graph.DirectionForward
		}
		r.rules[pairKey(rule.Context, rule.Component)] = rel
	}
}

// Infer resolves the predicate and direction for a component rendered in
// the context of the given entity type. Returns nil only for empty inputs.
//
// The forward candidate predicate is the component name itself, lowercased
// (it is already plural); the reverse candidate is the pluralized context
// type. When an explicit rule covers the pair it wins; otherwise the
// ownership table decides, with un-owned pairs resolving reverse.
func (r *Resolver) Infer(contextType, componentName string) *graph.Relationship {
	if contextType == "" || componentName == "" {
		return nil
	}

	componentType := inflect.Singularize(componentName)
	if rel, ok := r.rules[pairKey(contextType, componentType)]; ok {
		out := rel
		return &out
	}

	ctxLower := strings.ToLower(contextType)
	if r.owns[ctxLower][strings.ToLower(componentType)] {
		return &graph.Relationship{
			Predicate: strings.ToLower(componentName),
			Direction: graph.DirectionForward,
		}
	}
	return &graph.Relationship{
		Predicate: inflect.Pluralize(ctxLower),
		Direction: graph.DirectionReverse,
	}
}

func pairKey(contextType, componentType string) string {
	return strings.ToLower(contextType) + "→" + strings.ToLower(componentType)
}

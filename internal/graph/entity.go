// Package graph defines the entity/relationship data model and the store
// collaborators that back view rendering and sync.
package graph

import "fmt"

// Entity is a tagged record: identity plus an open set of fields. Identity
// within a component's result set is by ID.
type Entity struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Clone returns a deep-enough copy: the fields map is copied, values are
// shared.
func (e Entity) Clone() Entity {
	out := Entity{ID: e.ID, Type: e.Type}
	if e.Fields != nil {
		out.Fields = make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Direction says which entity type declares a predicate. Forward: the
// context entity's type owns it. Reverse: the related type declares it,
// pointing back at the context.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// Relationship is a resolved predicate plus its direction. The predicate is
// always the lowercase form of a plural noun.
type Relationship struct {
	Predicate string    `json:"predicate"`
	Direction Direction `json:"direction"`
}

// Edge is the argument shape for Relate: a predicate connecting two entity
// URLs, optionally with edge data.
type Edge struct {
	Predicate string         `json:"predicate"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Data      map[string]any `json:"data,omitempty"`
}

// MutationType classifies a sync-produced change.
type MutationType string

const (
	MutationAdd    MutationType = "add"
	MutationRemove MutationType = "remove"
	MutationUpdate MutationType = "update"
)

// Mutation is one add/remove/update operation derived from diffing an
// edited rendering against the reference render. From and To are always
// fully-qualified entity URLs, never bare ids. Direction records how the
// relationship was resolved so apply can orient the edge.
type Mutation struct {
	Type      MutationType   `json:"type"`
	Predicate string         `json:"predicate"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Direction Direction      `json:"direction,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Previous  map[string]any `json:"previous_data,omitempty"`
}

// MatchesFilters reports whether every filter field matches the entity's
// field exactly. Values are compared by their printed form so numeric types
// coming from JSON, templates, and stores line up.
func MatchesFilters(e Entity, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := e.Fields[field]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

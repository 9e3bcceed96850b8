package view

import (
	"context"
	"strings"
	"sync"
)

// Definition is a stored view template before parsing: the bracketed-type
// id, the entity type it renders, and the raw template text.
type Definition struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	Template   string `json:"template"`
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	EntityType string
}

// Store provides access to view definitions. Get returns (nil, nil) when
// no view exists for the id; errors are reserved for definitions that
// exist but cannot be read.
type Store interface {
	Get(ctx context.Context, id string) (*Definition, error)
	List(ctx context.Context, filter Filter) ([]Definition, error)
}

// IDFor returns the canonical view id for an entity type: "[Tag]".
func IDFor(entityType string) string {
	return "[" + entityType + "]"
}

// TypeFromID extracts the entity type from a bracketed view id. Returns
// false when the id does not follow the "[Type]" convention.
func TypeFromID(id string) (string, bool) {
	if len(id) < 3 || !strings.HasPrefix(id, "[") || !strings.HasSuffix(id, "]") {
		return "", false
	}
	return id[1 : len(id)-1], true
}

// MemoryStore is an in-memory view store, used by tests and the demo
// dataset.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]Definition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{views: make(map[string]Definition)}
}

// Put stores or replaces a definition. An empty ID is derived from the
// entity type.
func (s *MemoryStore) Put(def Definition) {
	if def.ID == "" {
		def.ID = IDFor(def.EntityType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[def.ID] = def
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.views[id]
	if !ok {
		return nil, nil
	}
	out := def
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var defs []Definition
	for _, def := range s.views {
		if filter.EntityType != "" && !strings.EqualFold(def.EntityType, filter.EntityType) {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

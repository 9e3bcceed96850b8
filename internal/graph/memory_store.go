package graph

import (
	"context"
	"sync"
)

// MemoryStore implements Store using in-memory maps and an edge list.
// Intended for demos and testing, no database required.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]Entity // entityKey → entity
	edges    []Edge            // insertion order preserved
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entities: make(map[string]Entity)}
}

func (s *MemoryStore) Get(_ context.Context, url string) (*Entity, error) {
	key, err := urlKey(url)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[key]
	if !ok {
		return nil, nil
	}
	out := e.Clone()
	return &out, nil
}

func (s *MemoryStore) Related(_ context.Context, fromURL, predicate string, direction Direction) ([]Entity, error) {
	key, err := urlKey(fromURL)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entity
	for _, edge := range s.edges {
		if edge.Predicate != predicate {
			continue
		}
		var targetURL string
		if direction == DirectionReverse {
			// Edge declared on the related entity, pointing at the context.
			if k, err := urlKey(edge.To); err != nil || k != key {
				continue
			}
			targetURL = edge.From
		} else {
			if k, err := urlKey(edge.From); err != nil || k != key {
				continue
			}
			targetURL = edge.To
		}
		tk, err := urlKey(targetURL)
		if err != nil {
			continue
		}
		if e, ok := s.entities[tk]; ok {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Relate(_ context.Context, edge Edge) error {
	fromKey, err := urlKey(edge.From)
	if err != nil {
		return err
	}
	toKey, err := urlKey(edge.To)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.edges {
		if existing.Predicate == edge.Predicate && s.sameKey(existing.From, fromKey) && s.sameKey(existing.To, toKey) {
			return nil
		}
	}
	s.edges = append(s.edges, edge)
	return nil
}

func (s *MemoryStore) Unrelate(_ context.Context, from, predicate, to string) (bool, error) {
	fromKey, err := urlKey(from)
	if err != nil {
		return false, err
	}
	toKey, err := urlKey(to)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, edge := range s.edges {
		if edge.Predicate == predicate && s.sameKey(edge.From, fromKey) && s.sameKey(edge.To, toKey) {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Update(_ context.Context, url string, data map[string]any) (*Entity, error) {
	key, err := urlKey(url)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[key]
	if !ok {
		return nil, &PreconditionError{URL: url}
	}
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	for k, v := range data {
		e.Fields[k] = v
	}
	s.entities[key] = e
	out := e.Clone()
	return &out, nil
}

func (s *MemoryStore) Create(_ context.Context, e Entity) (*Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := e.Clone()
	stored.Type = normalizeType(e.Type)
	s.entities[entityKey(e.Type, e.ID)] = stored
	out := stored.Clone()
	return &out, nil
}

// sameKey compares a stored edge endpoint URL against a parsed key.
// Callers hold the lock.
func (s *MemoryStore) sameKey(url, key string) bool {
	k, err := urlKey(url)
	return err == nil && k == key
}

package engine

import (
	"context"
	"fmt"

	"github.com/matthewbaird/tapestry/internal/event"
	"github.com/matthewbaird/tapestry/internal/graph"
)

// ApplyMutations persists a mutation batch sequentially in list order.
// There is no atomicity: a failure leaves earlier mutations applied.
// Edges are oriented by each mutation's direction; reverse relationships
// store the edge on the related entity, pointing back at the context.
func (e *Engine) ApplyMutations(ctx context.Context, mutations []graph.Mutation) error {
	for i, m := range mutations {
		from, to := m.From, m.To
		if m.Direction == graph.DirectionReverse {
			from, to = m.To, m.From
		}

		var err error
		switch m.Type {
		case graph.MutationAdd:
			err = e.store.Relate(ctx, graph.Edge{Predicate: m.Predicate, From: from, To: to})
		case graph.MutationRemove:
			_, err = e.store.Unrelate(ctx, from, m.Predicate, to)
		case graph.MutationUpdate:
			_, err = e.store.Update(ctx, m.To, m.Data)
		default:
			err = fmt.Errorf("unknown mutation type %q", m.Type)
		}
		if err != nil {
			return fmt.Errorf("applying mutation %d (%s %s): %w", i, m.Type, m.Predicate, err)
		}
	}

	if e.bus != nil && len(mutations) > 0 {
		predicates := make([]string, 0, len(mutations))
		for _, m := range mutations {
			predicates = append(predicates, m.Predicate)
		}
		e.bus.Publish(ctx, event.NewMutationsApplied(event.MutationsAppliedPayload{
			Count:      len(mutations),
			Predicates: predicates,
		}))
	}
	return nil
}

// CreateEntities stores new entities one by one, defaulting the type to
// Unknown when absent. Returns the stored entities.
func (e *Engine) CreateEntities(ctx context.Context, entities []graph.Entity) ([]graph.Entity, error) {
	created := make([]graph.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.Type == "" {
			entity.Type = "Unknown"
		}
		stored, err := e.store.Create(ctx, entity)
		if err != nil {
			return created, fmt.Errorf("creating %s/%s: %w", entity.Type, entity.ID, err)
		}
		created = append(created, *stored)
	}

	if e.bus != nil && len(created) > 0 {
		types := make([]string, 0, len(created))
		for _, entity := range created {
			types = append(types, entity.Type)
		}
		e.bus.Publish(ctx, event.NewEntitiesCreated(event.EntitiesCreatedPayload{
			Count: len(created),
			Types: types,
		}))
	}
	return created, nil
}

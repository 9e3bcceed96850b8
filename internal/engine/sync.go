package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/matthewbaird/tapestry/internal/event"
	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
)

// SyncResult is the outcome of diffing an edited rendering against the
// reference render: the mutations to apply, entities that would need
// creating, and entities whose fields changed. Sync itself never writes.
type SyncResult struct {
	Mutations []graph.Mutation `json:"mutations"`
	Created   []graph.Entity   `json:"created"`
	Updated   []graph.Entity   `json:"updated"`
}

// Sync diffs edited markdown against a fresh render of the view for the
// same context. Fails NotFound under the same conditions as Render. A
// render passed back unchanged yields zero mutations.
func (e *Engine) Sync(ctx context.Context, viewID string, vctx ViewContext, editedMarkdown string) (*SyncResult, error) {
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

	ref, refBlocks, err := e.renderDoc(ctx, doc, entity, vctx)
	if err != nil {
		return nil, err
	}
	extracted, err := e.extract(doc, entity, editedMarkdown, refBlocks)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, comp := range doc.Components {
		rel := e.relationshipFor(entity.Type, comp)
		if err := e.diffComponent(ctx, result, comp, rel, vctx, ref.Entities[comp.Name], extracted[comp.Name]); err != nil {
			return nil, err
		}
	}

	e.log.Debug("synced view",
		zap.String("view_id", viewID),
		zap.String("entity_url", vctx.EntityURL),
		zap.Int("mutations", len(result.Mutations)),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)))
	if e.bus != nil {
		e.bus.Publish(ctx, event.NewViewSynced(event.ViewSyncedPayload{
			ViewID:    viewID,
			EntityURL: vctx.EntityURL,
			Mutations: len(result.Mutations),
			Created:   len(result.Created),
			Updated:   len(result.Updated),
		}))
	}
	return result, nil
}

// diffComponent compares reference and extracted entity lists by id.
// Field comparison is by displayed form, restricted to fields the
// extraction recovered; fields the format never rendered cannot produce
// updates.
func (e *Engine) diffComponent(ctx context.Context, result *SyncResult, comp view.Component, rel graph.Relationship, vctx ViewContext, reference, extracted []graph.Entity) error {
	refByID := make(map[string]graph.Entity, len(reference))
	for _, entity := range reference {
		refByID[entity.ID] = entity
	}
	extByID := make(map[string]graph.Entity, len(extracted))
	for _, entity := range extracted {
		extByID[entity.ID] = entity
	}

	for _, ext := range extracted {
		refEnt, exists := refByID[ext.ID]
		if !exists {
			targetURL := graph.CanonicalURL(e.origin, comp.EntityType, ext.ID)
			result.Mutations = append(result.Mutations, graph.Mutation{
				Type:      graph.MutationAdd,
				Predicate: rel.Predicate,
				From:      vctx.EntityURL,
				To:        targetURL,
				Direction: rel.Direction,
				Data:      ext.Fields,
			})

			stored, err := e.store.Get(ctx, targetURL)
			if err != nil {
				return err
			}
			if stored == nil {
				result.Created = append(result.Created, graph.Entity{
					ID:     ext.ID,
					Type:   comp.EntityType,
					Fields: ext.Fields,
				})
			}
			continue
		}

		data := make(map[string]any)
		previous := make(map[string]any)
		for field, extVal := range ext.Fields {
			refVal := refEnt.Fields[field]
			if displayValue(refVal) == displayValue(extVal) {
				continue
			}
			data[field] = extVal
			previous[field] = refVal
		}
		if len(data) == 0 {
			continue
		}

		targetURL := graph.CanonicalURL(e.origin, entityType(refEnt, comp), refEnt.ID)
		result.Mutations = append(result.Mutations, graph.Mutation{
			Type:      graph.MutationUpdate,
			Predicate: rel.Predicate,
			From:      vctx.EntityURL,
			To:        targetURL,
			Direction: rel.Direction,
			Data:      data,
			Previous:  previous,
		})

		updated := refEnt.Clone()
		for field, v := range data {
			updated.Fields[field] = v
		}
		result.Updated = append(result.Updated, updated)
	}

	for _, refEnt := range reference {
		if _, kept := extByID[refEnt.ID]; kept {
			continue
		}
		result.Mutations = append(result.Mutations, graph.Mutation{
			Type:      graph.MutationRemove,
			Predicate: rel.Predicate,
			From:      vctx.EntityURL,
			To:        graph.CanonicalURL(e.origin, entityType(refEnt, comp), refEnt.ID),
			Direction: rel.Direction,
		})
	}
	return nil
}

// Package event defines the engine's domain events: renders, syncs, and
// mutation batches, published on the in-process bus for log and history
// consumers.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DomainEvent carries the canonical shape of every engine event.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	ViewID     string          `json:"view_id,omitempty"`
	EntityURL  string          `json:"entity_url,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ViewRenderedPayload carries event-specific data for ViewRendered.
type ViewRenderedPayload struct {
	ViewID     string        `json:"view_id"`
	EntityURL  string        `json:"entity_url"`
	Components int           `json:"components"`
	Duration   time.Duration `json:"duration_ns"`
}

func NewViewRendered(p ViewRenderedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "view_rendered",
		OccurredAt: time.Now(),
		ViewID:     p.ViewID,
		EntityURL:  p.EntityURL,
		Summary:    fmt.Sprintf("Rendered %s for %s (%d components)", p.ViewID, p.EntityURL, p.Components),
		Payload:    mustJSON(p),
	}
}

// ViewSyncedPayload carries event-specific data for ViewSynced.
type ViewSyncedPayload struct {
	ViewID    string `json:"view_id"`
	EntityURL string `json:"entity_url"`
	Mutations int    `json:"mutations"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
}

func NewViewSynced(p ViewSyncedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "view_synced",
		OccurredAt: time.Now(),
		ViewID:     p.ViewID,
		EntityURL:  p.EntityURL,
		Summary:    fmt.Sprintf("Synced %s for %s: %d mutations", p.ViewID, p.EntityURL, p.Mutations),
		Payload:    mustJSON(p),
	}
}

// MutationsAppliedPayload carries event-specific data for MutationsApplied.
type MutationsAppliedPayload struct {
	Count      int      `json:"count"`
	Predicates []string `json:"predicates,omitempty"`
}

func NewMutationsApplied(p MutationsAppliedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "mutations_applied",
		OccurredAt: time.Now(),
		Summary:    fmt.Sprintf("Applied %d mutations", p.Count),
		Payload:    mustJSON(p),
	}
}

// EntitiesCreatedPayload carries event-specific data for EntitiesCreated.
type EntitiesCreatedPayload struct {
	Count int      `json:"count"`
	Types []string `json:"types,omitempty"`
}

func NewEntitiesCreated(p EntitiesCreatedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "entities_created",
		OccurredAt: time.Now(),
		Summary:    fmt.Sprintf("Created %d entities", p.Count),
		Payload:    mustJSON(p),
	}
}

package graph

import (
	"context"
	"fmt"
)

// Store is the entity/graph collaborator consumed by the view engine.
// Implementations return (nil, nil) from Get when the entity is absent;
// genuine failures propagate as errors.
type Store interface {
	// Get resolves one entity by canonical URL. Absent → (nil, nil).
	Get(ctx context.Context, url string) (*Entity, error)

	// Related returns the entities connected to the given entity by the
	// predicate. Forward follows edges declared on the entity; reverse
	// follows edges declared on the related type pointing back at it.
	Related(ctx context.Context, fromURL, predicate string, direction Direction) ([]Entity, error)

	// Relate records an edge. Re-relating an existing pair is a no-op.
	Relate(ctx context.Context, edge Edge) error

	// Unrelate removes an edge and reports whether one existed.
	Unrelate(ctx context.Context, from, predicate, to string) (bool, error)

	// Update merges data into an existing entity's fields. A missing target
	// is a PreconditionError.
	Update(ctx context.Context, url string, data map[string]any) (*Entity, error)

	// Create stores a new entity and returns it.
	Create(ctx context.Context, e Entity) (*Entity, error)
}

// PreconditionError reports an update against a non-existent target.
type PreconditionError struct {
	URL string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("entity %s does not exist", e.URL)
}

package graph

import "context"

// Seed loads a small blog dataset (tags, posts, users, comments) into the
// store. Used by the demo command and tests.
func Seed(ctx context.Context, store Store, origin string) error {
	entities := []Entity{
		{ID: "javascript", Type: "tag", Fields: map[string]any{"name": "JavaScript"}},
		{ID: "golang", Type: "tag", Fields: map[string]any{"name": "Go"}},
		{ID: "hello", Type: "post", Fields: map[string]any{"title": "hello", "status": "published"}},
		{ID: "second", Type: "post", Fields: map[string]any{"title": "second post", "status": "draft"}},
		{ID: "alice", Type: "user", Fields: map[string]any{"name": "Alice"}},
		{ID: "c1", Type: "comment", Fields: map[string]any{"body": "nice post"}},
	}
	for _, e := range entities {
		if _, err := store.Create(ctx, e); err != nil {
			return err
		}
	}

	edges := []Edge{
		{Predicate: "tags", From: CanonicalURL(origin, "post", "hello"), To: CanonicalURL(origin, "tag", "javascript")},
		{Predicate: "tags", From: CanonicalURL(origin, "post", "second"), To: CanonicalURL(origin, "tag", "golang")},
		{Predicate: "posts", From: CanonicalURL(origin, "user", "alice"), To: CanonicalURL(origin, "post", "hello")},
		{Predicate: "comments", From: CanonicalURL(origin, "post", "hello"), To: CanonicalURL(origin, "comment", "c1")},
	}
	for _, edge := range edges {
		if err := store.Relate(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

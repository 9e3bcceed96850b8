package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
)

const tagTemplate = "# {name}\n\n<Posts columns={[\"title\"]} />\n"

func newTestEngine(t *testing.T, templates map[string]string) (*Engine, *graph.MemoryStore) {
	t.Helper()

	store := graph.NewMemoryStore()
	require.NoError(t, graph.Seed(context.Background(), store, graph.DefaultOrigin))

	views := view.NewMemoryStore()
	for entityType, tmpl := range templates {
		views.Put(view.Definition{EntityType: entityType, Template: tmpl})
	}

	return New(Config{Views: views, Graph: store}), store
}

func tagURL(id string) string {
	return graph.CanonicalURL(graph.DefaultOrigin, "tag", id)
}

func postURL(id string) string {
	return graph.CanonicalURL(graph.DefaultOrigin, "post", id)
}

func TestRender_EndToEnd(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)

	assert.Contains(t, result.Markdown, "# JavaScript")
	assert.Contains(t, result.Markdown, "| hello | hello |")

	require.Contains(t, result.Entities, "Posts")
	require.Len(t, result.Entities["Posts"], 1)
	assert.Equal(t, "hello", result.Entities["Posts"][0].ID)
}

func TestRender_ZeroComponents(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\nJust prose.\n"})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)

	assert.Equal(t, "# JavaScript\n\nJust prose.\n", result.Markdown)
	assert.Empty(t, result.Entities)
}

func TestRender_EntitiesKeysMatchComponentNames(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Post": "# {title}\n\n<Tags />\n\n<Comments />\n",
	})

	result, err := eng.Render(ctx, "[Post]", ViewContext{EntityURL: postURL("hello")})
	require.NoError(t, err)

	require.Len(t, result.Entities, 2)
	assert.Contains(t, result.Entities, "Tags")
	assert.Contains(t, result.Entities, "Comments")
}

func TestRender_UnresolvedTokenStaysLiteral(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name} ({missing.field})\n"})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)
	assert.Equal(t, "# JavaScript ({missing.field})\n", result.Markdown)
}

func TestRender_ContextFilters(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{
		EntityURL: tagURL("golang"),
		Filters:   map[string]any{"status": "published"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Entities["Posts"], "the golang post is a draft")
}

func TestRender_ComponentFilters(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Tag": "# {name}\n\n<Posts status=\"draft\" />\n",
	})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)
	assert.Empty(t, result.Entities["Posts"], "the javascript post is published")
}

func TestRender_ListFormat(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\n<Posts format=list />\n"})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "- [hello](graph://local/post/hello)")
}

func TestRender_CardsFormat(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\n<Posts format=cards />\n"})

	result, err := eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("javascript")})
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "### hello")
	assert.Contains(t, result.Markdown, "- **id**: hello")
	assert.Contains(t, result.Markdown, "- **status**: published")
}

func TestRender_NotFound(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	_, err := eng.Render(ctx, "[Nope]", ViewContext{EntityURL: tagURL("javascript")})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "view", nf.Kind)
	assert.Contains(t, err.Error(), "[Nope]")

	_, err = eng.Render(ctx, "[Tag]", ViewContext{EntityURL: tagURL("ghost")})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "entity", nf.Kind)
	assert.Contains(t, err.Error(), tagURL("ghost"))
}

func TestGetView(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Tag": tagTemplate,
		"Bad": "<Posts format=nope />\n",
	})

	doc, err := eng.GetView(ctx, "[Tag]")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.Components, 1)
	assert.Equal(t, "Post", doc.Components[0].EntityType)

	absent, err := eng.GetView(ctx, "[Ghost]")
	require.NoError(t, err)
	assert.Nil(t, absent, "absent views are nil, not an error")

	_, err = eng.GetView(ctx, "[Bad]")
	var mve *view.MalformedViewError
	require.ErrorAs(t, err, &mve)
	assert.Equal(t, "[Bad]", mve.ID)
}

func TestDiscoverViews_SkipsMalformed(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Tag": tagTemplate,
		"Bad": "<Posts format=nope />\n",
	})

	docs, err := eng.DiscoverViews(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "[Tag]", docs[0].ID)
}

func TestSync_RoundTripIsEmpty(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	result, err := eng.Sync(ctx, "[Tag]", vctx, rendered.Markdown)
	require.NoError(t, err)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Updated)
}

func TestSync_RoundTripMultiComponent(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Post": "# {title}\n\n<Tags />\n\n<Comments />\n",
	})
	vctx := ViewContext{EntityURL: postURL("hello")}

	rendered, err := eng.Render(ctx, "[Post]", vctx)
	require.NoError(t, err)

	result, err := eng.Sync(ctx, "[Post]", vctx, rendered.Markdown)
	require.NoError(t, err)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Updated)
}

func TestSync_AdjacentComponentsEditFirst(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Post": "# {title}\n\n<Tags />\n\n<Comments />\n",
	})
	vctx := ViewContext{EntityURL: postURL("hello")}

	rendered, err := eng.Render(ctx, "[Post]", vctx)
	require.NoError(t, err)
	require.Contains(t, rendered.Markdown, "| javascript | JavaScript |")

	edited := strings.Replace(rendered.Markdown,
		"| javascript | JavaScript |\n",
		"| javascript | JavaScript |\n| typescript | TypeScript |\n", 1)
	result, err := eng.Sync(ctx, "[Post]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	m := result.Mutations[0]
	assert.Equal(t, graph.MutationAdd, m.Type)
	assert.Equal(t, "tags", m.Predicate)
	assert.Equal(t, graph.CanonicalURL(graph.DefaultOrigin, "tag", "typescript"), m.To)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "typescript", result.Created[0].ID)
	assert.Equal(t, "Tag", result.Created[0].Type)
}

func TestSync_CardsRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\n<Posts format=cards />\n"})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	result, err := eng.Sync(ctx, "[Tag]", vctx, rendered.Markdown)
	require.NoError(t, err)
	assert.Empty(t, result.Mutations)
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Updated)
}

func TestSync_CardsUpdateField(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\n<Posts format=cards />\n"})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)
	require.Contains(t, rendered.Markdown, "- **status**: published")

	edited := strings.Replace(rendered.Markdown, "- **status**: published", "- **status**: archived", 1)
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	m := result.Mutations[0]
	assert.Equal(t, graph.MutationUpdate, m.Type)
	assert.Equal(t, postURL("hello"), m.To)
	assert.Equal(t, map[string]any{"status": "archived"}, m.Data)
}

func TestSync_AddTableRow(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.TrimRight(rendered.Markdown, "\n") + "\n| my-new-post | My New Post |\n"
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	m := result.Mutations[0]
	assert.Equal(t, graph.MutationAdd, m.Type)
	assert.Equal(t, "tags", m.Predicate)
	assert.Equal(t, graph.DirectionReverse, m.Direction)
	assert.Equal(t, tagURL("javascript"), m.From)
	assert.Equal(t, postURL("my-new-post"), m.To)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "my-new-post", result.Created[0].ID)
	assert.Equal(t, "Post", result.Created[0].Type)
	assert.Equal(t, "My New Post", result.Created[0].Fields["title"])
}

func TestSync_AddRowWithoutIDGetsSlug(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.TrimRight(rendered.Markdown, "\n") + "\n|  | Another Post! |\n"
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	assert.Equal(t, "another-post", result.Created[0].ID)
}

func TestSync_RemoveTableRow(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.Replace(rendered.Markdown, "| hello | hello |\n", "", 1)
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	m := result.Mutations[0]
	assert.Equal(t, graph.MutationRemove, m.Type)
	assert.Equal(t, "tags", m.Predicate)
	assert.Equal(t, postURL("hello"), m.To)
	assert.Empty(t, result.Created)
}

func TestSync_UpdateCell(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Tag": "# {name}\n\n<Posts columns={[\"title\", \"status\"]} />\n",
	})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)
	require.Contains(t, rendered.Markdown, "| hello | hello | published |")

	edited := strings.Replace(rendered.Markdown, "| hello | hello | published |", "| hello | hello | archived |", 1)
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	m := result.Mutations[0]
	assert.Equal(t, graph.MutationUpdate, m.Type)
	assert.Equal(t, postURL("hello"), m.To)
	assert.Equal(t, map[string]any{"status": "archived"}, m.Data)
	assert.Equal(t, map[string]any{"status": "published"}, m.Previous)

	require.Len(t, result.Updated, 1)
	assert.Equal(t, "archived", result.Updated[0].Fields["status"])
}

func TestSync_ListRemoveItem(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": "# {name}\n\n<Posts format=list />\n"})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.Replace(rendered.Markdown, "- [hello](graph://local/post/hello)\n", "", 1)
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	require.Len(t, result.Mutations, 1)
	assert.Equal(t, graph.MutationRemove, result.Mutations[0].Type)
}

func TestSync_NeverWrites(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.TrimRight(rendered.Markdown, "\n") + "\n| my-new-post | My New Post |\n"
	_, err = eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	missing, err := store.Get(ctx, postURL("my-new-post"))
	require.NoError(t, err)
	assert.Nil(t, missing, "sync must not create entities or edges")
}

func TestApply_RoundTripAfterAdd(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})
	vctx := ViewContext{EntityURL: tagURL("javascript")}

	rendered, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)

	edited := strings.TrimRight(rendered.Markdown, "\n") + "\n| my-new-post | My New Post |\n"
	result, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)

	_, err = eng.CreateEntities(ctx, result.Created)
	require.NoError(t, err)
	require.NoError(t, eng.ApplyMutations(ctx, result.Mutations))

	again, err := eng.Render(ctx, "[Tag]", vctx)
	require.NoError(t, err)
	assert.Contains(t, again.Markdown, "My New Post")

	// A second sync of the edited text is now a no-op.
	settled, err := eng.Sync(ctx, "[Tag]", vctx, edited)
	require.NoError(t, err)
	assert.Empty(t, settled.Mutations)
}

func TestApply_UpdateMissingTarget(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	err := eng.ApplyMutations(ctx, []graph.Mutation{{
		Type:      graph.MutationUpdate,
		Predicate: "tags",
		From:      tagURL("javascript"),
		To:        postURL("ghost"),
		Data:      map[string]any{"status": "archived"},
	}})

	var pe *graph.PreconditionError
	require.ErrorAs(t, err, &pe)
}

func TestCreateEntities_DefaultsType(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	created, err := eng.CreateEntities(ctx, []graph.Entity{{ID: "mystery"}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Unknown", created[0].Type)

	stored, err := store.Get(ctx, graph.CanonicalURL(graph.DefaultOrigin, "unknown", "mystery"))
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestInferRelationship(t *testing.T) {
	eng, _ := newTestEngine(t, map[string]string{"Tag": tagTemplate})

	rel := eng.InferRelationship("Post", "Tags")
	require.NotNil(t, rel)
	assert.Equal(t, "tags", rel.Predicate)
	assert.Equal(t, graph.DirectionForward, rel.Direction)

	rel = eng.InferRelationship("Tag", "Posts")
	require.NotNil(t, rel)
	assert.Equal(t, "tags", rel.Predicate)
	assert.Equal(t, graph.DirectionReverse, rel.Direction)
}

func TestRelationshipOverride(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, map[string]string{
		"Post": "# {title}\n\n<Comments relationship=comments />\n",
	})

	result, err := eng.Render(ctx, "[Post]", ViewContext{EntityURL: postURL("hello")})
	require.NoError(t, err)
	require.Len(t, result.Entities["Comments"], 1)
	assert.Equal(t, "c1", result.Entities["Comments"][0].ID)
}

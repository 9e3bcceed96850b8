package relate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/tapestry/internal/graph"
)

func TestInfer_ForwardOwnership(t *testing.T) {
	r := NewResolver()

	rel := r.Infer("Post", "Tags")
	require.NotNil(t, rel)
	assert.Equal(t, "tags", rel.Predicate)
	assert.Equal(t, graph.DirectionForward, rel.Direction)
}

func TestInfer_ReverseFallback(t *testing.T) {
	r := NewResolver()

	// A tag does not own posts: the predicate lives on Post, pointing back.
	rel := r.Infer("Tag", "Posts")
	require.NotNil(t, rel)
	assert.Equal(t, "tags", rel.Predicate)
	assert.Equal(t, graph.DirectionReverse, rel.Direction)
}

func TestInfer_CaseInsensitive(t *testing.T) {
	r := NewResolver()

	rel := r.Infer("post", "Comments")
	require.NotNil(t, rel)
	assert.Equal(t, "comments", rel.Predicate)
	assert.Equal(t, graph.DirectionForward, rel.Direction)
}

func TestInfer_EmptyInputs(t *testing.T) {
	r := NewResolver()
	assert.Nil(t, r.Infer("", "Tags"))
	assert.Nil(t, r.Infer("Post", ""))
}

func TestInfer_SchemaRuleWins(t *testing.T) {
	r := NewResolver(Rule{
		Context:   "Post",
		Component: "Tag",
		Predicate: "labeled_with",
		Direction: graph.DirectionForward,
	})

	rel := r.Infer("Post", "Tags")
	require.NotNil(t, rel)
	assert.Equal(t, "labeled_with", rel.Predicate)
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relationships.cue")
	content := `relationships: [
	{context: "Post", component: "Tag", predicate: "tags", direction: "forward"},
	{context: "Invoice", component: "Line", predicate: "lines"},
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadSchemaFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "Post", rules[0].Context)
	assert.Equal(t, "tags", rules[0].Predicate)
	assert.Equal(t, graph.DirectionForward, rules[1].Direction, "direction defaults to forward")
}

func TestLoadSchemaFile_Missing(t *testing.T) {
	rules, err := LoadSchemaFile(filepath.Join(t.TempDir(), "absent.cue"))
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestLoadSchemaFile_BadDirection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relationships.cue")
	content := `relationships: [{context: "A", component: "B", predicate: "bs", direction: "sideways"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadSchemaFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

package view

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeView(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileStore_Get(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeView(t, dir, "Tag.md", "---\nentity_type: Tag\ndescription: tag detail view\n---\n# {name}\n\n<Posts />\n")

	store := NewFileStore(dir, nil)
	def, err := store.Get(ctx, "[Tag]")
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "[Tag]", def.ID)
	assert.Equal(t, "Tag", def.EntityType)
	assert.Equal(t, "# {name}\n\n<Posts />\n", def.Template)
}

func TestFileStore_Get_NoFrontmatter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeView(t, dir, "Post.md", "# {title}\n")

	store := NewFileStore(dir, nil)
	def, err := store.Get(ctx, "[Post]")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "Post", def.EntityType, "entity type falls back to the file name")
}

func TestFileStore_Get_Absent(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	def, err := store.Get(context.Background(), "[Ghost]")
	require.NoError(t, err)
	assert.Nil(t, def, "absent views are (nil, nil), not an error")
}

func TestFileStore_Get_MalformedFrontmatter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeView(t, dir, "Tag.md", "---\nentity_type: [unclosed\n---\n# body\n")

	store := NewFileStore(dir, nil)
	_, err := store.Get(ctx, "[Tag]")
	require.Error(t, err)

	var mve *MalformedViewError
	require.ErrorAs(t, err, &mve)
	assert.Equal(t, "[Tag]", mve.ID)
}

func TestFileStore_Get_UnknownFrontmatterField(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeView(t, dir, "Tag.md", "---\nentity_typo: Tag\n---\n# body\n")

	store := NewFileStore(dir, nil)
	_, err := store.Get(ctx, "[Tag]")
	var mve *MalformedViewError
	require.ErrorAs(t, err, &mve)
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeView(t, dir, "Tag.md", "# {name}\n")
	writeView(t, dir, "Post.md", "# {title}\n")
	writeView(t, dir, "Broken.md", "---\nnope: [\n---\nx")
	writeView(t, dir, "notes.txt", "not a view")

	store := NewFileStore(dir, nil)
	defs, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, defs, 2, "malformed and non-markdown files are skipped")

	assert.Equal(t, "[Post]", defs[0].ID)
	assert.Equal(t, "[Tag]", defs[1].ID)

	tags, err := store.List(ctx, Filter{EntityType: "tag"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "[Tag]", tags[0].ID)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(Definition{EntityType: "Tag", Template: "# {name}\n"})

	def, err := store.Get(ctx, "[Tag]")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "[Tag]", def.ID)

	missing, err := store.Get(ctx, "[Nope]")
	require.NoError(t, err)
	assert.Nil(t, missing)

	defs, err := store.List(ctx, Filter{EntityType: "Tag"})
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestMapCache(t *testing.T) {
	cache := NewMapCache()
	doc := &Document{ID: "[Tag]", EntityType: "Tag"}

	_, ok := cache.Get("[Tag]")
	assert.False(t, ok)

	cache.Set("[Tag]", doc)
	got, ok := cache.Get("[Tag]")
	require.True(t, ok)
	assert.Same(t, doc, got)

	cache.Invalidate("[Tag]")
	_, ok = cache.Get("[Tag]")
	assert.False(t, ok)
}

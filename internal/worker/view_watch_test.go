package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matthewbaird/tapestry/internal/view"
)

func writeView(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestViewWatcher_InvalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeView(t, dir, "Tag.md", "# {name}\n")

	cache := view.NewMapCache()
	cache.Set(view.IDFor("Tag"), &view.Document{ID: view.IDFor("Tag")})

	w := NewViewWatcher(dir, cache, time.Second, nil)
	w.scan(true)

	if _, ok := cache.Get(view.IDFor("Tag")); !ok {
		t.Fatal("priming scan should not invalidate")
	}

	later := time.Now().Add(5 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	w.scan(false)

	if _, ok := cache.Get(view.IDFor("Tag")); ok {
		t.Error("changed file should invalidate its cache entry")
	}
}

func TestViewWatcher_InvalidatesOnDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeView(t, dir, "Post.md", "# {title}\n")

	cache := view.NewMapCache()
	cache.Set(view.IDFor("Post"), &view.Document{ID: view.IDFor("Post")})

	w := NewViewWatcher(dir, cache, time.Second, nil)
	w.scan(true)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	w.scan(false)

	if _, ok := cache.Get(view.IDFor("Post")); ok {
		t.Error("deleted file should invalidate its cache entry")
	}
}

package cache

import (
	"testing"

	"github.com/google/uuid"
)

func TestKeyAndTagShapes(t *testing.T) {
	id := uuid.MustParse("6f1c8f7a-2d2b-4a78-9a43-0d3c29f2b111")

	if got, want := ProjectKey(id), "project:6f1c8f7a-2d2b-4a78-9a43-0d3c29f2b111"; got != want {
		t.Fatalf("ProjectKey = %s, want %s", got, want)
	}
	if got, want := ProjectTag(id), "tag:project:6f1c8f7a-2d2b-4a78-9a43-0d3c29f2b111"; got != want {
		t.Fatalf("ProjectTag = %s, want %s", got, want)
	}
	if got, want := UserTag(id), "tag:user:6f1c8f7a-2d2b-4a78-9a43-0d3c29f2b111"; got != want {
		t.Fatalf("UserTag = %s, want %s", got, want)
	}
	if got, want := ProjectListKey("design", 2, 20), "projects:list:design:2:20"; got != want {
		t.Fatalf("ProjectListKey = %s, want %s", got, want)
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	// Workflows run with a nil cache in tests; every operation must be a
	// no-op instead of a panic.
	var c *Cache
	if c.GetJSON(nil, "k", nil) {
		t.Fatal("nil cache reported a hit")
	}
	c.SetJSON(nil, "k", 1, 0)
	c.InvalidateTags(nil, "tag:project:x")
	c.Delete(nil, "k")
}

package localdoc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"tutorialpub/internal/manifest"
	"tutorialpub/internal/metadata"
)

func TestMissingStreamIsEmpty(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	doc, err := store.GetDocument(context.Background(), "stream-1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if len(doc.Content) != 0 {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestSetThenGet(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	doc := metadata.NewDocument()
	doc.Extra["title"] = json.RawMessage(`"Solana 101"`)
	doc.Content["index.md"] = manifest.TrackedFile{Path: "index.md", Name: "Intro", Digest: "d", StorageRef: "r"}

	if err := store.SetDocument(context.Background(), "stream-1", doc); err != nil {
		t.Fatalf("SetDocument failed: %v", err)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(dir, "stream-1.json.*.tmp")); len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}

	got, err := store.GetDocument(context.Background(), "stream-1")
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.StringField("title") != "Solana 101" {
		t.Fatalf("title lost: %+v", got.Extra)
	}
	if entry, ok := got.Entry("index.md"); !ok || entry != doc.Content["index.md"] {
		t.Fatalf("entry mismatch: %+v", entry)
	}
}

func TestRejectsTraversalStreamIDs(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := store.GetDocument(context.Background(), id); err == nil {
			t.Errorf("expected error for stream id %q", id)
		}
	}
}

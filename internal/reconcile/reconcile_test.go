package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tutorialpub/internal/manifest"
	"tutorialpub/internal/metadata"
	"tutorialpub/internal/services"
)

type recordingStore struct {
	mu     sync.Mutex
	docs   []*metadata.Document
	failOn map[string]bool
}

func (s *recordingStore) GetDocument(context.Context, string) (*metadata.Document, error) {
	return metadata.NewDocument(), nil
}

func (s *recordingStore) SetDocument(_ context.Context, _ string, doc *metadata.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.failOn {
		if _, ok := doc.Content[path]; ok {
			return errors.New("node unavailable")
		}
	}
	s.docs = append(s.docs, doc)
	return nil
}

func (s *recordingStore) last() *metadata.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.docs) == 0 {
		return nil
	}
	return s.docs[len(s.docs)-1]
}

func tracked(path, digest, ref string) manifest.TrackedFile {
	return manifest.TrackedFile{Path: path, Name: path}.WithUpload(digest, ref)
}

func TestEqualEntryIsNotWritten(t *testing.T) {
	snapshot := metadata.NewDocument()
	snapshot.Content["a.md"] = tracked("a.md", "d1", "tx-1")
	store := &recordingStore{}

	r := New(store, "s", snapshot, nil)
	res, err := r.Reconcile(context.Background(), tracked("a.md", "d1", "tx-1"))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Wrote || len(store.docs) != 0 || r.Writes() != 0 {
		t.Fatalf("expected no write, got %+v with %d docs", res, len(store.docs))
	}
}

func TestDifferentEntryIsWrittenWithPriorEntries(t *testing.T) {
	snapshot := metadata.NewDocument()
	snapshot.Content["old.md"] = tracked("old.md", "d0", "tx-0")
	store := &recordingStore{}
	r := New(store, "s", snapshot, nil)

	if _, err := r.Reconcile(context.Background(), tracked("a.md", "d1", "tx-1")); err != nil {
		t.Fatalf("Reconcile a failed: %v", err)
	}
	if _, err := r.Reconcile(context.Background(), tracked("b.md", "d2", "tx-2")); err != nil {
		t.Fatalf("Reconcile b failed: %v", err)
	}

	last := store.last()
	for _, path := range []string{"old.md", "a.md", "b.md"} {
		if _, ok := last.Content[path]; !ok {
			t.Errorf("last write missing %s", path)
		}
	}
	if r.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", r.Writes())
	}
	if _, ok := snapshot.Content["a.md"]; ok {
		t.Fatal("caller snapshot was mutated")
	}
}

func TestFailedWriteIsRolledBack(t *testing.T) {
	store := &recordingStore{failOn: map[string]bool{"bad.md": true}}
	r := New(store, "s", nil, nil)

	_, err := r.Reconcile(context.Background(), tracked("bad.md", "d1", "tx-1"))
	if !errors.Is(err, services.ErrReconcile) {
		t.Fatalf("expected ErrReconcile, got %v", err)
	}

	store.failOn = nil
	if _, err := r.Reconcile(context.Background(), tracked("good.md", "d2", "tx-2")); err != nil {
		t.Fatalf("Reconcile good failed: %v", err)
	}
	if _, ok := store.last().Content["bad.md"]; ok {
		t.Fatal("failed entry leaked into a later write")
	}
}

func TestConcurrentReconcileKeepsAllEntries(t *testing.T) {
	store := &recordingStore{}
	r := New(store, "s", nil, nil)

	var wg sync.WaitGroup
	paths := []string{"a.md", "b.md", "c.md", "d.md", "e.md", "f.md"}
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := r.Reconcile(context.Background(), tracked(p, "d-"+p, "tx-"+p)); err != nil {
				t.Errorf("Reconcile %s: %v", p, err)
			}
		}(p)
	}
	wg.Wait()

	final := r.Document()
	if len(final.Content) != len(paths) {
		t.Fatalf("expected %d entries, got %d", len(paths), len(final.Content))
	}
	if len(store.last().Content) != len(paths) {
		t.Fatalf("last write has %d entries", len(store.last().Content))
	}
}

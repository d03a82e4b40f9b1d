package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tutorialpub/internal/config"
	"tutorialpub/internal/digest"
	"tutorialpub/internal/history"
	"tutorialpub/internal/metadata"
	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
)

// MustOpenHistory opens the configured history.Store and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Upload is one call recorded by FakeStorage.
type Upload struct {
	Key  string
	Data []byte
	Ref  string
}

// FakeStorage is an in-memory storage.Store. References are derived from the
// uploaded bytes so identical content yields identical references.
type FakeStorage struct {
	mu      sync.Mutex
	uploads []Upload
	fail    map[string]error
}

var _ storage.Store = (*FakeStorage)(nil)

// NewFakeStorage returns an empty fake.
func NewFakeStorage() *FakeStorage {
	return &FakeStorage{fail: make(map[string]error)}
}

// FailKey makes uploads of key fail with err until cleared with a nil err.
func (s *FakeStorage) FailKey(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, key)
		return
	}
	s.fail[key] = err
}

// Upload implements storage.Store.
func (s *FakeStorage) Upload(ctx context.Context, key string, data []byte, _ storage.Credentials) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[key]; ok {
		return "", services.Wrap(services.ErrUpload, "fake storage", "upload", key, err)
	}
	ref := "tx-" + digest.Bytes(data)[:16]
	s.uploads = append(s.uploads, Upload{Key: key, Data: append([]byte(nil), data...), Ref: ref})
	return ref, nil
}

// Uploads returns a copy of every successful upload.
func (s *FakeStorage) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Count returns the number of successful uploads.
func (s *FakeStorage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// FakeMetadata is an in-memory metadata.Store.
type FakeMetadata struct {
	mu       sync.Mutex
	docs     map[string]*metadata.Document
	writes   int
	getErr   error
	failPath map[string]bool
}

var _ metadata.Store = (*FakeMetadata)(nil)

// NewFakeMetadata returns an empty fake.
func NewFakeMetadata() *FakeMetadata {
	return &FakeMetadata{
		docs:     make(map[string]*metadata.Document),
		failPath: make(map[string]bool),
	}
}

// Seed stores doc for streamID without counting a write.
func (m *FakeMetadata) Seed(streamID string, doc *metadata.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[streamID] = doc.Clone()
}

// FailGet makes GetDocument return err.
func (m *FakeMetadata) FailGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// FailWritesContaining rejects any write whose content holds path with a
// value different from the stored one.
func (m *FakeMetadata) FailWritesContaining(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fail {
		m.failPath[path] = true
		return
	}
	delete(m.failPath, path)
}

// GetDocument implements metadata.Store.
func (m *FakeMetadata) GetDocument(ctx context.Context, streamID string) (*metadata.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, services.Wrap(services.ErrReconcile, "fake metadata", "get", streamID, m.getErr)
	}
	return m.docs[streamID].Clone(), nil
}

// SetDocument implements metadata.Store.
func (m *FakeMetadata) SetDocument(ctx context.Context, streamID string, doc *metadata.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.docs[streamID]
	for path := range m.failPath {
		next, ok := doc.Content[path]
		if !ok {
			continue
		}
		if prev, had := current.Entry(path); !had || !prev.Equal(next) {
			return services.Wrap(services.ErrReconcile, "fake metadata", "set", fmt.Sprintf("%s: %s", streamID, path), errors.New("node rejected write"))
		}
	}
	m.docs[streamID] = doc.Clone()
	m.writes++
	return nil
}

// Document returns a copy of the stored document.
func (m *FakeMetadata) Document(streamID string) *metadata.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[streamID].Clone()
}

// Writes returns the number of successful SetDocument calls.
func (m *FakeMetadata) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

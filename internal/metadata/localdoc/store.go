// Package localdoc keeps metadata documents as JSON files on disk, one per
// stream id. It backs offline publishing and local previews.
package localdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tutorialpub/internal/metadata"
	"tutorialpub/internal/fileutil"
	"tutorialpub/internal/services"
)

// Store reads and writes `<dir>/<streamID>.json`.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ metadata.Store = (*Store)(nil)

// New returns a store rooted at dir, creating it when missing.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("metadata directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create metadata directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// GetDocument returns the stored document, or an empty one when the stream
// has never been written.
func (s *Store) GetDocument(ctx context.Context, streamID string) (*metadata.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrReconcile, "localdoc", "get document", streamID, err)
	}
	path, err := s.pathFor(streamID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return metadata.NewDocument(), nil
		}
		return nil, services.Wrap(services.ErrReconcile, "localdoc", "read document", path, err)
	}
	var doc metadata.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrReconcile, "localdoc", "decode document", path, err)
	}
	return &doc, nil
}

// SetDocument atomically replaces the stored document.
func (s *Store) SetDocument(ctx context.Context, streamID string, doc *metadata.Document) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrReconcile, "localdoc", "set document", streamID, err)
	}
	path, err := s.pathFor(streamID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = metadata.NewDocument()
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrReconcile, "localdoc", "encode document", streamID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrReconcile, "localdoc", "write document", path, err)
	}
	return nil
}

func (s *Store) pathFor(streamID string) (string, error) {
	streamID = strings.TrimSpace(streamID)
	if streamID == "" || streamID == "." || streamID == ".." || strings.ContainsAny(streamID, `/\`) {
		return "", services.Wrap(services.ErrReconcile, "localdoc", "resolve stream", fmt.Sprintf("invalid stream id %q", streamID), nil)
	}
	return filepath.Join(s.dir, streamID+".json"), nil
}

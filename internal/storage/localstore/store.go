// Package localstore is an on-disk content-addressed implementation of
// storage.Store for offline and CI publishing.
//
// Blobs live under `<dir>/blobs/<aa>/<digest>` where digest is the BLAKE3 of
// the uploaded bytes, so re-uploading identical bytes is a no-op that returns
// the same reference. Every key that has been uploaded is journaled in
// `<dir>/index.jsonl`.
package localstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tutorialpub/internal/digest"
	"tutorialpub/internal/fileutil"
	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
)

// RefPrefix marks references issued by this store.
const RefPrefix = "local:"

// IndexEntry is one line of the key journal.
type IndexEntry struct {
	Key         string    `json:"key"`
	Ref         string    `json:"ref"`
	Size        int       `json:"size"`
	Compression string    `json:"compression"`
	StoredAt    time.Time `json:"stored_at"`
}

// Store is a local content-addressed blob store.
type Store struct {
	dir string

	mu    sync.Mutex
	index map[string]string
}

var _ storage.Store = (*Store)(nil)

// Open prepares dir and loads the key journal.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("local storage directory required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "blobs"), 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	s := &Store{dir: dir, index: make(map[string]string)}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Upload stores data and returns its content reference.
func (s *Store) Upload(ctx context.Context, key string, data []byte, _ storage.Credentials) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrUpload, "localstore", "upload", key, err)
	}
	sum := digest.Bytes(data)
	ref := RefPrefix + sum
	blobPath := s.blobPath(sum)

	s.mu.Lock()
	defer s.mu.Unlock()

	compression := "existing"
	if _, err := os.Stat(blobPath); errors.Is(err, fs.ErrNotExist) {
		encoded, used, err := encodeBlob(data, compressionFor(key))
		if err != nil {
			return "", services.Wrap(services.ErrUpload, "localstore", "encode", key, err)
		}
		if err := fileutil.WriteFileAtomic(blobPath, encoded, 0o644); err != nil {
			return "", services.Wrap(services.ErrUpload, "localstore", "write blob", key, err)
		}
		compression = used.String()
	} else if err != nil {
		return "", services.Wrap(services.ErrUpload, "localstore", "stat blob", key, err)
	}

	if s.index[key] == ref {
		return ref, nil
	}
	entry := IndexEntry{Key: key, Ref: ref, Size: len(data), Compression: compression, StoredAt: time.Now().UTC()}
	if err := s.appendIndex(entry); err != nil {
		return "", services.Wrap(services.ErrUpload, "localstore", "journal", key, err)
	}
	s.index[key] = ref
	return ref, nil
}

// Read returns the bytes behind ref.
func (s *Store) Read(ref string) ([]byte, error) {
	sum, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok || !digest.Valid(sum) {
		return nil, services.Wrap(services.ErrNotFound, "localstore", "read", "invalid reference "+ref, nil)
	}
	blob, err := os.ReadFile(s.blobPath(sum))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "localstore", "read", ref, nil)
		}
		return nil, services.Wrap(services.ErrIO, "localstore", "read", ref, err)
	}
	data, err := decodeBlob(blob)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "localstore", "decode", ref, err)
	}
	if digest.Bytes(data) != sum {
		return nil, services.Wrap(services.ErrIO, "localstore", "verify", ref+": content does not match reference", nil)
	}
	return data, nil
}

func (s *Store) blobPath(sum string) string {
	return filepath.Join(s.dir, "blobs", sum[:2], sum)
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.jsonl")
}

func (s *Store) loadIndex() error {
	f, err := os.Open(s.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry IndexEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// A torn final line from a crash is skipped.
			continue
		}
		s.index[entry.Key] = entry.Ref
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	return nil
}

func (s *Store) appendIndex(entry IndexEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.indexPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func compressionFor(key string) Compression {
	contentType := storage.ContentType(key)
	switch {
	case storage.IsText(contentType):
		return CompressionZstd
	case strings.HasPrefix(contentType, "image/"), strings.HasPrefix(contentType, "video/"):
		return CompressionNone
	default:
		return CompressionLZ4
	}
}

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/tidwall/jsonc"

	"tutorialpub/internal/logging"
	"tutorialpub/internal/fileutil"
	"tutorialpub/internal/services"
)

// Store owns a manifest file for the duration of a run. Reads and writes go
// through an in-memory copy; Write flushes the whole copy atomically, so a
// Set followed by Write never loses another file's concurrent update.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock

	mu   sync.Mutex
	data Manifest
}

// Open returns a store for the manifest at path. Nothing is read until Read.
func Open(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "manifest"),
		lock:   flock.New(path + ".lock"),
		data:   New(""),
	}
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Lock takes the cross-process advisory lock guarding the manifest. A second
// process publishing the same package fails fast with ErrManifestLocked.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrIO, "manifest", "lock", s.lock.Path(), err)
	}
	if !ok {
		return services.Wrap(services.ErrManifestLocked, "manifest", "lock", "another publish run holds "+s.lock.Path(), nil)
	}
	return nil
}

// Unlock releases the advisory lock.
func (s *Store) Unlock() error {
	return s.lock.Unlock()
}

// Read loads the manifest from disk, replacing the in-memory copy. A missing
// file yields an empty manifest; an unparsable one is ErrManifestCorrupt.
func (s *Store) Read() (Manifest, error) {
	loaded, err := load(s.path)
	if err != nil {
		return Manifest{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = loaded
	s.logger.Debug("loaded manifest",
		logging.String("manifest", s.path),
		logging.Int("entry_count", len(loaded.Content)))
	return s.data.Clone(), nil
}

// Snapshot returns a copy of the in-memory manifest.
func (s *Store) Snapshot() Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Get returns the in-memory record for path.
func (s *Store) Get(path string) (TrackedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Get(path)
}

// Set upserts the record for path in memory.
func (s *Store) Set(path string, file TrackedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(path, file)
}

// Update replaces the record for path with fn's result. fn receives the
// current record, or a zero value with Path set when none exists.
func (s *Store) Update(path string, fn func(TrackedFile) TrackedFile) TrackedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := CleanPath(path)
	current, ok := s.data.Content[key]
	if !ok {
		current = TrackedFile{Path: key}
	}
	next := fn(current)
	s.set(key, next)
	return s.data.Content[key]
}

// UpdatePackage applies fn to the package-level fields under the store lock.
// fn must not retain the pointer.
func (s *Store) UpdatePackage(fn func(*Manifest)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
	if s.data.Content == nil {
		s.data.Content = make(map[string]TrackedFile)
	}
}

// Write durably flushes the in-memory manifest.
func (s *Store) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// SetAndWrite upserts one record and flushes under a single critical section,
// so the file on disk never holds a half-applied update.
func (s *Store) SetAndWrite(path string, file TrackedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(path, file)
	return s.flush()
}

func (s *Store) set(path string, file TrackedFile) {
	key := CleanPath(path)
	file.Path = key
	if s.data.Content == nil {
		s.data.Content = make(map[string]TrackedFile)
	}
	s.data.Content[key] = file
}

func (s *Store) flush() error {
	if err := save(s.path, s.data); err != nil {
		return services.Wrap(services.ErrIO, "manifest", "write", s.path, err)
	}
	return nil
}

func load(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(""), nil
		}
		return Manifest{}, services.Wrap(services.ErrIO, "manifest", "read", path, err)
	}
	if len(raw) == 0 {
		return New(""), nil
	}

	var decoded Manifest
	if err := json.Unmarshal(jsonc.ToJSON(raw), &decoded); err != nil {
		return Manifest{}, services.Wrap(services.ErrManifestCorrupt, "manifest", "parse", path, err)
	}

	out := decoded
	out.Content = make(map[string]TrackedFile, len(decoded.Content))
	for key, file := range decoded.Content {
		clean := CleanPath(key)
		if clean == "" || clean == "." || strings.HasPrefix(clean, "/") || hasParentRef(clean) {
			return Manifest{}, services.Wrap(services.ErrManifestCorrupt, "manifest", "validate", fmt.Sprintf("invalid content key %q", key), nil)
		}
		if file.Path != "" && CleanPath(file.Path) != clean {
			return Manifest{}, services.Wrap(services.ErrManifestCorrupt, "manifest", "validate", fmt.Sprintf("entry %q records path %q", key, file.Path), nil)
		}
		if _, dup := out.Content[clean]; dup {
			return Manifest{}, services.Wrap(services.ErrManifestCorrupt, "manifest", "validate", fmt.Sprintf("duplicate content key %q", clean), nil)
		}
		file.Path = clean
		out.Content[clean] = file
	}
	return out, nil
}

func save(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

func hasParentRef(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

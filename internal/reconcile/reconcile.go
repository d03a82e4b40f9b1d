// Package reconcile brings the remote metadata document in line with the
// manifest, one file at a time, writing only when an entry actually differs.
//
// All writes in a run go through one accumulator document seeded from the
// snapshot read at the start of the run. Each write carries every entry
// reconciled so far, so a later write can never revert an earlier file's
// entry. The snapshot itself is never modified.
package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"tutorialpub/internal/logging"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/metadata"
	"tutorialpub/internal/services"
)

// Result describes what reconciling one file did.
type Result struct {
	Path  string
	Wrote bool
}

// Reconciler is scoped to a single publish run.
type Reconciler struct {
	store    metadata.Store
	streamID string
	snapshot *metadata.Document
	logger   *slog.Logger

	mu     sync.Mutex
	acc    *metadata.Document
	writes int
}

// New returns a reconciler for streamID. snapshot is the document read at
// the start of the run; nil is treated as empty.
func New(store metadata.Store, streamID string, snapshot *metadata.Document, logger *slog.Logger) *Reconciler {
	frozen := snapshot.Clone()
	return &Reconciler{
		store:    store,
		streamID: streamID,
		snapshot: frozen,
		logger:   logging.NewComponentLogger(logger, "reconcile"),
		acc:      frozen.Clone(),
	}
}

// Reconcile writes file's entry when it differs from the snapshot. A failed
// write is returned and leaves no trace in later writes.
func (r *Reconciler) Reconcile(ctx context.Context, file manifest.TrackedFile) (Result, error) {
	key := manifest.CleanPath(file.Path)
	file.Path = key
	result := Result{Path: key}
	logger := logging.WithContext(ctx, r.logger)

	if remote, ok := r.snapshot.Content[key]; ok && remote.Equal(file) {
		logger.Debug("metadata already synced")
		return result, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, hadPrevious := r.acc.Content[key]
	r.acc.Content[key] = file
	if err := r.store.SetDocument(ctx, r.streamID, r.acc.Clone()); err != nil {
		if hadPrevious {
			r.acc.Content[key] = previous
		} else {
			delete(r.acc.Content, key)
		}
		return result, services.Wrap(services.ErrReconcile, "reconcile", "set document", key, err)
	}
	r.writes++
	result.Wrote = true
	logger.Info("metadata entry written",
		logging.String("storage_ref", file.StorageRef),
		logging.String(logging.FieldEventType, "metadata_written"))
	return result, nil
}

// Writes returns how many document writes succeeded.
func (r *Reconciler) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Document returns a copy of the document as last written, or the snapshot
// when nothing was written.
func (r *Reconciler) Document() *metadata.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acc.Clone()
}

package publish

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"tutorialpub/internal/digest"
	"tutorialpub/internal/logging"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/plan"
	"tutorialpub/internal/proposal"
	"tutorialpub/internal/reconcile"
	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
	"tutorialpub/internal/workerpool"
)

// Publish runs one publish pass over the package at req.Root.
//
// A nil error is returned for Completed and PartiallyFailed runs; inspect
// RunResult.State and Outcomes. A Rejected run returns both the result and an
// error matching services.ErrStateRejected. Other errors (locked or corrupt
// manifest, unreachable authority, unreadable metadata snapshot) abort the
// run before any upload and return a nil result.
func (p *Publisher) Publish(ctx context.Context, req Request) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		Root:      req.Root,
		StartedAt: p.now(),
	}
	ctx = services.WithRunID(ctx, result.RunID)

	store := manifest.Open(p.manifestPath(req.Root), p.logger)
	if err := store.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			p.logger.Debug("manifest unlock failed", logging.Error(err))
		}
	}()

	current, err := store.Read()
	if err != nil {
		return nil, err
	}

	result.Slug = resolveSlug(req, current)
	ctx = services.WithPackage(ctx, result.Slug)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("publish started",
		logging.String("root", req.Root),
		logging.Int("workers", p.opts.Workers),
		logging.Bool("skip_images", req.SkipImages))

	state, err := p.lookupState(ctx, current, result.Slug)
	if err != nil {
		return nil, err
	}
	result.PackageState = state.State
	if !state.Publishable() {
		result.State = StateRejected
		result.Manifest = current
		result.FinishedAt = p.now()
		rejectErr := services.Wrap(services.ErrStateRejected, "publish", "check state",
			result.Slug+" is "+emptyAs(state.State, "unknown")+"; only readyToPublish or published packages can be published", nil)
		logging.WarnWithContext(logger, "publish rejected", "publish_rejected",
			logging.String("package_state", state.State),
			logging.String(logging.FieldErrorHint, "wait until the proposal is ready to publish"),
			logging.String(logging.FieldImpact, "no files were uploaded"))
		p.record(ctx, result, rejectErr)
		return result, rejectErr
	}
	if state.StreamID == "" {
		return nil, services.Wrap(services.ErrStateLookup, "publish", "check state", result.Slug+": package has no metadata stream", nil)
	}
	packageChanged := false
	store.UpdatePackage(func(m *manifest.Manifest) {
		packageChanged = applyPackageFields(m, result.Slug, state)
	})

	files, filter, err := p.discover(req.Root, req.SkipImages)
	if err != nil {
		return nil, err
	}
	planned := plan.Compute(ctx, store.Snapshot(), files, plan.Options{Filter: filter, Workers: p.opts.Workers})
	result.Excluded = planned.Excluded

	if err := p.register(store, planned, packageChanged); err != nil {
		return nil, err
	}

	snapshot, err := p.metadata.GetDocument(ctx, state.StreamID)
	if err != nil {
		return nil, services.Wrap(services.ErrReconcile, "publish", "read metadata snapshot", state.StreamID, err)
	}
	reconciler := reconcile.New(p.metadata, state.StreamID, snapshot, p.logger)

	logger.Info("publish planned",
		logging.Int("files", len(planned.Changes)),
		logging.Int("uploads", planned.Changes.Uploads()),
		logging.Int("unreadable", len(planned.Failures)),
		logging.Int("excluded", len(planned.Excluded)))

	task := p.fileTask(store, reconciler, result.Slug)
	results := workerpool.Run(ctx, p.opts.Workers, planned.Changes, task)

	outcomes := make([]FileOutcome, 0, len(results)+len(planned.Failures))
	for i, r := range results {
		if r.Err != nil {
			entry := planned.Changes[i]
			outcomes = append(outcomes, FileOutcome{
				Path:   entry.File.Path,
				Status: StatusUploadFailed,
				Digest: entry.CurrentDigest,
				Err:    services.Wrap(services.ErrUpload, "publish", "process file", entry.File.Path, r.Err),
			})
			continue
		}
		outcomes = append(outcomes, r.Value)
	}
	for _, failure := range planned.Failures {
		outcome := FileOutcome{Path: failure.Path, Status: StatusUploadFailed, Err: failure.Err}
		fileCtx := services.WithPath(ctx, failure.Path)
		p.reconcile(fileCtx, logging.WithContext(fileCtx, p.logger), store, reconciler, &outcome)
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Path < outcomes[j].Path })

	result.Outcomes = outcomes
	for _, o := range outcomes {
		if o.Uploaded {
			result.Uploads++
		}
	}
	result.MetadataWrites = reconciler.Writes()
	result.Manifest = store.Snapshot()
	result.Metadata = reconciler.Document()
	result.State = StateCompleted
	if result.Failed() > 0 {
		result.State = StatePartiallyFailed
	}
	result.FinishedAt = p.now()

	logger.Info("publish finished",
		logging.String("state", string(result.State)),
		logging.Int("uploads", result.Uploads),
		logging.Int("metadata_writes", result.MetadataWrites),
		logging.Int("failed", result.Failed()),
		logging.Duration("duration", result.Duration()),
		logging.String("title", result.Metadata.StringField("title")),
		logging.Int("metadata_entries", len(result.Metadata.Content)))

	p.record(ctx, result, nil)
	return result, nil
}

// register adds newly discovered files to the manifest before any upload so
// an interrupted run still leaves them tracked.
func (p *Publisher) register(store *manifest.Store, planned plan.Result, dirty bool) error {
	added := 0
	for _, entry := range planned.Changes {
		if _, ok := store.Get(entry.File.Path); ok {
			continue
		}
		store.Set(entry.File.Path, manifest.TrackedFile{Path: entry.File.Path, Name: entry.File.Name})
		added++
	}
	if added == 0 && !dirty {
		return nil
	}
	if added > 0 {
		p.logger.Debug("registered new files", logging.Int("count", added))
	}
	return store.Write()
}

// fileTask returns the per-file pipeline: read, upload when needed, record
// and flush, then reconcile. Reconcile runs whatever the upload step did,
// mirroring the just-updated record or, after a failed upload, the record
// the manifest already had.
func (p *Publisher) fileTask(store *manifest.Store, reconciler *reconcile.Reconciler, slug string) func(context.Context, plan.Entry) (FileOutcome, error) {
	return func(ctx context.Context, entry plan.Entry) (FileOutcome, error) {
		path := entry.File.Path
		ctx = services.WithPath(ctx, path)
		logger := logging.WithContext(ctx, p.logger)
		outcome := FileOutcome{Path: path, Digest: entry.CurrentDigest}

		if entry.SkipUpload {
			logger.Debug("file unchanged, upload skipped")
		} else {
			p.upload(ctx, logger, store, entry, slug, &outcome)
		}

		p.reconcile(ctx, logger, store, reconciler, &outcome)
		return outcome, nil
	}
}

// upload sends the file and records the new reference. Failures are stored
// on outcome with StatusUploadFailed.
func (p *Publisher) upload(ctx context.Context, logger *slog.Logger, store *manifest.Store, entry plan.Entry, slug string, outcome *FileOutcome) {
	path := entry.File.Path
	data, err := os.ReadFile(entry.FullPath)
	if err != nil {
		outcome.Status = StatusUploadFailed
		outcome.Err = services.Wrap(services.ErrIO, "publish", "read file", path, err)
		logging.WarnWithContext(logger, "file read failed", "file_read_failed", logging.Error(outcome.Err))
		return
	}
	// Record the digest of the bytes actually sent, even if the file
	// changed after planning.
	sent := digest.Bytes(data)
	outcome.Digest = sent

	ref, err := p.storage.Upload(ctx, storage.ObjectKey(slug, path), data, p.opts.Credentials)
	if err != nil {
		if !errors.Is(err, services.ErrUpload) {
			err = services.Wrap(services.ErrUpload, "publish", "upload", path, err)
		}
		outcome.Status = StatusUploadFailed
		outcome.Err = err
		logging.WarnWithContext(logger, "upload failed", "upload_failed", logging.Error(err))
		return
	}

	record, _ := store.Get(path)
	if record.Name == "" {
		record.Name = entry.File.Name
	}
	if err := store.SetAndWrite(path, record.WithUpload(sent, ref)); err != nil {
		outcome.Status = StatusUploadFailed
		outcome.Err = err
		logging.WarnWithContext(logger, "manifest flush failed after upload", "manifest_flush_failed",
			logging.Error(err),
			logging.String("storage_ref", ref),
			logging.String(logging.FieldImpact, "upload will be repeated on the next run"))
		return
	}
	outcome.Uploaded = true
	logger.Info("file uploaded",
		logging.String("storage_ref", ref),
		logging.String(logging.FieldEventType, "file_uploaded"))
}

// reconcile mirrors the manifest record for outcome.Path into the metadata
// document. A record that was never uploaded has nothing to mirror. An
// upload failure keeps its status; a reconcile failure after a good upload
// becomes StatusReconcileFailed.
func (p *Publisher) reconcile(ctx context.Context, logger *slog.Logger, store *manifest.Store, reconciler *reconcile.Reconciler, outcome *FileOutcome) {
	record, _ := store.Get(outcome.Path)
	outcome.StorageRef = record.StorageRef
	if !record.Uploaded() {
		return
	}
	res, err := reconciler.Reconcile(ctx, record)
	if err != nil {
		logging.WarnWithContext(logger, "metadata reconcile failed", "reconcile_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "metadata will be retried on the next run"))
		if outcome.Status == StatusUploadFailed {
			return
		}
		outcome.Status = StatusReconcileFailed
		outcome.Err = err
		return
	}
	outcome.MetadataWritten = res.Wrote
	if outcome.Status == "" {
		outcome.Status = StatusSuccess
	}
}

// applyPackageFields mirrors authority-owned fields into the manifest
// without overwriting values already recorded. It reports whether anything
// changed.
func applyPackageFields(m *manifest.Manifest, slug string, state *proposal.State) bool {
	changed := false
	if m.Slug == "" && slug != "" {
		m.Slug = slug
		changed = true
	}
	if m.ProposalID == 0 && state.ID > 0 {
		m.ProposalID = state.ID
		changed = true
	}
	if m.Creator == "" && state.Creator != "" {
		m.Creator = state.Creator
		changed = true
	}
	return changed
}

func emptyAs(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

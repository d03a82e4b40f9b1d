package publish

import (
	"context"
	"sort"

	"tutorialpub/internal/logging"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/plan"
	"tutorialpub/internal/proposal"
	"tutorialpub/internal/services"
)

// PrepareRequest selects the package to prepare.
type PrepareRequest struct {
	Root string
	Slug string
	// SkipReviewers leaves reviewer assignments untouched.
	SkipReviewers bool
	// Force overwrites proposal fields already recorded in the manifest.
	Force bool
}

// PrepareResult reports what Prepare changed.
type PrepareResult struct {
	Slug         string
	PackageState string
	// Added lists files newly tracked by the manifest.
	Added []string
	// Changed lists tracked files whose digest differs from the manifest.
	// Their storage references were cleared.
	Changed []string
	// Unreadable lists files whose digest could not be computed.
	Unreadable []plan.Failure
	Manifest   manifest.Manifest
}

// Prepare mirrors the package's proposal fields into the manifest and
// refreshes every file's name and digest without uploading. It does not
// require a publishable state.
func (p *Publisher) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResult, error) {
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
	slug := resolveSlug(Request{Root: req.Root, Slug: req.Slug}, current)
	ctx = services.WithPackage(ctx, slug)
	logger := logging.WithContext(ctx, p.logger)

	state, err := p.lookupState(ctx, current, slug)
	if err != nil {
		return nil, err
	}
	store.UpdatePackage(func(m *manifest.Manifest) {
		syncProposal(m, slug, state, req.SkipReviewers, req.Force)
	})

	files, _, err := p.discover(req.Root, false)
	if err != nil {
		return nil, err
	}
	planned := plan.Compute(ctx, store.Snapshot(), files, plan.Options{Workers: p.opts.Workers})

	result := &PrepareResult{Slug: slug, PackageState: state.State, Unreadable: planned.Failures}
	names := make(map[string]string, len(files))
	for _, f := range files {
		names[f.Path] = f.Name
	}
	for _, entry := range planned.Changes {
		path := entry.File.Path
		_, tracked := store.Get(path)
		updated := store.Update(path, func(f manifest.TrackedFile) manifest.TrackedFile {
			if name := names[path]; name != "" {
				f.Name = name
			}
			return f.WithDigest(entry.CurrentDigest)
		})
		switch {
		case !tracked:
			result.Added = append(result.Added, path)
		case entry.File.Digest != updated.Digest:
			result.Changed = append(result.Changed, path)
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Changed)

	if err := store.Write(); err != nil {
		return nil, err
	}
	result.Manifest = store.Snapshot()

	logger.Info("package prepared",
		logging.Int64("proposal_id", result.Manifest.ProposalID),
		logging.String("package_state", state.State),
		logging.Int("added", len(result.Added)),
		logging.Int("changed", len(result.Changed)),
		logging.Int("unreadable", len(result.Unreadable)))
	return result, nil
}

// syncProposal mirrors the authority's view of the package into m. Slug and
// creator are filled only when empty unless force is set. The proposal id and
// reviewer assignments follow the authority on every run unless
// skipReviewers is set, in which case only force moves the proposal id.
func syncProposal(m *manifest.Manifest, slug string, state *proposal.State, skipReviewers, force bool) {
	if force || m.Slug == "" {
		m.Slug = slug
	}
	if state.Creator != "" && (force || m.Creator == "") {
		m.Creator = state.Creator
	}
	if state.ID > 0 && (force || !skipReviewers || m.ProposalID == 0) {
		m.ProposalID = state.ID
	}
	if skipReviewers {
		return
	}
	m.Reviewers.Reviewer1 = toManifestReviewer(state.Reviewer1)
	m.Reviewers.Reviewer2 = toManifestReviewer(state.Reviewer2)
}

func toManifestReviewer(r *proposal.Reviewer) *manifest.Reviewer {
	if r == nil {
		return nil
	}
	return &manifest.Reviewer{PDA: r.PDA, Pubkey: r.Pubkey, GithubName: r.GithubName}
}

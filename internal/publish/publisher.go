package publish

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"tutorialpub/internal/content"
	"tutorialpub/internal/history"
	"tutorialpub/internal/logging"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/metadata"
	"tutorialpub/internal/proposal"
	"tutorialpub/internal/services"
	"tutorialpub/internal/storage"
	"tutorialpub/internal/workerpool"
)

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Dependencies are the external collaborators of a Publisher.
type Dependencies struct {
	Storage   storage.Store
	Metadata  metadata.Store
	Proposals proposal.Authority
	// History is optional.
	History Recorder
	Logger  *slog.Logger
}

// Options tunes a Publisher.
type Options struct {
	Workers         int
	ManifestName    string
	ImageExtensions []string
	Credentials     storage.Credentials
}

// Planner computes dry-run plans. It touches only the local package.
type Planner struct {
	logger *slog.Logger
	opts   Options
}

// NewPlanner returns a Planner with defaults applied to opts.
func NewPlanner(opts Options, logger *slog.Logger) *Planner {
	if opts.Workers <= 0 {
		opts.Workers = workerpool.DefaultLimit
	}
	if strings.TrimSpace(opts.ManifestName) == "" {
		opts.ManifestName = "tutorial.lock.json"
	}
	return &Planner{
		logger: logging.NewComponentLogger(logger, "publish"),
		opts:   opts,
	}
}

// Publisher runs publish, prepare and plan operations.
type Publisher struct {
	*Planner

	storage   storage.Store
	metadata  metadata.Store
	proposals proposal.Authority
	history   Recorder
	now       func() time.Time
}

// New validates deps and returns a Publisher.
func New(deps Dependencies, opts Options) (*Publisher, error) {
	switch {
	case deps.Storage == nil:
		return nil, errors.New("publish: storage store required")
	case deps.Metadata == nil:
		return nil, errors.New("publish: metadata store required")
	case deps.Proposals == nil:
		return nil, errors.New("publish: proposal authority required")
	}
	return &Publisher{
		Planner:   NewPlanner(opts, deps.Logger),
		storage:   deps.Storage,
		metadata:  deps.Metadata,
		proposals: deps.Proposals,
		history:   deps.History,
		now:       time.Now,
	}, nil
}

// Request selects the package to publish.
type Request struct {
	// Root is the package directory.
	Root string
	// Slug overrides the manifest slug. When both are empty the root's base
	// name is used.
	Slug string
	// SkipImages leaves image files out of the run entirely.
	SkipImages bool
}

func (p *Planner) manifestPath(root string) string {
	return filepath.Join(root, p.opts.ManifestName)
}

func (p *Planner) discover(root string, skipImages bool) ([]content.File, func(content.File) bool, error) {
	files, err := content.Discover(root, content.Options{ManifestName: p.opts.ManifestName})
	if err != nil {
		return nil, nil, err
	}
	var filter func(content.File) bool
	if skipImages {
		filter = content.SkipImages(p.opts.ImageExtensions)
	}
	return files, filter, nil
}

func resolveSlug(req Request, m manifest.Manifest) string {
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		return slug
	}
	if slug := strings.TrimSpace(m.Slug); slug != "" {
		return slug
	}
	return filepath.Base(filepath.Clean(req.Root))
}

// lookupState asks the authority about the package, by proposal id when the
// manifest has one and by slug otherwise.
func (p *Publisher) lookupState(ctx context.Context, m manifest.Manifest, slug string) (*proposal.State, error) {
	var (
		state *proposal.State
		err   error
	)
	if m.ProposalID > 0 {
		state, err = p.proposals.GetPackageState(ctx, m.ProposalID)
	} else {
		state, err = p.proposals.FindBySlug(ctx, slug)
	}
	if err != nil {
		if errors.Is(err, services.ErrStateLookup) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrStateLookup, "publish", "lookup state", slug, err)
	}
	if state == nil {
		return nil, services.Wrap(services.ErrStateLookup, "publish", "lookup state", slug+": no state returned", nil)
	}
	return state, nil
}

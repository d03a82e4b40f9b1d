package publish

import (
	"context"

	"tutorialpub/internal/manifest"
	"tutorialpub/internal/plan"
)

// PlanResult is a dry-run view of what Publish would do.
type PlanResult struct {
	Slug   string
	Result plan.Result
	// Untracked lists planned files the manifest does not know yet.
	Untracked []string
}

// Plan computes the ChangeSet for req without locking the manifest or
// contacting any remote service.
func (p *Planner) Plan(ctx context.Context, req Request) (*PlanResult, error) {
	current, err := manifest.Open(p.manifestPath(req.Root), p.logger).Read()
	if err != nil {
		return nil, err
	}
	files, filter, err := p.discover(req.Root, req.SkipImages)
	if err != nil {
		return nil, err
	}
	planned := plan.Compute(ctx, current, files, plan.Options{Filter: filter, Workers: p.opts.Workers})

	out := &PlanResult{Slug: resolveSlug(req, current), Result: planned}
	for _, entry := range planned.Changes {
		if _, ok := current.Get(entry.File.Path); !ok {
			out.Untracked = append(out.Untracked, entry.File.Path)
		}
	}
	return out, nil
}

package publish

import (
	"context"

	"tutorialpub/internal/history"
	"tutorialpub/internal/logging"
	"tutorialpub/internal/services"
)

// record appends the run to the history ledger. Ledger failures are logged
// and never change the run's outcome.
func (p *Publisher) record(ctx context.Context, result *RunResult, runErr error) {
	if p.history == nil || result == nil {
		return
	}
	run := history.Run{
		ID:             result.RunID,
		Slug:           result.Slug,
		PackageRoot:    result.Root,
		State:          string(result.State),
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		Uploads:        result.Uploads,
		MetadataWrites: result.MetadataWrites,
		Failed:         result.Failed(),
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	for _, o := range result.Outcomes {
		file := history.File{
			Path:            o.Path,
			Status:          string(o.Status),
			Digest:          o.Digest,
			StorageRef:      o.StorageRef,
			Uploaded:        o.Uploaded,
			MetadataWritten: o.MetadataWritten,
		}
		if o.Err != nil {
			file.ErrorKind = services.Kind(o.Err)
			file.ErrorMessage = o.Err.Error()
		}
		run.Files = append(run.Files, file)
	}
	if err := p.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "run history not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
			logging.String(logging.FieldImpact, "this run will be missing from tutorialpub history"))
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tutorialpub/internal/publish"
	"tutorialpub/internal/services"
)

type outcomeView struct {
	Path            string `json:"path"`
	Status          string `json:"status"`
	Digest          string `json:"digest,omitempty"`
	StorageRef      string `json:"storage_ref,omitempty"`
	Uploaded        bool   `json:"uploaded"`
	MetadataWritten bool   `json:"metadata_written"`
	ErrorKind       string `json:"error_kind,omitempty"`
	Error           string `json:"error,omitempty"`
}

type runView struct {
	RunID          string        `json:"run_id"`
	Slug           string        `json:"slug"`
	Root           string        `json:"root"`
	State          string        `json:"state"`
	PackageState   string        `json:"package_state"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Uploads        int           `json:"uploads"`
	MetadataWrites int           `json:"metadata_writes"`
	Failed         int           `json:"failed"`
	Excluded       []string      `json:"excluded,omitempty"`
	Files          []outcomeView `json:"files"`
	Error          string        `json:"error,omitempty"`
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var run runFlags
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "publish [slug]",
		Short: "Upload changed files and reconcile package metadata",
		Long: "Publish uploads every new or changed file of a tutorial package to the content store,\n" +
			"records each storage reference in the manifest, and mirrors the entry into the package's\n" +
			"metadata document. Without a slug the current directory is the package.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, slug, err := ctx.packageRoot(args)
			if err != nil {
				return err
			}
			publisher, closeDeps, err := ctx.newPublisher(&run)
			if err != nil {
				return err
			}
			defer closeDeps()

			result, runErr := publisher.Publish(cmd.Context(), publish.Request{
				Root:       root,
				Slug:       slug,
				SkipImages: run.skipImagesOr(cmd.Flags(), ctx.config.Publish.SkipImages),
			})
			if result == nil {
				if services.RunFatal(runErr) {
					return fmt.Errorf("publish aborted before any upload: %w", runErr)
				}
				return runErr
			}

			if output.json {
				if err := writeJSON(cmd, newRunView(result, runErr)); err != nil {
					return err
				}
			} else {
				renderRunResult(cmd, result)
			}
			if runErr != nil {
				return runErr
			}
			if result.State == publish.StatePartiallyFailed {
				return fmt.Errorf("publish %s: %d of %d files failed", result.Slug, result.Failed(), len(result.Outcomes))
			}
			return nil
		},
	}

	addRunFlags(cmd.Flags(), &run)
	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

func newRunView(result *publish.RunResult, runErr error) runView {
	view := runView{
		RunID:          result.RunID,
		Slug:           result.Slug,
		Root:           result.Root,
		State:          string(result.State),
		PackageState:   result.PackageState,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		Uploads:        result.Uploads,
		MetadataWrites: result.MetadataWrites,
		Failed:         result.Failed(),
		Excluded:       result.Excluded,
		Files:          make([]outcomeView, 0, len(result.Outcomes)),
		Error:          errorText(runErr),
	}
	for _, o := range result.Outcomes {
		item := outcomeView{
			Path:            o.Path,
			Status:          string(o.Status),
			Digest:          o.Digest,
			StorageRef:      o.StorageRef,
			Uploaded:        o.Uploaded,
			MetadataWritten: o.MetadataWritten,
			Error:           errorText(o.Err),
		}
		if o.Err != nil {
			item.ErrorKind = services.Kind(o.Err)
		}
		view.Files = append(view.Files, item)
	}
	return view
}

func renderRunResult(cmd *cobra.Command, result *publish.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Package %s: %s (state %s)\n", result.Slug, result.State, dash(result.PackageState))
	if result.State == publish.StateRejected {
		fmt.Fprintln(out, "No files were uploaded.")
		return
	}

	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		detail := dash(o.StorageRef)
		if o.Err != nil {
			detail = o.Err.Error()
		}
		rows = append(rows, []string{
			o.Path,
			string(o.Status),
			yesNo(o.Uploaded),
			yesNo(o.MetadataWritten),
			detail,
		})
	}
	writeRows(cmd, []column{textCol("Path"), textCol("Status"), textCol("Uploaded"), textCol("Metadata"), textCol("Ref / Error")}, rows)

	fmt.Fprintf(out, "%d uploaded, %d metadata writes, %d failed, %d excluded in %s\n",
		result.Uploads, result.MetadataWrites, result.Failed(), len(result.Excluded),
		result.Duration().Round(time.Millisecond))
}

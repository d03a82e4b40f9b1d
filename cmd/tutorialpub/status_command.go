package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tutorialpub/internal/publish"
)

type planEntryView struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Digest string `json:"digest,omitempty"`
	Error  string `json:"error,omitempty"`
}

type planView struct {
	Slug    string          `json:"slug"`
	Uploads int             `json:"uploads"`
	Files   []planEntryView `json:"files"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var run runFlags
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "status [slug]",
		Short: "Show what publish would do without contacting any service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, slug, err := ctx.packageRoot(args)
			if err != nil {
				return err
			}
			planner, err := ctx.newPlanner(&run)
			if err != nil {
				return err
			}
			result, err := planner.Plan(cmd.Context(), publish.Request{
				Root:       root,
				Slug:       slug,
				SkipImages: run.skipImagesOr(cmd.Flags(), ctx.config.Publish.SkipImages),
			})
			if err != nil {
				return err
			}

			view := newPlanView(result)
			if output.json {
				return writeJSON(cmd, view)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Package %s\n", view.Slug)
			rows := make([][]string, 0, len(view.Files))
			for _, f := range view.Files {
				detail := shortDigest(f.Digest)
				if f.Error != "" {
					detail = f.Error
				}
				rows = append(rows, []string{f.Path, f.Action, detail})
			}
			writeRows(cmd, []column{textCol("Path"), textCol("Action"), textCol("Digest / Error")}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d files need upload\n", view.Uploads, len(view.Files))
			return nil
		},
	}

	addRunFlags(cmd.Flags(), &run)
	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

func newPlanView(result *publish.PlanResult) planView {
	untracked := make(map[string]bool, len(result.Untracked))
	for _, path := range result.Untracked {
		untracked[path] = true
	}
	view := planView{Slug: result.Slug, Uploads: result.Result.Changes.Uploads()}
	for _, entry := range result.Result.Changes {
		action := "reconcile"
		switch {
		case untracked[entry.File.Path]:
			action = "new"
		case !entry.SkipUpload:
			action = "upload"
		}
		view.Files = append(view.Files, planEntryView{Path: entry.File.Path, Action: action, Digest: entry.CurrentDigest})
	}
	for _, failure := range result.Result.Failures {
		view.Files = append(view.Files, planEntryView{Path: failure.Path, Action: "unreadable", Error: errorText(failure.Err)})
	}
	for _, path := range result.Result.Excluded {
		view.Files = append(view.Files, planEntryView{Path: path, Action: "excluded"})
	}
	return view
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tutorialpub/internal/publish"
)

type prepareView struct {
	Slug         string            `json:"slug"`
	PackageState string            `json:"package_state"`
	ProposalID   int64             `json:"proposal_id,omitempty"`
	Creator      string            `json:"creator,omitempty"`
	Added        []string          `json:"added"`
	Changed      []string          `json:"changed"`
	Unreadable   map[string]string `json:"unreadable,omitempty"`
	Tracked      int               `json:"tracked"`
}

func newPrepublishCommand(ctx *commandContext) *cobra.Command {
	var skipReviewers bool
	var force bool
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "prepublish [slug]",
		Short: "Sync proposal details and file digests into the manifest",
		Long: "Prepublish records the proposal id, creator and reviewers in the package manifest and\n" +
			"refreshes every file's name and digest without uploading anything.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, slug, err := ctx.packageRoot(args)
			if err != nil {
				return err
			}
			publisher, closeDeps, err := ctx.newPublisher(nil)
			if err != nil {
				return err
			}
			defer closeDeps()

			result, err := publisher.Prepare(cmd.Context(), publish.PrepareRequest{
				Root:          root,
				Slug:          slug,
				SkipReviewers: skipReviewers,
				Force:         force,
			})
			if err != nil {
				return err
			}

			view := prepareView{
				Slug:         result.Slug,
				PackageState: result.PackageState,
				ProposalID:   result.Manifest.ProposalID,
				Creator:      result.Manifest.Creator,
				Added:        nonNil(result.Added),
				Changed:      nonNil(result.Changed),
				Tracked:      len(result.Manifest.Content),
			}
			if len(result.Unreadable) > 0 {
				view.Unreadable = make(map[string]string, len(result.Unreadable))
				for _, failure := range result.Unreadable {
					view.Unreadable[failure.Path] = errorText(failure.Err)
				}
			}
			if output.json {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Package %s (state %s, proposal %d)\n", view.Slug, dash(view.PackageState), view.ProposalID)
			rows := make([][]string, 0, len(view.Added)+len(view.Changed)+len(result.Unreadable))
			for _, path := range view.Added {
				rows = append(rows, []string{path, "added", ""})
			}
			for _, path := range view.Changed {
				rows = append(rows, []string{path, "changed", "storage reference cleared"})
			}
			for _, failure := range result.Unreadable {
				rows = append(rows, []string{failure.Path, "unreadable", errorText(failure.Err)})
			}
			writeRows(cmd, []column{textCol("Path"), textCol("Change"), textCol("Detail")}, rows)
			fmt.Fprintf(out, "%d tracked, %d added, %d changed\n", view.Tracked, len(view.Added), len(view.Changed))
			if len(result.Unreadable) > 0 {
				return fmt.Errorf("prepublish %s: %d files could not be read", view.Slug, len(result.Unreadable))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipReviewers, "skip-reviewers", false, "Leave reviewer assignments untouched")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite proposal fields already in the manifest")
	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tutorialpub/internal/history"
)

type historyRunView struct {
	ID             string            `json:"id"`
	Slug           string            `json:"slug"`
	State          string            `json:"state"`
	StartedAt      string            `json:"started_at"`
	FinishedAt     string            `json:"finished_at"`
	Uploads        int               `json:"uploads"`
	MetadataWrites int               `json:"metadata_writes"`
	Failed         int               `json:"failed"`
	Error          string            `json:"error,omitempty"`
	Files          []historyFileView `json:"files,omitempty"`
}

type historyFileView struct {
	Path            string `json:"path"`
	Status          string `json:"status"`
	Digest          string `json:"digest,omitempty"`
	StorageRef      string `json:"storage_ref,omitempty"`
	Uploaded        bool   `json:"uploaded"`
	MetadataWritten bool   `json:"metadata_written"`
	ErrorKind       string `json:"error_kind,omitempty"`
	Error           string `json:"error,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "history [slug]",
		Short: "List recorded publish runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ledger, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			if id := strings.TrimSpace(runID); id != "" {
				return showRunFiles(cmd, ledger, id, output.json)
			}

			var slug string
			if len(args) > 0 {
				slug = strings.TrimSpace(args[0])
			}
			runs, err := ledger.List(cmd.Context(), slug, limit)
			if err != nil {
				return err
			}
			views := make([]historyRunView, 0, len(runs))
			for _, r := range runs {
				views = append(views, newHistoryRunView(r))
			}
			if output.json {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No publish runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.ID,
					v.Slug,
					v.State,
					v.StartedAt,
					strconv.Itoa(v.Uploads),
					strconv.Itoa(v.MetadataWrites),
					strconv.Itoa(v.Failed),
				})
			}
			writeRows(cmd, []column{
				textCol("Run"), textCol("Package"), textCol("State"), textCol("Started"),
				countCol("Uploads"), countCol("Writes"), countCol("Failed"),
			}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-file outcomes of one run")
	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

func showRunFiles(cmd *cobra.Command, ledger *history.Store, runID string, asJSON bool) error {
	files, err := ledger.Files(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no file outcomes recorded for run %s", runID)
	}
	views := make([]historyFileView, 0, len(files))
	for _, f := range files {
		views = append(views, historyFileView{
			Path:            f.Path,
			Status:          f.Status,
			Digest:          f.Digest,
			StorageRef:      f.StorageRef,
			Uploaded:        f.Uploaded,
			MetadataWritten: f.MetadataWritten,
			ErrorKind:       f.ErrorKind,
			Error:           f.ErrorMessage,
		})
	}
	if asJSON {
		return writeJSON(cmd, views)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		detail := dash(v.StorageRef)
		if v.Error != "" {
			detail = v.ErrorKind + ": " + v.Error
		}
		rows = append(rows, []string{v.Path, v.Status, yesNo(v.Uploaded), yesNo(v.MetadataWritten), detail})
	}
	writeRows(cmd, []column{textCol("Path"), textCol("Status"), textCol("Uploaded"), textCol("Metadata"), textCol("Ref / Error")}, rows)
	return nil
}

func newHistoryRunView(r history.Run) historyRunView {
	return historyRunView{
		ID:             r.ID,
		Slug:           r.Slug,
		State:          r.State,
		StartedAt:      formatTime(r.StartedAt),
		FinishedAt:     formatTime(r.FinishedAt),
		Uploads:        r.Uploads,
		MetadataWrites: r.MetadataWrites,
		Failed:         r.Failed,
		Error:          r.ErrorMessage,
	}
}

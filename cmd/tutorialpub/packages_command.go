package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tutorialpub/internal/config"
	"tutorialpub/internal/content"
	"tutorialpub/internal/digest"
	"tutorialpub/internal/manifest"
	"tutorialpub/internal/services"
	"tutorialpub/internal/storage/localstore"
)

type packageSummaryView struct {
	Slug       string `json:"slug"`
	Dir        string `json:"dir"`
	ProposalID int64  `json:"proposal_id,omitempty"`
	Files      int    `json:"files"`
	Tracked    int    `json:"tracked"`
	Uploaded   int    `json:"uploaded"`
	Error      string `json:"error,omitempty"`
}

type packageFileView struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Digest     string `json:"digest,omitempty"`
	StorageRef string `json:"storage_ref,omitempty"`
	Verified   string `json:"verified,omitempty"`
}

type packageView struct {
	Slug       string             `json:"slug"`
	Dir        string             `json:"dir"`
	ProposalID int64              `json:"proposal_id,omitempty"`
	Creator    string             `json:"creator,omitempty"`
	Reviewers  manifest.Reviewers `json:"reviewers"`
	Files      []packageFileView  `json:"files"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tutorial packages under the tutorials directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			packages, err := listPackages(cfg)
			if err != nil {
				return err
			}
			if output.json {
				bySlug := make(map[string]packageSummaryView, len(packages))
				for _, p := range packages {
					bySlug[p.Slug] = p
				}
				return writeJSON(cmd, bySlug)
			}
			if len(packages) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tutorial packages in %s\n", cfg.Paths.TutorialsDir)
				return nil
			}
			rows := make([][]string, 0, len(packages))
			for _, p := range packages {
				proposal := "-"
				if p.ProposalID > 0 {
					proposal = strconv.FormatInt(p.ProposalID, 10)
				}
				rows = append(rows, []string{
					p.Slug,
					proposal,
					strconv.Itoa(p.Files),
					strconv.Itoa(p.Tracked),
					strconv.Itoa(p.Uploaded),
					dash(p.Error),
				})
			}
			writeRows(cmd, []column{
				textCol("Package"), textCol("Proposal"),
				countCol("Files"), countCol("Tracked"), countCol("Uploaded"),
				textCol("Error"),
			}, rows)
			return nil
		},
	}

	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

// listPackages summarizes every package directory under the tutorials
// directory. A package whose manifest or files cannot be read is still
// listed with its error. Packages are keyed by the slug recorded in their
// manifest, falling back to the directory name; a slug used twice keeps the
// directory name for the later package.
func listPackages(cfg *config.Config) ([]packageSummaryView, error) {
	entries, err := os.ReadDir(cfg.Paths.TutorialsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrIO, "list", "read tutorials dir", cfg.Paths.TutorialsDir, err)
	}

	var packages []packageSummaryView
	seen := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		root := filepath.Join(cfg.Paths.TutorialsDir, entry.Name())
		view := summarizePackage(cfg, root, entry.Name())
		if dir, dup := seen[view.Slug]; dup {
			view.Error = fmt.Sprintf("slug %s already used by %s", view.Slug, dir)
			view.Slug = entry.Name()
		}
		seen[view.Slug] = entry.Name()
		packages = append(packages, view)
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Slug < packages[j].Slug })
	return packages, nil
}

func summarizePackage(cfg *config.Config, root, dir string) packageSummaryView {
	view := packageSummaryView{Slug: dir, Dir: root}
	m, err := manifest.Open(cfg.ManifestPath(root), nil).Read()
	if err != nil {
		view.Error = err.Error()
		return view
	}
	if m.Slug != "" {
		view.Slug = m.Slug
	}
	view.ProposalID = m.ProposalID
	view.Tracked = len(m.Content)
	for _, file := range m.Content {
		if file.Uploaded() {
			view.Uploaded++
		}
	}
	files, err := content.Discover(root, content.Options{ManifestName: cfg.Publish.ManifestName})
	if err != nil {
		view.Error = err.Error()
		return view
	}
	view.Files = len(files)
	return view
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var verify bool
	var output outputFlags

	cmd := &cobra.Command{
		Use:   "get <slug>",
		Short: "Show one package's manifest and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, slug, err := ctx.packageRoot(args)
			if err != nil {
				return err
			}
			cfg := ctx.config
			view, err := describePackage(cfg, root, slug)
			if err != nil {
				return err
			}
			if verify {
				if err := verifyLocalRefs(cfg, view.Files); err != nil {
					return err
				}
			}
			if output.json {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Package %s (%s)\n", view.Slug, view.Dir)
			if view.ProposalID > 0 {
				fmt.Fprintf(out, "Proposal %d by %s\n", view.ProposalID, dash(view.Creator))
			}
			for i, r := range []*manifest.Reviewer{view.Reviewers.Reviewer1, view.Reviewers.Reviewer2} {
				if r != nil {
					fmt.Fprintf(out, "Reviewer %d: %s\n", i+1, dash(r.GithubName))
				}
			}
			columns := []column{textCol("Path"), textCol("Name"), textCol("State"), textCol("Digest"), textCol("Ref")}
			if verify {
				columns = append(columns, textCol("Verified"))
			}
			rows := make([][]string, 0, len(view.Files))
			for _, f := range view.Files {
				row := []string{f.Path, f.Name, f.State, dash(shortDigest(f.Digest)), dash(f.StorageRef)}
				if verify {
					row = append(row, dash(f.Verified))
				}
				rows = append(rows, row)
			}
			writeRows(cmd, columns, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check recorded refs against the local content store")
	addOutputFlags(cmd.Flags(), &output)
	return cmd
}

// describePackage joins the manifest with the files on disk. Files on disk
// without a manifest entry are "untracked"; entries whose file is gone are
// "missing".
func describePackage(cfg *config.Config, root, slug string) (packageView, error) {
	m, err := manifest.Open(cfg.ManifestPath(root), nil).Read()
	if err != nil {
		return packageView{}, err
	}
	files, err := content.Discover(root, content.Options{ManifestName: cfg.Publish.ManifestName})
	if err != nil {
		return packageView{}, err
	}

	view := packageView{
		Slug:       slug,
		Dir:        root,
		ProposalID: m.ProposalID,
		Creator:    m.Creator,
		Reviewers:  m.Reviewers,
	}
	if m.Slug != "" {
		view.Slug = m.Slug
	}
	onDisk := make(map[string]content.File, len(files))
	for _, f := range files {
		onDisk[f.Path] = f
	}
	for _, path := range m.Paths() {
		entry, _ := m.Get(path)
		state := "uploaded"
		switch _, present := onDisk[path]; {
		case !present:
			state = "missing"
		case !entry.Uploaded():
			state = "pending"
		}
		view.Files = append(view.Files, packageFileView{
			Path:       path,
			Name:       entry.Name,
			State:      state,
			Digest:     entry.Digest,
			StorageRef: entry.StorageRef,
		})
	}
	for _, f := range files {
		if _, tracked := m.Get(f.Path); tracked {
			continue
		}
		view.Files = append(view.Files, packageFileView{Path: f.Path, Name: f.Name, State: "untracked"})
	}
	sort.Slice(view.Files, func(i, j int) bool { return view.Files[i].Path < view.Files[j].Path })
	return view, nil
}

// verifyLocalRefs reads every recorded ref back from the local content store
// and checks it against the recorded digest.
func verifyLocalRefs(cfg *config.Config, files []packageFileView) error {
	if cfg.Storage.Backend != config.BackendLocal {
		return services.Wrap(services.ErrConfiguration, "get", "verify", "--verify needs storage.backend = \"local\"", nil)
	}
	store, err := localstore.Open(cfg.Storage.LocalDir)
	if err != nil {
		return err
	}
	for i := range files {
		f := &files[i]
		if f.StorageRef == "" {
			continue
		}
		data, err := store.Read(f.StorageRef)
		switch {
		case errors.Is(err, services.ErrNotFound):
			f.Verified = "missing"
		case err != nil:
			f.Verified = "unreadable"
		case digest.Bytes(data) != f.Digest:
			f.Verified = "mismatch"
		default:
			f.Verified = "ok"
		}
	}
	return nil
}

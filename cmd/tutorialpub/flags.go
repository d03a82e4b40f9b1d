package main

import (
	"github.com/spf13/pflag"
)

type outputFlags struct {
	json bool
}

func addOutputFlags(fs *pflag.FlagSet, flags *outputFlags) {
	fs.BoolVar(&flags.json, "json", false, "Emit machine-readable JSON")
}

type runFlags struct {
	workers    int
	skipImages bool
}

func addRunFlags(fs *pflag.FlagSet, flags *runFlags) {
	fs.IntVarP(&flags.workers, "workers", "w", 0, "Concurrent per-file tasks (defaults to publish.workers)")
	fs.BoolVar(&flags.skipImages, "skip-images", false, "Leave image files out of the run")
}

// skipImagesOr reports whether images are skipped, letting an explicit flag
// override the configured default in either direction.
func (f *runFlags) skipImagesOr(fs *pflag.FlagSet, configured bool) bool {
	if fs.Changed("skip-images") {
		return f.skipImages
	}
	return configured
}

package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tutorialpub/internal/config"
	"tutorialpub/internal/logging"
	"tutorialpub/internal/publish"
	"tutorialpub/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// packageRoot maps an optional slug argument to a package directory. Without
// a slug the working directory is the package.
func (c *commandContext) packageRoot(args []string) (root, slug string, err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", "", err
	}
	if len(args) > 0 {
		slug = strings.TrimSpace(args[0])
	}
	root, err = cfg.PackageRoot(slug)
	if err != nil {
		return "", "", err
	}
	if _, statErr := os.Stat(root); statErr != nil {
		return "", "", statErr
	}
	return root, slug, nil
}

func (c *commandContext) publishOptions(flags *runFlags) publish.Options {
	cfg := c.config
	opts := publish.Options{
		Workers:         cfg.Publish.Workers,
		ManifestName:    cfg.Publish.ManifestName,
		ImageExtensions: cfg.Publish.ImageExtensions,
		Credentials:     storage.Credentials{Wallet: cfg.Storage.Wallet},
	}
	if flags != nil && flags.workers > 0 {
		opts.Workers = flags.workers
	}
	return opts
}

// newPublisher builds a Publisher from the loaded configuration. The returned
// close func releases the history ledger.
func (c *commandContext) newPublisher(flags *runFlags) (*publish.Publisher, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequirePublishCredentials(); err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	deps, closeDeps, err := buildDependencies(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := publish.New(deps, c.publishOptions(flags))
	if err != nil {
		closeDeps()
		return nil, nil, err
	}
	return publisher, closeDeps, nil
}

func (c *commandContext) newPlanner(flags *runFlags) (*publish.Planner, error) {
	if _, err := c.ensureConfig(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return publish.NewPlanner(c.publishOptions(flags), logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

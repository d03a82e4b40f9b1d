package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePublish()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeMetadata(); err != nil {
		return err
	}
	c.normalizeProposals()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.TutorialsDir) == "" {
		c.Paths.TutorialsDir = defaultTutorialsDir
	}
	if c.Paths.TutorialsDir, err = expandPath(c.Paths.TutorialsDir); err != nil {
		return fmt.Errorf("paths.tutorials_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.ManifestName = strings.TrimSpace(c.Publish.ManifestName)
	if c.Publish.ManifestName == "" {
		c.Publish.ManifestName = defaultManifestName
	}
	exts := make([]string, 0, len(c.Publish.ImageExtensions))
	seen := make(map[string]struct{}, len(c.Publish.ImageExtensions))
	for _, ext := range c.Publish.ImageExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultImageExtensions...)
	}
	c.Publish.ImageExtensions = exts
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendHTTP
	}
	if value, ok := os.LookupEnv("ARWEAVE_HOST"); ok && strings.TrimSpace(value) != "" {
		c.Storage.URL = strings.TrimSpace(value)
	}
	c.Storage.URL = strings.TrimRight(strings.TrimSpace(c.Storage.URL), "/")
	if c.Storage.URL == "" {
		c.Storage.URL = defaultStorageURL
	}
	c.Storage.AppName = strings.TrimSpace(c.Storage.AppName)
	if c.Storage.AppName == "" {
		if value, ok := os.LookupEnv("ARWEAVE_APP_NAME"); ok {
			c.Storage.AppName = strings.TrimSpace(value)
		}
	}
	if c.Storage.AppName == "" {
		c.Storage.AppName = defaultAppName
	}
	c.Storage.Wallet = strings.TrimSpace(c.Storage.Wallet)
	if c.Storage.Wallet == "" {
		if value, ok := os.LookupEnv("ARWEAVE_WALLET"); ok {
			c.Storage.Wallet = strings.TrimSpace(value)
		}
	}
	var err error
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultStorageDir
	}
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetadata() error {
	c.Metadata.Backend = strings.ToLower(strings.TrimSpace(c.Metadata.Backend))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = BackendHTTP
	}
	c.Metadata.URL = strings.TrimSpace(c.Metadata.URL)
	if c.Metadata.URL == "" {
		if value, ok := os.LookupEnv("CERAMIC_NODE_URL"); ok {
			c.Metadata.URL = strings.TrimSpace(value)
		}
	}
	c.Metadata.URL = strings.TrimRight(c.Metadata.URL, "/")
	c.Metadata.Seed = strings.TrimSpace(c.Metadata.Seed)
	if c.Metadata.Seed == "" {
		if value, ok := os.LookupEnv("CERAMIC_SEED"); ok {
			c.Metadata.Seed = strings.TrimSpace(value)
		}
	}
	var err error
	if strings.TrimSpace(c.Metadata.LocalDir) == "" {
		c.Metadata.LocalDir = defaultMetadataDir
	}
	if c.Metadata.LocalDir, err = expandPath(c.Metadata.LocalDir); err != nil {
		return fmt.Errorf("metadata.local_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProposals() {
	c.Proposals.Backend = strings.ToLower(strings.TrimSpace(c.Proposals.Backend))
	if c.Proposals.Backend == "" {
		c.Proposals.Backend = BackendHTTP
	}
	c.Proposals.URL = strings.TrimSpace(c.Proposals.URL)
	if c.Proposals.URL == "" {
		if value, ok := os.LookupEnv("TUTORIAL_PROPOSALS_URL"); ok {
			c.Proposals.URL = strings.TrimSpace(value)
		}
	}
	c.Proposals.URL = strings.TrimRight(c.Proposals.URL, "/")
	c.Proposals.StaticState = strings.TrimSpace(c.Proposals.StaticState)
	if c.Proposals.StaticState == "" {
		c.Proposals.StaticState = defaultStaticState
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, "history.db")
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

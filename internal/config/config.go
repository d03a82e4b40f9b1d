package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	TutorialsDir string `toml:"tutorials_dir"`
	LogDir       string `toml:"log_dir"`
}

// Publish contains pipeline tuning for publish runs.
type Publish struct {
	// Workers bounds concurrent per-file tasks. Tuned to the remote store's
	// rate limits rather than local CPU.
	Workers         int      `toml:"workers"`
	ManifestName    string   `toml:"manifest_name"`
	SkipImages      bool     `toml:"skip_images"`
	ImageExtensions []string `toml:"image_extensions"`
}

// Storage contains configuration for the immutable content store.
type Storage struct {
	Backend        string `toml:"backend"` // "http" or "local"
	URL            string `toml:"url"`
	AppName        string `toml:"app_name"`
	Wallet         string `toml:"wallet"`
	LocalDir       string `toml:"local_dir"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metadata contains configuration for the mutable metadata document store.
type Metadata struct {
	Backend        string `toml:"backend"` // "http" or "local"
	URL            string `toml:"url"`
	Seed           string `toml:"seed"`
	LocalDir       string `toml:"local_dir"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Proposals contains configuration for the package state authority.
type Proposals struct {
	Backend        string `toml:"backend"` // "http" or "static"
	URL            string `toml:"url"`
	StaticState    string `toml:"static_state"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History contains configuration for the run history ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tutorialpub.
//
// Configuration sections by subsystem:
//   - Paths: tutorial package root and log directory
//   - Publish: worker count, manifest file name, image filtering
//   - Storage: immutable content store backend and credentials
//   - Metadata: metadata document store backend and credentials
//   - Proposals: package state authority
//   - History: SQLite run ledger
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Publish   Publish   `toml:"publish"`
	Storage   Storage   `toml:"storage"`
	Metadata  Metadata  `toml:"metadata"`
	Proposals Proposals `toml:"proposals"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tutorialpub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates directories the CLI writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Storage.Backend == BackendLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	if c.Metadata.Backend == BackendLocal {
		dirs = append(dirs, c.Metadata.LocalDir)
	}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PackageRoot resolves the package directory for slug. An empty slug means
// the current working directory is the package.
func (c *Config) PackageRoot(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return os.Getwd()
	}
	if strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return "", fmt.Errorf("invalid package slug %q", slug)
	}
	return filepath.Join(c.Paths.TutorialsDir, slug), nil
}

// ManifestPath returns the manifest location inside root.
func (c *Config) ManifestPath(root string) string {
	return filepath.Join(root, c.Publish.ManifestName)
}

// StorageTimeout returns the immutable store request timeout.
func (c *Config) StorageTimeout() time.Duration {
	return seconds(c.Storage.RequestTimeout, defaultRequestTimeout)
}

// MetadataTimeout returns the metadata store request timeout.
func (c *Config) MetadataTimeout() time.Duration {
	return seconds(c.Metadata.RequestTimeout, defaultRequestTimeout)
}

// ProposalsTimeout returns the package state authority request timeout.
func (c *Config) ProposalsTimeout() time.Duration {
	return seconds(c.Proposals.RequestTimeout, defaultRequestTimeout)
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

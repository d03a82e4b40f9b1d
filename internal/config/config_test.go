package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tutorialpub/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ARWEAVE_WALLET", "wallet-from-env")
	t.Setenv("CERAMIC_NODE_URL", "https://ceramic.example.com/")
	t.Setenv("CERAMIC_SEED", "seed-from-env")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "tutorialpub", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Publish.Workers != 2 {
		t.Fatalf("expected default worker limit 2, got %d", cfg.Publish.Workers)
	}
	if cfg.Publish.ManifestName != "tutorial.lock.json" {
		t.Fatalf("unexpected manifest name %q", cfg.Publish.ManifestName)
	}
	if cfg.Storage.Wallet != "wallet-from-env" {
		t.Fatalf("expected wallet from env, got %q", cfg.Storage.Wallet)
	}
	if cfg.Metadata.URL != "https://ceramic.example.com" {
		t.Fatalf("expected trimmed metadata url from env, got %q", cfg.Metadata.URL)
	}
	if cfg.Metadata.Seed != "seed-from-env" {
		t.Fatalf("expected seed from env, got %q", cfg.Metadata.Seed)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if !strings.HasPrefix(cfg.History.Path, tempHome) {
		t.Fatalf("expected history path under HOME, got %q", cfg.History.Path)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.LogDir); err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tutorialpub.toml")

	type payload struct {
		Publish struct {
			Workers         int      `toml:"workers"`
			ImageExtensions []string `toml:"image_extensions"`
		} `toml:"publish"`
		Storage struct {
			Backend  string `toml:"backend"`
			LocalDir string `toml:"local_dir"`
		} `toml:"storage"`
		Proposals struct {
			Backend string `toml:"backend"`
		} `toml:"proposals"`
	}
	custom := payload{}
	custom.Publish.Workers = 4
	custom.Publish.ImageExtensions = []string{"PNG", ".webp", "png"}
	custom.Storage.Backend = "LOCAL"
	custom.Storage.LocalDir = filepath.Join(tempDir, "objects")
	custom.Proposals.Backend = "static"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Publish.Workers != 4 {
		t.Fatalf("expected workers 4, got %d", cfg.Publish.Workers)
	}
	if cfg.Storage.Backend != config.BackendLocal {
		t.Fatalf("expected normalized local backend, got %q", cfg.Storage.Backend)
	}
	want := []string{".png", ".webp"}
	if len(cfg.Publish.ImageExtensions) != len(want) {
		t.Fatalf("unexpected image extensions %v", cfg.Publish.ImageExtensions)
	}
	for i := range want {
		if cfg.Publish.ImageExtensions[i] != want[i] {
			t.Fatalf("unexpected image extensions %v", cfg.Publish.ImageExtensions)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"workers":          func(c *config.Config) { c.Publish.Workers = 0 },
		"storage backend":  func(c *config.Config) { c.Storage.Backend = "s3" },
		"metadata backend": func(c *config.Config) { c.Metadata.Backend = "static" },
		"proposal backend": func(c *config.Config) { c.Proposals.Backend = "local" },
		"manifest name":    func(c *config.Config) { c.Publish.ManifestName = "dir/lock.json" },
		"log format":       func(c *config.Config) { c.Logging.Format = "xml" },
		"timeout":          func(c *config.Config) { c.Storage.RequestTimeout = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestRequirePublishCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequirePublishCredentials(); err == nil {
		t.Fatal("expected missing wallet error")
	}

	cfg.Storage.Backend = config.BackendLocal
	cfg.Metadata.Backend = config.BackendLocal
	cfg.Proposals.Backend = config.BackendStatic
	if err := cfg.RequirePublishCredentials(); err != nil {
		t.Fatalf("expected local backends to need no credentials, got %v", err)
	}
}

func TestPackageRootRejectsTraversal(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.TutorialsDir = "/srv/tutorials"
	root, err := cfg.PackageRoot("near-101")
	if err != nil {
		t.Fatalf("PackageRoot: %v", err)
	}
	if root != filepath.Join("/srv/tutorials", "near-101") {
		t.Fatalf("unexpected root %q", root)
	}
	for _, slug := range []string{"..", "a/b", `a\b`} {
		if _, err := cfg.PackageRoot(slug); err == nil {
			t.Fatalf("expected error for slug %q", slug)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}

package testsupport

import (
	"path/filepath"
	"testing"

	"tutorialpub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Every backend is local or static so no test touches the network unless it
// opts in with WithHTTPBackends.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.TutorialsDir = filepath.Join(base, "tutorials")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.Backend = config.BackendLocal
	cfgVal.Storage.LocalDir = filepath.Join(base, "store")
	cfgVal.Metadata.Backend = config.BackendLocal
	cfgVal.Metadata.LocalDir = filepath.Join(base, "metadata")
	cfgVal.Proposals.Backend = config.BackendStatic
	cfgVal.History.Path = filepath.Join(base, "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers sets the publish worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Workers = n
	}
}

// WithHistoryDisabled turns off the run ledger.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithHTTPBackends points storage, metadata and proposals at the given URLs
// with placeholder credentials.
func WithHTTPBackends(storageURL, metadataURL, proposalsURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = config.BackendHTTP
		b.cfg.Storage.URL = storageURL
		b.cfg.Storage.Wallet = "test-wallet"
		b.cfg.Metadata.Backend = config.BackendHTTP
		b.cfg.Metadata.URL = metadataURL
		b.cfg.Metadata.Seed = "test-seed"
		b.cfg.Proposals.Backend = config.BackendHTTP
		b.cfg.Proposals.URL = proposalsURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TutorialsDir)
}

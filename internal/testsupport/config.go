package testsupport

import (
	"path/filepath"
	"testing"

	"subseg/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Workers default to two and the per-pair timeout to ten seconds so tests do
// not depend on the host CPU count.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "segments")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Grouping.Workers = 2
	cfgVal.Grouping.TaskTimeoutSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithoutPreMerge disables the pairwise pre-merge pass.
func WithoutPreMerge() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Grouping.PreMerge = false
	}
}

// WithWorkers overrides the pre-merge worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Grouping.Workers = n
	}
}

// WithoutImages stops runs from writing representative images.
func WithoutImages() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.WriteImages = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

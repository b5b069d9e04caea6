package testsupport

import (
	"path/filepath"
	"testing"

	"sublingo/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and one primary Gemini provider with a dummy key.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectDir = filepath.Join(base, "projects")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Translation.RetryDelayMS = 0
	cfgVal.Providers = []config.Provider{{
		Name:           "Primary-1",
		Kind:           config.KindGemini,
		Endpoint:       "http://127.0.0.1:1/v1beta/models/{model}:generateContent",
		APIKey:         "test",
		Role:           config.RolePrimary,
		MaxConcurrent:  1,
		TimeoutSeconds: 5,
	}}

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

// WithProviders replaces the provider list.
func WithProviders(providers ...config.Provider) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Providers = providers
	}
}

// WithEndpoint points every provider at endpoint, typically an
// httptest.Server URL.
func WithEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		for i := range b.cfg.Providers {
			b.cfg.Providers[i].Endpoint = endpoint
		}
	}
}

// WithChunkSize overrides translation.chunk_size.
func WithChunkSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.ChunkSize = size
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ProjectDir)
}

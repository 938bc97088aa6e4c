package testsupport

import (
	"path/filepath"
	"testing"

	"roomcheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Store polling runs fast so cross-handle watch tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Store.AppID = "test-app"
	cfgVal.Store.WatchIntervalMillis = 10
	cfgVal.Store.TimeoutSeconds = 5
	cfgVal.LLM.APIKey = ""

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

// WithAuthToken sets the identity token.
func WithAuthToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Auth.Token = token
	}
}

// WithOffline disables identity establishment.
func WithOffline() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Auth.Offline = true
	}
}

// WithRoster seeds the staff roster.
func WithRoster(bed, water []string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Roster.Bed = append([]string(nil), bed...)
		b.cfg.Roster.Water = append([]string(nil), water...)
	}
}

// WithLLM points the text oracle at baseURL with a dummy key.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = "test"
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.TimeoutSeconds = 5
	}
}

// WithPassphrase overrides the delete confirmation phrase.
func WithPassphrase(phrase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.DeletePassphrase = phrase
	}
}

// WithNtfy publishes notifications to endpoint with every event enabled.
func WithNtfy(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = endpoint
		b.cfg.Notifications.Severe = true
		b.cfg.Notifications.Purge = true
	}
}

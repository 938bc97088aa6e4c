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
	_ "time/tzdata" // export timezone on hosts without zoneinfo

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Store contains configuration for the shared document store.
type Store struct {
	// AppID namespaces every collection path. Changing it after records exist
	// strands them under the old namespace.
	AppID                 string `toml:"app_id"`
	ReadOnly              bool   `toml:"read_only"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	WatchIntervalMillis   int    `toml:"watch_interval_ms"`
	RoomRegistryEnforced  bool   `toml:"room_registry_enforced"`
	DeletePassphrase      string `toml:"delete_passphrase"`
	SnapshotHistoryLength int    `toml:"snapshot_history_length"`
}

// Auth contains identity gate settings.
type Auth struct {
	Token   string `toml:"token"`
	Offline bool   `toml:"offline"`
}

// Imaging contains photo compression and annotation settings.
type Imaging struct {
	MaxWidth        int    `toml:"max_width"`
	Quality         int    `toml:"quality"`
	AnnotateQuality int    `toml:"annotate_quality"`
	MarkerRadius    int    `toml:"marker_radius"`
	MarkerStroke    int    `toml:"marker_stroke"`
	MarkerColor     string `toml:"marker_color"`
	ReferenceWidth  int    `toml:"reference_width"`
	MaxPixels       int    `toml:"max_pixels"`
}

// LLM contains the text oracle connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Language       string `toml:"language"`
	PropertyName   string `toml:"property_name"`
}

// Export contains CSV/XLSX export settings.
type Export struct {
	FilenamePrefix string `toml:"filename_prefix"`
	Timezone       string `toml:"timezone"`
	UnfilledLabel  string `toml:"unfilled_label"`
}

// Roster contains the staff names used to seed a fresh roster document.
type Roster struct {
	Bed   []string `toml:"bed"`
	Water []string `toml:"water"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Severe         bool   `toml:"severe"`
	Purge          bool   `toml:"purge"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for roomcheck.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Store: namespace, timeouts and the delete confirmation phrase
//   - Auth: identity gate token and offline switch
//   - Imaging: photo compression and marker parameters
//   - LLM: text oracle used for note refinement and daily reports
//   - Export: CSV/XLSX naming and date rendering
//   - Roster: initial staff lists
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	Auth          Auth          `toml:"auth"`
	Imaging       Imaging       `toml:"imaging"`
	LLM           LLM           `toml:"llm"`
	Export        Export        `toml:"export"`
	Roster        Roster        `toml:"roster"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
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

	projectPath, err := filepath.Abs("roomcheck.toml")
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

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the SQLite database location inside the data directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "roomcheck.db")
}

// IdentityPath returns where the anonymous identity is persisted.
func (c *Config) IdentityPath() string {
	return filepath.Join(c.Paths.DataDir, "identity.json")
}

// LastInspectorPath returns where the CLI remembers the most recent inspector.
func (c *Config) LastInspectorPath() string {
	return filepath.Join(c.Paths.DataDir, "last_inspector")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "roomcheckd.lock")
}

// StoreTimeout returns the bounded deadline applied to every store call.
func (c *Config) StoreTimeout() time.Duration {
	if c.Store.TimeoutSeconds <= 0 {
		return time.Duration(defaultStoreTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// WatchInterval returns how often the store polls for writes made by other processes.
func (c *Config) WatchInterval() time.Duration {
	if c.Store.WatchIntervalMillis <= 0 {
		return time.Duration(defaultWatchIntervalMillis) * time.Millisecond
	}
	return time.Duration(c.Store.WatchIntervalMillis) * time.Millisecond
}

// ExportLocation resolves the configured export timezone, falling back to UTC.
func (c *Config) ExportLocation() *time.Location {
	loc, err := time.LoadLocation(c.Export.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

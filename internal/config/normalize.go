package config

import (
	"fmt"
	"os"
	"strings"

	"roomcheck/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeAuth()
	c.normalizeImaging()
	c.normalizeLLM()
	c.normalizeExport()
	c.normalizeRoster()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if value, ok := os.LookupEnv(envAPIToken); ok {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeStore() {
	if value, ok := os.LookupEnv(envAppID); ok && strings.TrimSpace(value) != "" {
		c.Store.AppID = value
	}
	c.Store.AppID = strings.TrimSpace(c.Store.AppID)
	if c.Store.AppID == "" {
		c.Store.AppID = defaultAppID
	}
	if value, ok := os.LookupEnv(envDeletePassphrase); ok && strings.TrimSpace(value) != "" {
		c.Store.DeletePassphrase = value
	}
	c.Store.DeletePassphrase = strings.TrimSpace(c.Store.DeletePassphrase)
	if c.Store.DeletePassphrase == "" {
		c.Store.DeletePassphrase = defaultDeletePassphrase
	}
	if c.Store.SnapshotHistoryLength <= 0 {
		c.Store.SnapshotHistoryLength = defaultSnapshotHistory
	}
}

func (c *Config) normalizeAuth() {
	if value, ok := os.LookupEnv(envAuthToken); ok {
		c.Auth.Token = value
	}
	c.Auth.Token = strings.TrimSpace(c.Auth.Token)
}

func (c *Config) normalizeImaging() {
	c.Imaging.MarkerColor = strings.TrimSpace(c.Imaging.MarkerColor)
	if c.Imaging.MarkerColor == "" {
		c.Imaging.MarkerColor = defaultMarkerColor
	}
	if c.Imaging.MaxPixels <= 0 {
		c.Imaging.MaxPixels = defaultMaxPixels
	}
	if c.Imaging.ReferenceWidth <= 0 {
		c.Imaging.ReferenceWidth = c.Imaging.MaxWidth
	}
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv(envLLMAPIKey); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = value
	} else if value, ok := os.LookupEnv(envLLMAPIKeyFallback); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = value
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	c.LLM.Language = strings.TrimSpace(c.LLM.Language)
	if c.LLM.Language == "" {
		c.LLM.Language = defaultLLMLanguage
	}
	if normalized, err := language.Normalize(c.LLM.Language); err == nil {
		c.LLM.Language = normalized
	}
	c.LLM.PropertyName = strings.TrimSpace(c.LLM.PropertyName)
	if c.LLM.PropertyName == "" {
		c.LLM.PropertyName = defaultPropertyName
	}
}

func (c *Config) normalizeExport() {
	c.Export.FilenamePrefix = strings.TrimSpace(c.Export.FilenamePrefix)
	if c.Export.FilenamePrefix == "" {
		c.Export.FilenamePrefix = defaultExportPrefix
	}
	c.Export.Timezone = strings.TrimSpace(c.Export.Timezone)
	if c.Export.Timezone == "" {
		c.Export.Timezone = "UTC"
	}
	if strings.TrimSpace(c.Export.UnfilledLabel) == "" {
		c.Export.UnfilledLabel = defaultUnfilledLabel
	}
}

func (c *Config) normalizeRoster() {
	c.Roster.Bed = trimNames(c.Roster.Bed)
	c.Roster.Water = trimNames(c.Roster.Water)
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv(envNtfyTopic); ok {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
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

func trimNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roomcheck/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateImaging(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if strings.ContainsAny(c.Store.AppID, "/ \t\n") {
		return fmt.Errorf("store.app_id %q must not contain slashes or whitespace", c.Store.AppID)
	}
	return ensurePositiveMap(map[string]int{
		"store.timeout_seconds":   c.Store.TimeoutSeconds,
		"store.watch_interval_ms": c.Store.WatchIntervalMillis,
	})
}

func (c *Config) validateImaging() error {
	if err := ensurePositiveMap(map[string]int{
		"imaging.max_width":     c.Imaging.MaxWidth,
		"imaging.marker_radius": c.Imaging.MarkerRadius,
		"imaging.marker_stroke": c.Imaging.MarkerStroke,
	}); err != nil {
		return err
	}
	for key, quality := range map[string]int{
		"imaging.quality":          c.Imaging.Quality,
		"imaging.annotate_quality": c.Imaging.AnnotateQuality,
	} {
		if quality < 1 || quality > 100 {
			return fmt.Errorf("%s must be between 1 and 100", key)
		}
	}
	if !isHexColor(c.Imaging.MarkerColor) {
		return fmt.Errorf("imaging.marker_color %q must be a #RRGGBB value", c.Imaging.MarkerColor)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if _, err := language.Normalize(c.LLM.Language); err != nil {
		return fmt.Errorf("llm.language: %w", err)
	}
	return nil
}

func (c *Config) validateExport() error {
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("export.timezone: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func isHexColor(value string) bool {
	if len(value) != 7 || value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

package config

import (
	"fmt"
	"slices"
	"strings"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

var validLevels = []string{"debug", "info", "warn", "error"}
var validFormats = []string{"console", "json"}

func (c *LoggingConfig) validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Level, validLevels)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("invalid logging.format: %s (valid: %v)", c.Format, validFormats)
	}
	return nil
}

// Package logging builds the zap logger shared by every fixturectl command
// and hands out one named child logger per category.
package logging

import (
	"fmt"
	"strings"

	"meshfixture/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryImport   Category = "import"
	CategoryScaffold Category = "scaffold"
	CategoryValidate Category = "validate"
	CategoryCatalog  Category = "catalog"
	CategoryStatus   Category = "status"
	CategoryGate     Category = "gate"
	CategoryStore    Category = "store"
	CategoryConfig   Category = "config"
	CategoryMigrate  Category = "migrate"
)

// New builds a logger from cfg. verbose forces debug level. Output goes to
// stderr so command results on stdout stay clean.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	level := zapcore.WarnLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Named returns the child logger for cat.
func Named(logger *zap.Logger, cat Category) *zap.Logger {
	return logger.Named(string(cat))
}

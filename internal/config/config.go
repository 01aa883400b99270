package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the workspace.
const DefaultFileName = "fixturectl.yaml"

// Config holds all fixturectl configuration.
type Config struct {
	Fixtures FixturesConfig `yaml:"fixtures"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Schema   SchemaConfig   `yaml:"schema"`
	Import   ImportConfig   `yaml:"import"`
	Gate     GateConfig     `yaml:"gate"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FixturesConfig locates the fixture store.
type FixturesConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

// CatalogConfig locates the generated catalog artifact.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// SchemaConfig selects the options schema generation: legacy, current or auto.
type SchemaConfig struct {
	Generation string `yaml:"generation"`
}

// ImportConfig holds the defaults of the import command.
type ImportConfig struct {
	VolumeTolerance           float64 `yaml:"volume_tolerance"`
	PlaneDistanceTolerance    float64 `yaml:"plane_distance_tolerance"`
	Epsilon                   float64 `yaml:"epsilon"`
	ExpectedExceptionContains string  `yaml:"expected_exception_contains"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Fixtures: FixturesConfig{
			Dir:       "Fixtures",
			Extension: ".json",
		},
		Catalog: CatalogConfig{
			Path: "FixtureCatalog.md",
		},
		Schema: SchemaConfig{
			Generation: "auto",
		},
		Import: ImportConfig{
			VolumeTolerance:           1e-8,
			PlaneDistanceTolerance:    1e-10,
			Epsilon:                   1e-8,
			ExpectedExceptionContains: "self-intersections",
		},
		Gate: GateConfig{
			TestCommand: "dotnet test GenMesh.Mesh2Tetra.sln",
			TaskTimeout: "30m",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("FIXTURECTL_FIXTURES_DIR"); dir != "" {
		c.Fixtures.Dir = dir
	}
	if path := os.Getenv("FIXTURECTL_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
	if gen := os.Getenv("FIXTURECTL_SCHEMA_GENERATION"); gen != "" {
		c.Schema.Generation = gen
	}
	if cmd := os.Getenv("FIXTURECTL_TEST_COMMAND"); cmd != "" {
		c.Gate.TestCommand = cmd
	}
	if level := os.Getenv("FIXTURECTL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidGenerations lists the accepted schema generations.
var ValidGenerations = []string{"legacy", "current", "auto"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Fixtures.Dir) == "" {
		return fmt.Errorf("fixtures.dir must not be empty")
	}
	if !strings.HasPrefix(c.Fixtures.Extension, ".") || len(c.Fixtures.Extension) < 2 {
		return fmt.Errorf("fixtures.extension must start with a dot, got %q", c.Fixtures.Extension)
	}
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("catalog.path must not be empty")
	}

	validGeneration := false
	for _, g := range ValidGenerations {
		if strings.EqualFold(strings.TrimSpace(c.Schema.Generation), g) {
			validGeneration = true
			break
		}
	}
	if !validGeneration {
		return fmt.Errorf("invalid schema generation: %s (valid: %v)", c.Schema.Generation, ValidGenerations)
	}

	if c.Import.VolumeTolerance < 0 || c.Import.PlaneDistanceTolerance < 0 || c.Import.Epsilon < 0 {
		return fmt.Errorf("import tolerances must be non-negative")
	}
	if strings.TrimSpace(c.Import.ExpectedExceptionContains) == "" {
		return fmt.Errorf("import.expected_exception_contains must not be empty")
	}

	if err := c.Gate.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}

// Resolve returns path joined to workspace unless it is already absolute.
func Resolve(workspace, path string) string {
	if filepath.IsAbs(path) || workspace == "" {
		return path
	}
	return filepath.Join(workspace, path)
}

// FixturesDir returns the fixture directory under workspace.
func (c *Config) FixturesDir(workspace string) string {
	return Resolve(workspace, c.Fixtures.Dir)
}

// CatalogPath returns the catalog artifact path under workspace.
func (c *Config) CatalogPath(workspace string) string {
	return Resolve(workspace, c.Catalog.Path)
}

// CatalogDiffCommand returns gate.diff_command, or a git freshness diff of
// catalog.path when none is configured.
func (c *Config) CatalogDiffCommand() string {
	if cmd := strings.TrimSpace(c.Gate.DiffCommand); cmd != "" {
		return cmd
	}
	return "git diff --exit-code -- " + shellQuote(c.Catalog.Path)
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"$`\\*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

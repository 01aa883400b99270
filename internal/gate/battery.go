// Package gate runs the regression gate: an ordered battery of builtin and
// shell tasks that stops at the first failure and propagates its exit code.
package gate

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task types.
const (
	TypeBuiltin = "builtin"
	TypeShell   = "shell"
)

// Default task IDs, usable with Battery.Without.
const (
	TaskValidate    = "validate"
	TaskCatalog     = "catalog"
	TaskCatalogDiff = "catalog-diff"
	TaskTests       = "tests"
)

// DefaultCatalogName is the catalog artifact named in the stale hint when
// Defaults leaves it empty.
const DefaultCatalogName = "FixtureCatalog.md"

// CatalogStaleHint is printed when the catalog freshness diff fails.
func CatalogStaleHint(name string) string {
	if name == "" {
		name = DefaultCatalogName
	}
	return name + " is out of date. Regenerate and commit it."
}

// Battery is an ordered list of gate tasks.
type Battery struct {
	Version int    `yaml:"version"`
	Tasks   []Task `yaml:"tasks"`
}

// Task is one gate step. Builtin tasks name a registered in-process
// command; shell tasks run Command through the platform shell.
type Task struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Command     string `yaml:"command"`
	TimeoutSec  int    `yaml:"timeout_sec,omitempty"`
	FailureHint string `yaml:"failure_hint,omitempty"`
}

func (t Task) kind() string {
	k := strings.ToLower(strings.TrimSpace(t.Type))
	if k == "" {
		return TypeShell
	}
	return k
}

// Defaults holds the external commands of the default battery.
type Defaults struct {
	DiffCommand string
	TestCommand string
	CatalogName string
}

// DefaultBattery returns validate, catalog, catalog-diff and tests, in
// that order.
func DefaultBattery(d Defaults) *Battery {
	return &Battery{
		Version: 1,
		Tasks: []Task{
			{ID: TaskValidate, Type: TypeBuiltin, Command: TaskValidate},
			{ID: TaskCatalog, Type: TypeBuiltin, Command: TaskCatalog},
			{ID: TaskCatalogDiff, Type: TypeShell, Command: d.DiffCommand, FailureHint: CatalogStaleHint(d.CatalogName)},
			{ID: TaskTests, Type: TypeShell, Command: d.TestCommand},
		},
	}
}

// Without returns a copy of b minus the tasks with the given IDs.
func (b *Battery) Without(ids ...string) *Battery {
	out := &Battery{Version: b.Version}
	for _, t := range b.Tasks {
		if !slices.Contains(ids, t.ID) {
			out.Tasks = append(out.Tasks, t)
		}
	}
	return out
}

// LoadBattery reads a YAML battery file from disk.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse battery YAML: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &b, nil
}

// Validate checks task IDs and types.
func (b *Battery) Validate() error {
	seen := make(map[string]bool, len(b.Tasks))
	for i, t := range b.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task %d has no id", i+1)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
		if k := t.kind(); k != TypeBuiltin && k != TypeShell {
			return fmt.Errorf("task %s: unsupported task type %q", t.ID, t.Type)
		}
		if t.TimeoutSec < 0 {
			return fmt.Errorf("task %s: timeout_sec must be non-negative", t.ID)
		}
	}
	return nil
}

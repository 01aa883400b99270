package config

import (
	"fmt"
	"time"
)

// GateConfig configures the regression gate.
type GateConfig struct {
	// Battery is an optional YAML battery replacing the default task list.
	Battery     string `yaml:"battery,omitempty"`
	// DiffCommand defaults to a git diff of catalog.path when empty.
	DiffCommand string `yaml:"diff_command,omitempty"`
	TestCommand string `yaml:"test_command"`
	TaskTimeout string `yaml:"task_timeout"`
}

// GetTaskTimeout returns the per-task timeout as a duration.
func (c *GateConfig) GetTaskTimeout() time.Duration {
	d, err := time.ParseDuration(c.TaskTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

func (c *GateConfig) validate() error {
	if c.TaskTimeout == "" {
		return nil
	}
	d, err := time.ParseDuration(c.TaskTimeout)
	if err != nil {
		return fmt.Errorf("invalid gate.task_timeout %q: %w", c.TaskTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("gate.task_timeout must be positive")
	}
	return nil
}

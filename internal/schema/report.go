package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"meshfixture/internal/fixture"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Severity classifies a batch issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of a batch validation run.
type Issue struct {
	Severity Severity
	File     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.File, i.Message)
}

// Report is the outcome of validating a whole fixture directory.
type Report struct {
	Files  int
	Issues []Issue
}

// Errors returns the failing-file issues in file order.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the non-failing issues in file order.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

// OK reports whether no file failed.
func (r *Report) OK() bool { return len(r.Errors()) == 0 }

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, it := range r.Issues {
		if it.Severity == sev {
			out = append(out, it)
		}
	}
	return out
}

// ValidateStore validates every fixture file in store. Each file is checked
// independently and contributes at most one error. Files that pass are then
// checked across the set: a fixture name already used by an earlier file is
// an error, and a name that differs from its file stem is a warning.
func (v *Validator) ValidateStore(store *fixture.Store) (*Report, error) {
	files, err := store.Files()
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(files)}
	owners := make(map[string]string, len(files))
	for _, path := range files {
		base := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			report.Issues = append(report.Issues, Issue{Severity: SeverityError, File: base, Message: fmt.Sprintf("read failed: %v", err)})
			continue
		}
		if err := v.Validate(data); err != nil {
			v.logger.Debug("Fixture invalid", zap.String("file", base), zap.Error(err))
			report.Issues = append(report.Issues, Issue{Severity: SeverityError, File: base, Message: err.Error()})
			continue
		}

		name := gjson.GetBytes(data, "name").Str
		if owner, ok := owners[name]; ok {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError,
				File:     base,
				Message:  fmt.Sprintf("duplicate fixture name %q (also in %s)", name, owner),
			})
			continue
		}
		owners[name] = base

		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != name {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityWarning,
				File:     base,
				Message:  fmt.Sprintf("name %q does not match file name", name),
			})
		}
	}

	v.logger.Info("Fixture validation finished",
		zap.Int("files", report.Files),
		zap.Int("errors", len(report.Errors())),
		zap.Int("warnings", len(report.Warnings())),
		zap.String("generation", string(v.generation)))
	return report, nil
}

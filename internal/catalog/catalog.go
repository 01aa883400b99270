// Package catalog renders the markdown summary of the fixture set. The
// output depends only on the fixture files, so regenerating an unchanged
// set yields byte-identical output and the artifact can gate freshness.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"meshfixture/internal/diff"
	"meshfixture/internal/fixture"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultCommand is the regenerate hint printed at the end of the catalog.
const DefaultCommand = "fixturectl catalog"

// Row summarizes one fixture file.
type Row struct {
	Name     string
	File     string
	Vertices int
	Faces    int
	Mode     fixture.Mode
}

// Catalog is the ordered set of rows plus the regenerate command.
type Catalog struct {
	Rows    []Row
	Command string
}

// Markdown renders the catalog document.
func (c *Catalog) Markdown() []byte {
	lines := []string{
		"# Fixture Catalog",
		"",
		"Auto-generated summary of regression fixtures.",
		"",
		"| Fixture | File | Vertices | Faces | Assertion mode |",
		"|---|---|---:|---:|---|",
	}
	for _, r := range c.Rows {
		lines = append(lines, fmt.Sprintf("| `%s` | `%s` | %d | %d | %s |", r.Name, r.File, r.Vertices, r.Faces, r.Mode))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Total fixtures: **%d**.", len(c.Rows)),
		"",
		"Regenerate with:",
		"",
		"```bash",
		c.Command,
		"```",
		"",
	)
	return []byte(strings.Join(lines, "\n"))
}

// Generator builds, writes and checks the catalog artifact at path.
type Generator struct {
	store   *fixture.Store
	path    string
	command string
	logger  *zap.Logger
}

// NewGenerator returns a generator for the fixtures in store.
func NewGenerator(store *fixture.Store, path string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{store: store, path: path, command: DefaultCommand, logger: logger}
}

// Path returns the artifact path.
func (g *Generator) Path() string { return g.path }

// Build reads every fixture file, sorted by file name. Files without a
// fixture name or input mesh are left out with a warning.
func (g *Generator) Build() (*Catalog, error) {
	files, err := g.store.Files()
	if err != nil {
		return nil, err
	}
	c := &Catalog{Rows: make([]Row, 0, len(files)), Command: g.command}
	for _, path := range files {
		row, err := readRow(path)
		if errors.Is(err, fixture.ErrSchemaViolation) {
			g.logger.Warn("Skipping fixture in catalog", zap.String("file", path), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

// Write regenerates the artifact.
func (g *Generator) Write() (*Catalog, error) {
	c, err := g.Build()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(g.path, c.Markdown(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write catalog: %w", err)
	}
	g.logger.Info("Catalog written", zap.String("path", g.path), zap.Int("fixtures", len(c.Rows)))
	return c, nil
}

// Check regenerates the catalog in memory and diffs it against the artifact
// on disk without writing. A missing artifact diffs against empty text.
func (g *Generator) Check() (*diff.Result, error) {
	c, err := g.Build()
	if err != nil {
		return nil, err
	}
	current, err := os.ReadFile(g.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	name := filepath.Base(g.path)
	result := diff.Compute(name+" (committed)", name+" (generated)", string(current), string(c.Markdown()))
	if !result.Empty() {
		g.logger.Warn("Catalog is out of date", zap.String("path", g.path), zap.Int("hunks", len(result.Hunks)))
	}
	return result, nil
}

func readRow(path string) (Row, error) {
	base := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Row{}, err
	}
	if !gjson.ValidBytes(data) {
		return Row{}, fmt.Errorf("%w: %s is not valid JSON", fixture.ErrSchemaViolation, base)
	}
	doc := gjson.ParseBytes(data)

	name := doc.Get("name")
	vertices := doc.Get("input.vertices")
	faces := doc.Get("input.faces")
	switch {
	case name.Type != gjson.String:
		return Row{}, fmt.Errorf("%w: %s has no fixture name", fixture.ErrSchemaViolation, base)
	case !vertices.IsArray() || !faces.IsArray():
		return Row{}, fmt.Errorf("%w: %s has no input vertices and faces", fixture.ErrSchemaViolation, base)
	}
	return Row{
		Name:     name.Str,
		File:     base,
		Vertices: len(vertices.Array()),
		Faces:    len(faces.Array()),
		Mode:     fixture.ClassifyJSON(doc.Get("expected")),
	}, nil
}

package catalog

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Render formats the catalog markdown for a terminal. style is a glamour
// style name ("dark", "light", "notty", ...) or "auto" to follow the
// terminal background.
func (c *Catalog) Render(style string, wordWrap int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wordWrap)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.RenderBytes(c.Markdown())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

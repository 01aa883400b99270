package queue

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	heading  lipgloss.Style
	pending  lipgloss.Style
	done     lipgloss.Style
	mismatch lipgloss.Style
	complete lipgloss.Style
}

// newStyles binds styles to w, so output is plain text unless w is a
// color terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading:  r.NewStyle().Bold(true),
		pending:  r.NewStyle().Foreground(lipgloss.Color("3")),
		done:     r.NewStyle().Foreground(lipgloss.Color("2")),
		mismatch: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		complete: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	}
}

// Render writes the progress report for one batch.
func Render(w io.Writer, r *Report) error {
	s := newStyles(w)
	var sb strings.Builder

	heading := r.Batch.Title + " progress status"
	sb.WriteString(s.heading.Render(heading) + "\n")
	sb.WriteString(strings.Repeat("=", len(heading)) + "\n")

	for _, it := range r.Items {
		prefix := fmt.Sprintf("[%02d]", it.Index)
		switch it.State {
		case StatePending:
			fmt.Fprintf(&sb, "%s ⏳ %s  %s (expected: %s)\n", prefix, s.pending.Render("pending"), it.Item.Name, it.Item.ExpectedMode)
		case StateDone:
			fmt.Fprintf(&sb, "%s ✅ %s     %s (expected: %s)\n", prefix, s.done.Render("done"), it.Item.Name, it.Item.ExpectedMode)
		case StateMismatch:
			fmt.Fprintf(&sb, "%s ⚠️ %s     %s (expected: %s)%s\n", prefix, s.done.Render("done"), it.Item.Name, it.Item.ExpectedMode,
				s.mismatch.Render(fmt.Sprintf(" [mode mismatch: actual %s]", it.Actual)))
		}
	}

	fmt.Fprintf(&sb, "\nCompleted: %d/%d\n", r.Completed, r.Total())
	if r.Complete() {
		sb.WriteString(s.complete.Render(r.Batch.Title+" queue complete.") + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderAll writes one report after another, separated by a blank line.
func RenderAll(w io.Writer, reports []*Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Render(w, r); err != nil {
			return err
		}
	}
	return nil
}

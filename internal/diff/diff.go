// Package diff computes line-level differences between two versions of a
// generated text artifact, grouped into unified-diff hunks.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 3

// Op is the kind of a diff line.
type Op int

const (
	OpEqual Op = iota
	OpDelete
	OpInsert
)

func (o Op) prefix() string {
	switch o {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// Line is one line of a hunk, without its trailing newline.
type Line struct {
	Op   Op
	Text string
}

// Hunk is a run of changes with surrounding context. Starts are 1-based.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// Header returns the "@@ -a,b +c,d @@" range line.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// Result is the difference between an old and a new text.
type Result struct {
	OldName string
	NewName string
	Hunks   []Hunk
}

// Empty reports whether the texts were identical.
func (r *Result) Empty() bool { return len(r.Hunks) == 0 }

// Unified renders r as a unified diff. An empty result renders as "".
func (r *Result) Unified() string {
	if r.Empty() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", r.OldName, r.NewName)
	for _, h := range r.Hunks {
		sb.WriteString(h.Header())
		sb.WriteByte('\n')
		for _, l := range h.Lines {
			sb.WriteString(l.Op.prefix())
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Engine wraps a diff-match-patch instance configured for line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine returns an engine keeping context lines around each change.
// A negative context means DefaultContext.
func NewEngine(context int) *Engine {
	if context < 0 {
		context = DefaultContext
	}
	dmp := diffmatchpatch.New()
	// Generated artifacts are small; trade speed for a minimal diff.
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp, context: context}
}

// Compute diffs oldText against newText line by line.
func (e *Engine) Compute(oldName, newName, oldText, newText string) *Result {
	result := &Result{OldName: oldName, NewName: newName}
	if oldText == newText {
		return result
	}

	a, b, lineArray := e.dmp.DiffLinesToChars(oldText, newText)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	result.Hunks = group(toLines(diffs), e.context)
	return result
}

// Compute diffs two texts with DefaultContext.
func Compute(oldName, newName, oldText, newText string) *Result {
	return NewEngine(DefaultContext).Compute(oldName, newName, oldText, newText)
}

func toLines(diffs []diffmatchpatch.Diff) []Line {
	var lines []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			lines = append(lines, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return lines
}

// group splits lines into hunks. Changes separated by at most 2*context
// unchanged lines share a hunk.
func group(lines []Line, context int) []Hunk {
	var changes []int
	for i, l := range lines {
		if l.Op != OpEqual {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var hunks []Hunk
	first := changes[0]
	last := first
	flush := func() {
		start := max(first-context, 0)
		end := min(last+context+1, len(lines))
		hunks = append(hunks, newHunk(lines, start, end))
	}
	for _, c := range changes[1:] {
		if c-last-1 > 2*context {
			flush()
			first = c
		}
		last = c
	}
	flush()
	return hunks
}

func newHunk(lines []Line, start, end int) Hunk {
	oldBefore, newBefore := 0, 0
	for _, l := range lines[:start] {
		if l.Op != OpInsert {
			oldBefore++
		}
		if l.Op != OpDelete {
			newBefore++
		}
	}

	h := Hunk{Lines: append([]Line(nil), lines[start:end]...)}
	for _, l := range h.Lines {
		if l.Op != OpInsert {
			h.OldLines++
		}
		if l.Op != OpDelete {
			h.NewLines++
		}
	}
	// An empty side points at the line before the hunk.
	h.OldStart = oldBefore + 1
	if h.OldLines == 0 {
		h.OldStart = oldBefore
	}
	h.NewStart = newBefore + 1
	if h.NewLines == 0 {
		h.NewStart = newBefore
	}
	return h
}

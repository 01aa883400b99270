package queue

import "meshfixture/internal/fixture"

// State is the intake state of one queue item.
type State int

const (
	StatePending State = iota
	StateDone
	// StateMismatch is present but classified differently than planned.
	// It counts as done.
	StateMismatch
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateMismatch:
		return "mismatch"
	default:
		return "pending"
	}
}

// ItemStatus is the evaluated state of one item. Index is 1-based.
type ItemStatus struct {
	Index  int
	Item   Item
	State  State
	Actual fixture.Mode
}

// Report is a batch compared against the discovered fixtures.
type Report struct {
	Batch     Batch
	Items     []ItemStatus
	Completed int
}

// Total is the number of planned items.
func (r *Report) Total() int { return len(r.Items) }

// Complete reports whether every item is present, mismatches included.
func (r *Report) Complete() bool { return r.Completed == r.Total() }

// Mismatches counts items present with an unexpected mode.
func (r *Report) Mismatches() int {
	n := 0
	for _, it := range r.Items {
		if it.State == StateMismatch {
			n++
		}
	}
	return n
}

// Evaluate compares batch against discovered, a map from fixture name to
// classified mode.
func Evaluate(batch Batch, discovered map[string]fixture.Mode) *Report {
	r := &Report{Batch: batch, Items: make([]ItemStatus, len(batch.Items))}
	for i, item := range batch.Items {
		st := ItemStatus{Index: i + 1, Item: item}
		if mode, ok := discovered[item.Name]; ok {
			st.Actual = mode
			st.State = StateDone
			if mode != item.ExpectedMode {
				st.State = StateMismatch
			}
			r.Completed++
		}
		r.Items[i] = st
	}
	return r
}

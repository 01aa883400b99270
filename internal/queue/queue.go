// Package queue tracks fixture intake against the published batch plans.
package queue

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"meshfixture/internal/fixture"

	"gopkg.in/yaml.v3"
)

//go:embed batches.yaml
var batchesYAML []byte

// Item is one planned fixture and the mode it is expected to classify as.
type Item struct {
	Name         string       `yaml:"name"`
	ExpectedMode fixture.Mode `yaml:"expected_mode"`
}

// Batch is an ordered intake plan. Batches are immutable once published.
type Batch struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Items []Item `yaml:"items"`
}

func (b Batch) clone() Batch {
	b.Items = slices.Clone(b.Items)
	return b
}

type plan struct {
	Batches []Batch `yaml:"batches"`
}

var loadBatches = sync.OnceValues(func() ([]Batch, error) {
	return parseBatches(batchesYAML)
})

// Batches returns every published batch in plan order.
func Batches() ([]Batch, error) {
	batches, err := loadBatches()
	if err != nil {
		return nil, err
	}
	out := make([]Batch, len(batches))
	for i, b := range batches {
		out[i] = b.clone()
	}
	return out, nil
}

// Lookup returns the batch with the given id.
func Lookup(id string) (Batch, error) {
	batches, err := loadBatches()
	if err != nil {
		return Batch{}, err
	}
	for _, b := range batches {
		if b.ID == id {
			return b.clone(), nil
		}
	}
	return Batch{}, fmt.Errorf("%w: batch %q", fixture.ErrNotFound, id)
}

func parseBatches(data []byte) ([]Batch, error) {
	var p plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse batch plan: %w", err)
	}
	seen := make(map[string]bool, len(p.Batches))
	for _, b := range p.Batches {
		if b.ID == "" || seen[b.ID] {
			return nil, fmt.Errorf("batch plan: missing or duplicate batch id %q", b.ID)
		}
		seen[b.ID] = true
		for i, it := range b.Items {
			if it.Name == "" {
				return nil, fmt.Errorf("batch %s item %d: empty name", b.ID, i+1)
			}
			if !it.ExpectedMode.Valid() {
				return nil, fmt.Errorf("batch %s item %s: unknown mode %q", b.ID, it.Name, it.ExpectedMode)
			}
		}
	}
	return p.Batches, nil
}

package scoring

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const catalogSize = 43

//go:embed holmes_rahe.yaml
var holmesRaheYAML []byte

// Event is one life event of the Holmes-Rahe scale.
type Event struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Weight int    `yaml:"weight" json:"weight"`
}

type catalogFile struct {
	Events []Event `yaml:"events"`
}

var (
	catalog      = mustLoadCatalog(holmesRaheYAML)
	catalogIndex = indexCatalog(catalog)
)

// LoadCatalog parses and validates a life-event table.
func LoadCatalog(data []byte) ([]Event, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Events) != catalogSize {
		return nil, fmt.Errorf("catalog must hold %d events, got %d", catalogSize, len(f.Events))
	}
	seen := make(map[string]struct{}, len(f.Events))
	for i, e := range f.Events {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("event %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("event %d: duplicate id %q", i, id)
		}
		if e.Weight < 1 || e.Weight > 100 {
			return nil, fmt.Errorf("event %q: weight %d out of range", id, e.Weight)
		}
		seen[id] = struct{}{}
		f.Events[i].ID = id
	}
	return f.Events, nil
}

func mustLoadCatalog(data []byte) []Event {
	events, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return events
}

func indexCatalog(events []Event) map[string]int {
	idx := make(map[string]int, len(events))
	for _, e := range events {
		idx[e.ID] = e.Weight
	}
	return idx
}

// Catalog returns a copy of the life-event table in display order.
func Catalog() []Event {
	out := make([]Event, len(catalog))
	copy(out, catalog)
	return out
}

func EventWeight(id string) (int, bool) {
	w, ok := catalogIndex[strings.TrimSpace(id)]
	return w, ok
}

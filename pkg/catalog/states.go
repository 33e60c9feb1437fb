package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var statesYAML []byte

var states = mustLoadStates(statesYAML)

func mustLoadStates(data []byte) []string {
	list, err := parseStates(data)
	if err != nil {
		panic(err)
	}
	return list
}

func parseStates(data []byte) ([]string, error) {
	var doc struct {
		States []string `yaml:"states"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse states: %w", err)
	}
	if len(doc.States) == 0 {
		return nil, fmt.Errorf("parse states: list is empty")
	}
	return doc.States, nil
}

// States returns the Indian states and union territories in a fixed order.
// The returned slice is a copy.
func States() []string {
	out := make([]string, len(states))
	copy(out, states)
	return out
}

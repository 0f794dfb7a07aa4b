package main

import (
	"fmt"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/catalogfile"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

// loadIndex loads and validates the on-disk catalog at dir/rulesPath and
// builds the read-only Index the coordinator consumes. It refuses to
// build an index over a catalog with structural violations.
func loadIndex(dir, rulesPath string) (*catalog.Index, error) {
	patterns, err := catalogfile.LoadPatterns(dir)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	rules, err := catalogfile.LoadCompatibilityRules(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load compatibility rules: %w", err)
	}

	matrix := dimension.NewTransitionMatrix(dimension.DefaultRules())
	if violations := catalogfile.Validate(patterns, matrix); len(violations) > 0 {
		return nil, fmt.Errorf("catalog fails validation (%d violations), run validate-catalog for details", len(violations))
	}

	return catalog.NewIndex(patterns, rules, matrix), nil
}

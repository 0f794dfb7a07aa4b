package catalog

import (
	"sort"

	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

// Index is the read-only, indexed collection of behavioral patterns and
// compatibility rules described in spec §4.1. It is built once (see
// internal/catalogfile) and never mutated afterward; every query here is
// safe to call from multiple goroutines without external locking.
type Index struct {
	patterns    map[string]*BehavioralPattern
	rules       []CompatibilityRule
	transitions *dimension.TransitionMatrix
}

// NewIndex builds an Index over patterns and rules using matrix to
// answer sigma-to-sigma transition queries. It does not copy patterns
// or rules; callers must not mutate the slices/maps passed in afterward.
func NewIndex(patterns map[string]*BehavioralPattern, rules []CompatibilityRule, matrix *dimension.TransitionMatrix) *Index {
	return &Index{patterns: patterns, rules: rules, transitions: matrix}
}

// Lookup returns the pattern with the given id, or (nil, false).
func (idx *Index) Lookup(id string) (*BehavioralPattern, bool) {
	p, ok := idx.patterns[id]
	return p, ok
}

// Len returns the number of patterns in the catalog.
func (idx *Index) Len() int { return len(idx.patterns) }

// FilterByCore returns every pattern whose core matches partial, sorted
// by id for deterministic downstream selection (see design notes on
// scoring determinism).
func (idx *Index) FilterByCore(partial PartialCore) []*BehavioralPattern {
	var out []*BehavioralPattern
	for _, p := range idx.patterns {
		if partial.Matches(p.Core) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsTransitionValid reports whether a drone may move from fromID to
// toID: both patterns must exist, toID must be reachable from fromID's
// valid_to, fromID must be reachable from toID's valid_from, and the
// underlying sigma-to-sigma transition must be permitted. Self-
// transitions are always valid provided both ids resolve (trivially the
// same lookup).
func (idx *Index) IsTransitionValid(fromID, toID string) bool {
	from, ok := idx.patterns[fromID]
	if !ok {
		return false
	}
	to, ok := idx.patterns[toID]
	if !ok {
		return false
	}
	if fromID == toID {
		return true
	}
	if !containsString(from.Postconditions.ValidTo, toID) {
		return false
	}
	if !containsString(to.Preconditions.ValidFrom, fromID) {
		return false
	}
	return idx.transitions.IsValid(from.Core.Sigma, to.Core.Sigma)
}

// IsCompatible reports whether two patterns may be held by neighboring
// drones separated by separationM. It selects the most specific
// matching CompatibilityRule (see globSpecificity) among rules matching
// (idA,idB) or (idB,idA) — rules are bidirectional. Absent any matching
// rule, the open-world default is compatible.
func (idx *Index) IsCompatible(idA, idB string, separationM float64) bool {
	var (
		best      CompatibilityRule
		bestScore = -1
		found     bool
	)
	consider := func(r CompatibilityRule, score int) {
		if score > bestScore {
			best, bestScore, found = r, score, true
		}
	}
	for _, r := range idx.rules {
		if matchGlob(r.PatternAGlob, idA) && matchGlob(r.PatternBGlob, idB) {
			consider(r, globSpecificity(r.PatternAGlob)+globSpecificity(r.PatternBGlob))
		}
		if matchGlob(r.PatternAGlob, idB) && matchGlob(r.PatternBGlob, idA) {
			consider(r, globSpecificity(r.PatternAGlob)+globSpecificity(r.PatternBGlob))
		}
	}
	if !found {
		return true
	}
	if !best.Compatible {
		return false
	}
	return separationM >= best.MinSeparationM
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package catalog

import (
	"testing"

	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

func hoverPattern() *BehavioralPattern {
	return &BehavioralPattern{
		ID: "hover-autonomous-performer-bare.crazyflie-2.1",
		Core: dimension.CorePattern{
			Sigma: dimension.Hover, Kappa: dimension.Autonomous,
			Chi: dimension.Performer, Lambda: dimension.SharedCorridor,
			Tau: dimension.Bare, Rho: dimension.Crazyflie21,
		},
		Preconditions: Preconditions{
			ValidFrom: []string{"takeoff-autonomous-performer-bare.crazyflie-2.1"},
		},
		Postconditions: Postconditions{
			ValidTo: []string{"translate-autonomous-performer-bare.crazyflie-2.1"},
		},
	}
}

func translatePattern() *BehavioralPattern {
	return &BehavioralPattern{
		ID: "translate-autonomous-performer-bare.crazyflie-2.1",
		Core: dimension.CorePattern{
			Sigma: dimension.Translate, Kappa: dimension.Autonomous,
			Chi: dimension.Performer, Lambda: dimension.SharedCorridor,
			Tau: dimension.Bare, Rho: dimension.Crazyflie21,
		},
		Preconditions: Preconditions{
			ValidFrom: []string{"hover-autonomous-performer-bare.crazyflie-2.1"},
		},
	}
}

func testIndex() *Index {
	patterns := map[string]*BehavioralPattern{}
	h := hoverPattern()
	tr := translatePattern()
	patterns[h.ID] = h
	patterns[tr.ID] = tr
	matrix := dimension.NewTransitionMatrix(dimension.DefaultRules())
	return NewIndex(patterns, nil, matrix)
}

func TestLookup(t *testing.T) {
	idx := testIndex()
	if _, ok := idx.Lookup("nonexistent"); ok {
		t.Error("expected lookup miss")
	}
	if p, ok := idx.Lookup(hoverPattern().ID); !ok || p.ID != hoverPattern().ID {
		t.Error("expected lookup hit")
	}
}

func TestFilterByCore(t *testing.T) {
	idx := testIndex()
	sigma := dimension.Hover
	out := idx.FilterByCore(PartialCore{Sigma: &sigma})
	if len(out) != 1 || out[0].ID != hoverPattern().ID {
		t.Errorf("FilterByCore(sigma=hover) = %v, want just hover pattern", out)
	}
}

func TestIsTransitionValid(t *testing.T) {
	idx := testIndex()
	h, tr := hoverPattern().ID, translatePattern().ID
	if !idx.IsTransitionValid(h, tr) {
		t.Error("hover->translate should be valid")
	}
	if !idx.IsTransitionValid(h, h) {
		t.Error("self-transition should be valid")
	}
	if idx.IsTransitionValid(h, "missing") {
		t.Error("transition to missing pattern should be invalid")
	}
	if idx.IsTransitionValid("missing", h) {
		t.Error("transition from missing pattern should be invalid")
	}
	if idx.IsTransitionValid(tr, h) {
		t.Error("translate->hover should be invalid: hover.valid_from doesn't include translate in this fixture")
	}
}

func TestIsCompatible_OpenWorldDefault(t *testing.T) {
	idx := NewIndex(map[string]*BehavioralPattern{}, nil, dimension.NewTransitionMatrix(nil))
	if !idx.IsCompatible("a", "b", 0) {
		t.Error("no matching rule should default to compatible")
	}
}

func TestIsCompatible_SpecificityWins(t *testing.T) {
	rules := []CompatibilityRule{
		{PatternAGlob: "*", PatternBGlob: "*", Compatible: true, MinSeparationM: 0.5},
		{PatternAGlob: "hover-*", PatternBGlob: "hover-*", Compatible: true, MinSeparationM: 0.3},
		{PatternAGlob: "hover-auto-performer", PatternBGlob: "translate-auto-performer", Compatible: true, MinSeparationM: 0.4},
	}
	idx := NewIndex(map[string]*BehavioralPattern{}, rules, dimension.NewTransitionMatrix(nil))

	if !idx.IsCompatible("hover-auto-performer", "translate-auto-performer", 0.4) {
		t.Error("exact rule should win over wildcards and 0.4 >= 0.4 should pass")
	}
	if idx.IsCompatible("hover-auto-performer", "translate-auto-performer", 0.3) {
		t.Error("exact rule should win and 0.3 < 0.4 should fail")
	}
}

func TestIsCompatible_Bidirectional(t *testing.T) {
	rules := []CompatibilityRule{
		{PatternAGlob: "leader-*", PatternBGlob: "follower-*", Compatible: false, MinSeparationM: 1},
	}
	idx := NewIndex(map[string]*BehavioralPattern{}, rules, dimension.NewTransitionMatrix(nil))
	if idx.IsCompatible("follower-x", "leader-y", 5) {
		t.Error("rule should match reversed argument order too")
	}
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		glob, s string
		want    bool
	}{
		{"", "", true},
		{"", "x", false},
		{"*", "anything", true},
		{"hover-*", "hover-autonomous-x", true},
		{"hover-*", "translate-x", false},
		{"*-bare", "hover-bare", true},
		{"*-bare", "hover-bare-extra", false},
		{"hover-*-bare", "hover-autonomous-bare", true},
		{"hover-*-bare", "hover-bare", false},
		{"hover-*-bare", "translate-autonomous-bare", false},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "aXcYb", false},
		{"exact", "exact", true},
		{"exact", "exacter", false},
	}
	for _, c := range cases {
		if got := matchGlob(c.glob, c.s); got != c.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", c.glob, c.s, got, c.want)
		}
	}
}

package constraint

import (
	"testing"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

func corePattern(sigma dimension.BehavioralMode, chi dimension.FormationRole) dimension.CorePattern {
	return dimension.CorePattern{
		Sigma: sigma, Kappa: dimension.Autonomous, Chi: chi,
		Lambda: dimension.DefaultOwnership(chi), Tau: dimension.Bare, Rho: dimension.Crazyflie21,
	}
}

func hoverAutoPerformer() *catalog.BehavioralPattern {
	return &catalog.BehavioralPattern{
		ID:   "hover-autonomous-performer-bare.crazyflie-2.1",
		Core: corePattern(dimension.Hover, dimension.Performer),
		Preconditions: catalog.Preconditions{
			ValidFrom: []string{"takeoff-autonomous-performer-bare.crazyflie-2.1"},
		},
		Postconditions: catalog.Postconditions{
			ValidTo: []string{"translate-autonomous-performer-bare.crazyflie-2.1"},
		},
	}
}

func emergencyLand() *catalog.BehavioralPattern {
	return &catalog.BehavioralPattern{
		ID:            "land-emergency-performer-bare.crazyflie-2.1",
		Core:          corePattern(dimension.Land, dimension.Performer),
		Preconditions: catalog.Preconditions{ValidFrom: []string{"*"}},
	}
}

func buildIndex(patterns ...*catalog.BehavioralPattern) *catalog.Index {
	m := map[string]*catalog.BehavioralPattern{}
	for _, p := range patterns {
		m[p.ID] = p
	}
	return catalog.NewIndex(m, nil, dimension.NewTransitionMatrix(dimension.DefaultRules()))
}

func newModelWithDrone(id string, pos world.Position, currentPattern string, core dimension.CorePattern, battery float64) *world.Model {
	m := world.NewModel(world.Config{CommRangeM: 5, StaleThresholdMs: 500})
	m.AddDrone(id, core.Rho, core.Tau, currentPattern, world.SensorState{Position: pos, BatteryPercentage: battery, PositionQuality: 1})
	m.UpdatePattern(id, currentPattern, core.Sigma, core.Kappa, core.Chi, core.Lambda)
	m.UpdateTelemetry(id, world.SensorState{Position: pos, BatteryPercentage: battery, PositionQuality: 1})
	return m
}

// TestSolve_IsolatedHoverStable mirrors the isolated-hover end-to-end
// scenario: a lone drone with no neighbors should keep its current
// pattern because the stability score (+10) dominates.
func TestSolve_IsolatedHoverStable(t *testing.T) {
	hover := hoverAutoPerformer()
	idx := buildIndex(hover)
	core := hover.Core
	m := newModelWithDrone("d0", world.Position{X: 0, Y: 0, Z: 1}, hover.ID, core, 0.8)

	out := Solve(m, idx, []string{"d0"}, nil)
	if len(out) != 1 || out[0].PatternID != hover.ID {
		t.Errorf("Solve(isolated hover) = %+v, want stay on %s", out, hover.ID)
	}
}

// TestSolve_BatteryForcedExit mirrors the battery-forced-exit scenario:
// a drone below its pattern's forced-exit threshold must transition to
// the forced-exit target even under a conflicting objective.
func TestSolve_BatteryForcedExit(t *testing.T) {
	el := emergencyLand()
	hover := hoverAutoPerformer()
	hover.Postconditions.ForcedExits = []catalog.ForcedExit{
		{Condition: "battery < 0.10", TargetPattern: el.ID},
	}
	idx := buildIndex(hover, el)
	core := hover.Core
	m := newModelWithDrone("d0", world.Position{X: 0, Y: 0, Z: 1}, hover.ID, core, 0.05)

	objectives := []Objective{{Type: ObjectiveLandAll}}
	out := Solve(m, idx, []string{"d0"}, objectives)
	if len(out) != 1 || out[0].PatternID != el.ID {
		t.Errorf("Solve(forced exit) = %+v, want forced exit to %s", out, el.ID)
	}
}

func TestSolve_ForcedExitNotTriggeredAboveThreshold(t *testing.T) {
	el := emergencyLand()
	hover := hoverAutoPerformer()
	hover.Postconditions.ForcedExits = []catalog.ForcedExit{
		{Condition: "battery < 0.10", TargetPattern: el.ID},
	}
	idx := buildIndex(hover, el)
	core := hover.Core
	m := newModelWithDrone("d0", world.Position{X: 0, Y: 0, Z: 1}, hover.ID, core, 0.8)

	out := Solve(m, idx, []string{"d0"}, nil)
	if len(out) != 1 || out[0].PatternID != hover.ID {
		t.Errorf("Solve(above threshold) = %+v, want to stay hover", out)
	}
}

func TestSolve_UnknownDroneSkipped(t *testing.T) {
	idx := buildIndex(hoverAutoPerformer())
	m := world.NewModel(world.Config{})
	out := Solve(m, idx, []string{"ghost"}, nil)
	if len(out) != 0 {
		t.Errorf("Solve with unknown drone = %v, want no assignments", out)
	}
}

func TestSolve_EmptyAffectedSet(t *testing.T) {
	idx := buildIndex(hoverAutoPerformer())
	m := world.NewModel(world.Config{})
	out := Solve(m, idx, nil, nil)
	if len(out) != 0 {
		t.Errorf("Solve with empty affected set = %v, want none", out)
	}
}

func TestSolve_EmptyCatalogFallsBackToSelf(t *testing.T) {
	idx := buildIndex()
	core := corePattern(dimension.Hover, dimension.Performer)
	m := newModelWithDrone("d0", world.Position{}, "some-unknown-pattern", core, 0.8)
	out := Solve(m, idx, []string{"d0"}, nil)
	if len(out) != 1 || out[0].PatternID != "some-unknown-pattern" {
		t.Errorf("Solve(empty catalog) = %+v, want fallback-3 self", out)
	}
}

func TestParseCondition(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"battery < 0.10", true},
		{"position_quality < 0.5", true},
		{"altitude < 5", false},
		{"battery <= 0.10", false},
		{"battery < notanumber", false},
		{"", false},
	}
	for _, c := range cases {
		_, ok := parseCondition(c.raw)
		if ok != c.ok {
			t.Errorf("parseCondition(%q) ok = %v, want %v", c.raw, ok, c.ok)
		}
	}
}

func TestEvaluateCondition(t *testing.T) {
	sensor := world.SensorState{BatteryPercentage: 0.05, PositionQuality: 0.9}
	if !evaluateCondition("battery < 0.10", sensor) {
		t.Error("expected battery < 0.10 to be true at 0.05")
	}
	if evaluateCondition("battery < 0.01", sensor) {
		t.Error("expected battery < 0.01 to be false at 0.05")
	}
	if evaluateCondition("unknown_field < 0.5", sensor) {
		t.Error("expected unknown field to evaluate false")
	}
}

package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/comms"
	"github.com/papyruslabs-ai/seshat-swarm/internal/constraint"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/roles"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

func corePattern(sigma dimension.BehavioralMode, chi dimension.FormationRole) dimension.CorePattern {
	return dimension.CorePattern{
		Sigma: sigma, Kappa: dimension.Autonomous, Chi: chi,
		Lambda: dimension.DefaultOwnership(chi), Tau: dimension.Bare, Rho: dimension.Crazyflie21,
	}
}

func pat(id string, core dimension.CorePattern, opts ...func(*catalog.BehavioralPattern)) *catalog.BehavioralPattern {
	p := &catalog.BehavioralPattern{ID: id, Core: core}
	for _, o := range opts {
		o(p)
	}
	return p
}

func withValidTo(ids ...string) func(*catalog.BehavioralPattern) {
	return func(p *catalog.BehavioralPattern) { p.Postconditions.ValidTo = append(p.Postconditions.ValidTo, ids...) }
}

func withValidFrom(ids ...string) func(*catalog.BehavioralPattern) {
	return func(p *catalog.BehavioralPattern) { p.Preconditions.ValidFrom = append(p.Preconditions.ValidFrom, ids...) }
}

func withForcedExit(condition, target string) func(*catalog.BehavioralPattern) {
	return func(p *catalog.BehavioralPattern) {
		p.Postconditions.ForcedExits = append(p.Postconditions.ForcedExits, catalog.ForcedExit{Condition: condition, TargetPattern: target})
	}
}

func buildIndex(patterns ...*catalog.BehavioralPattern) *catalog.Index {
	m := map[string]*catalog.BehavioralPattern{}
	for _, p := range patterns {
		m[p.ID] = p
	}
	return catalog.NewIndex(m, nil, dimension.NewTransitionMatrix(dimension.DefaultRules()))
}

func newTestCoordinator(idx *catalog.Index) (*Coordinator, *comms.SimComms) {
	sc := comms.NewSimComms()
	ctx := context.Background()
	co := New(ctx, sc, idx, DefaultConfig())
	return co, sc
}

// TestTick_IsolatedHoverStable mirrors the isolated-hover scenario at the
// tick level: a lone drone with no neighbors and no forced exit stays put
// and no command is emitted since nothing changed.
func TestTick_IsolatedHoverStable(t *testing.T) {
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer))
	idx := buildIndex(hover)
	co, sc := newTestCoordinator(idx)
	if err := co.Start(context.Background(), []string{"d0"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{
		Position: world.Position{X: 0, Y: 0, Z: 1}, BatteryPercentage: 0.8, PositionQuality: 1,
	})

	co.Tick(time.Now())

	if len(sc.Sent()) != 0 {
		t.Errorf("expected no commands for a stable isolated drone, got %v", sc.Sent())
	}
}

// TestTick_TwoClusterIsolation mirrors the two-cluster-isolation scenario:
// a forced exit on one cluster's drone must not touch the other cluster.
func TestTick_TwoClusterIsolation(t *testing.T) {
	land := pat("land-emergency-performer-bare.crazyflie-2.1", corePattern(dimension.Land, dimension.Performer))
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer),
		withValidTo(land.ID), withForcedExit("battery < 0.10", land.ID))
	idx := buildIndex(hover, land)
	co, sc := newTestCoordinator(idx)
	co.Start(context.Background(), []string{"a0", "a1", "b0", "b1"})

	co.RegisterDrone("a0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 0, Y: 0}, BatteryPercentage: 0.05, PositionQuality: 1})
	co.RegisterDrone("a1", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 1, Y: 0}, BatteryPercentage: 0.8, PositionQuality: 1})
	co.RegisterDrone("b0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 1000, Y: 0}, BatteryPercentage: 0.8, PositionQuality: 1})
	co.RegisterDrone("b1", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 1001, Y: 0}, BatteryPercentage: 0.8, PositionQuality: 1})

	co.Tick(time.Now())

	sent := map[string]comms.DroneCommand{}
	for _, s := range sc.Sent() {
		sent[s.DroneID] = s.Command
	}
	if _, ok := sent["b0"]; ok {
		t.Errorf("b0 in a distant cluster should not have received a command")
	}
	if _, ok := sent["b1"]; ok {
		t.Errorf("b1 in a distant cluster should not have received a command")
	}
}

// TestTick_BatteryForcedExit mirrors the battery-forced-exit scenario at
// the tick level: a drone under threshold transitions and a command is
// emitted for it.
func TestTick_BatteryForcedExit(t *testing.T) {
	land := pat("land-emergency-performer-bare.crazyflie-2.1", corePattern(dimension.Land, dimension.Performer))
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer),
		withValidTo(land.ID), withForcedExit("battery < 0.10", land.ID))
	idx := buildIndex(hover, land)
	co, sc := newTestCoordinator(idx)
	co.Start(context.Background(), []string{"d0"})
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{
		Position: world.Position{X: 0, Y: 0, Z: 1}, BatteryPercentage: 0.05, PositionQuality: 1,
	})

	co.Tick(time.Now())

	sent := sc.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one command, got %d", len(sent))
	}
	got, ok := co.numericToPattern[sent[0].Command.PatternID]
	if !ok || got != land.ID {
		t.Errorf("expected d0 to be commanded to %s, got numeric %d (%s)", land.ID, sent[0].Command.PatternID, got)
	}
}

// TestTick_ChainCascade mirrors the chain-cascade scenario: a 4-drone
// line 2 m apart where d0's forced exit puts d0 and the drones in its
// blast radius into the solve; the test checks that d0, the forced-exit
// drone, is among the tick's assignments.
func TestTick_ChainCascade(t *testing.T) {
	land := pat("land-emergency-performer-bare.crazyflie-2.1", corePattern(dimension.Land, dimension.Performer))
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer),
		withValidTo(land.ID), withForcedExit("battery < 0.10", land.ID))
	idx := buildIndex(hover, land)
	co, sc := newTestCoordinator(idx)
	ids := []string{"d0", "d1", "d2", "d3"}
	co.Start(context.Background(), ids)
	for i, id := range ids {
		battery := 0.8
		if id == "d0" {
			battery = 0.05
		}
		co.RegisterDrone(id, dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{
			Position: world.Position{X: float64(i) * 2, Y: 0}, BatteryPercentage: battery, PositionQuality: 1,
		})
	}

	affected := co.Tick(time.Now())
	if len(affected) == 0 {
		t.Fatal("expected at least the forced-exit drone to be reassigned")
	}
	found := false
	for _, a := range affected {
		if a.DroneID == "d0" {
			found = true
		}
	}
	if !found {
		t.Error("expected d0 (the forced-exit drone) among the assignments")
	}
	_ = sc.Sent()
}

// TestTick_RoleRotationUnderSafety mirrors the role-rotation-under-safety
// scenario: on a role-reassignment tick, a critically low battery drone
// is forced to charger-inbound regardless of hysteresis.
func TestTick_RoleRotationUnderSafety(t *testing.T) {
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer))
	chargerInbound := pat("translate-autonomous-charger-inbound-bare.crazyflie-2.1", corePattern(dimension.Translate, dimension.ChargerInbound),
		withValidFrom(hover.ID))
	hover.Postconditions.ValidTo = append(hover.Postconditions.ValidTo, chargerInbound.ID)
	idx := buildIndex(hover, chargerInbound)

	co, _ := newTestCoordinator(idx)
	co.cfg.RoleReassignmentInterval = 1
	co.Formation = roles.FormationSpec{MinPerformers: 1}
	co.Coverage = roles.CoverageSpec{}
	ids := []string{"d0", "d1"}
	co.Start(context.Background(), ids)
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 0, Y: 0}, BatteryPercentage: 0.05, PositionQuality: 1})
	co.RegisterDrone("d1", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 1, Y: 0}, BatteryPercentage: 0.9, PositionQuality: 1})

	co.Tick(time.Now())

	if _, ok := co.world.GetDrone("d0"); !ok {
		t.Fatal("d0 missing from world model")
	}
	// The role decision is checked, not the world χ: the solve that follows
	// the role change assigns d0 a pattern and χ is taken from its core.
	if got := co.LastRoleChanges()["d0"]; got != dimension.ChargerInbound {
		t.Errorf("expected d0 to be forced to charger-inbound under safety, got %s", got)
	}
}

// TestTick_HoverPairWithoutForcedExitSendsNothing: two hovering neighbors
// with a hover objective, no forced exit and no role-reassignment tick
// produce no solve and so no command.
func TestTick_HoverPairWithoutForcedExitSendsNothing(t *testing.T) {
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer))
	translate := pat("translate-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Translate, dimension.Performer),
		withValidFrom(hover.ID))
	hover.Postconditions.ValidTo = append(hover.Postconditions.ValidTo, translate.ID)
	idx := buildIndex(hover, translate)

	co, sc := newTestCoordinator(idx)
	co.Objectives = []constraint.Objective{{Type: constraint.ObjectiveHover}}
	co.Start(context.Background(), []string{"d0", "d1"})
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 0, Y: 0}, BatteryPercentage: 0.8, PositionQuality: 1})
	co.RegisterDrone("d1", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 1, Y: 0}, BatteryPercentage: 0.8, PositionQuality: 1})

	co.Tick(time.Now())

	if len(sc.Sent()) != 0 {
		t.Errorf("expected both drones to remain on hover (no forced exit, no change), got %d commands", len(sc.Sent()))
	}
}

func TestStop_LandsEveryDrone(t *testing.T) {
	grounded := pat("grounded-autonomous-reserve-bare.crazyflie-2.1", corePattern(dimension.Grounded, dimension.Reserve))
	hover := pat("hover-autonomous-performer-bare.crazyflie-2.1", corePattern(dimension.Hover, dimension.Performer),
		withValidTo(grounded.ID))
	idx := buildIndex(hover, grounded)
	co, sc := newTestCoordinator(idx)
	co.Start(context.Background(), []string{"d0"})
	co.RegisterDrone("d0", dimension.Crazyflie21, dimension.Bare, hover.ID, world.SensorState{Position: world.Position{X: 0, Y: 0, Z: 1}, BatteryPercentage: 0.8, PositionQuality: 1})

	if err := co.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(sc.Sent()) != 1 {
		t.Fatalf("expected one land command on shutdown, got %d", len(sc.Sent()))
	}
	if sc.Connected() {
		t.Error("expected comms to be disconnected after Stop")
	}
}

func TestHandleTelemetry_UnknownDroneIgnored(t *testing.T) {
	idx := buildIndex()
	co, sc := newTestCoordinator(idx)
	co.Start(context.Background(), []string{"ghost"})
	sc.Inject("ghost", comms.TelemetryPacket{})
	if _, ok := co.world.GetDrone("ghost"); ok {
		t.Error("telemetry for an unregistered drone should not create a world entry")
	}
}

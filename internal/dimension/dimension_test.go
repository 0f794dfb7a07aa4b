package dimension

import "testing"

func TestCanonicalKey(t *testing.T) {
	c := CorePattern{
		Sigma: Hover, Kappa: Autonomous, Chi: Performer,
		Lambda: SharedCorridor, Tau: Bare, Rho: Crazyflie21,
	}
	want := "hover-autonomous-performer-bare.crazyflie-2.1"
	if got := c.CanonicalKey(); got != want {
		t.Errorf("CanonicalKey() = %q, want %q", got, want)
	}
}

func TestEnumRoundTrip(t *testing.T) {
	for i := BehavioralMode(0); i < behavioralModeCount; i++ {
		got, ok := ParseBehavioralMode(i.String())
		if !ok || got != i {
			t.Errorf("BehavioralMode round trip failed for %d (%q)", i, i.String())
		}
	}
	for i := FormationRole(0); i < formationRoleCount; i++ {
		got, ok := ParseFormationRole(i.String())
		if !ok || got != i {
			t.Errorf("FormationRole round trip failed for %d (%q)", i, i.String())
		}
	}
}

func TestValidate_TraitHardware(t *testing.T) {
	c := CorePattern{
		Sigma: Hover, Kappa: Autonomous, Chi: Performer,
		Lambda: SharedCorridor, Tau: SolarEquipped, Rho: Crazyflie21,
	}
	if v := Validate(c); v != ViolationTraitHardware {
		t.Errorf("Validate() = %q, want %q", v, ViolationTraitHardware)
	}

	c.Rho = SimGazebo
	if v := Validate(c); v != NoViolation {
		t.Errorf("Validate() on sim hardware = %q, want no violation", v)
	}
}

func TestValidate_ModeExcludedForTrait(t *testing.T) {
	c := CorePattern{
		Sigma: Orbit, Kappa: Autonomous, Chi: Performer,
		Lambda: SharedCorridor, Tau: SolarEquipped, Rho: SimGazebo,
	}
	if v := Validate(c); v != ViolationModeTrait {
		t.Errorf("Validate() = %q, want %q", v, ViolationModeTrait)
	}
}

func TestValidate_ModeExcludedForHardware(t *testing.T) {
	c := CorePattern{
		Sigma: Dock, Kappa: Autonomous, Chi: Performer,
		Lambda: SharedCorridor, Tau: Bare, Rho: ESPDrone,
	}
	if v := Validate(c); v != ViolationModeHardware {
		t.Errorf("Validate() = %q, want %q", v, ViolationModeHardware)
	}
}

func TestValidate_RoleExcludedForTrait(t *testing.T) {
	c := CorePattern{
		Sigma: Hover, Kappa: Autonomous, Chi: Scout,
		Lambda: ExclusiveVolume, Tau: DualDeck, Rho: SimGazebo,
	}
	if v := Validate(c); v != ViolationRoleTrait {
		t.Errorf("Validate() = %q, want %q", v, ViolationRoleTrait)
	}
}

func TestValidate_OwnershipForRole(t *testing.T) {
	c := CorePattern{
		Sigma: Hover, Kappa: Autonomous, Chi: Leader,
		Lambda: CommBridge, Tau: Bare, Rho: Crazyflie21,
	}
	if v := Validate(c); v != ViolationOwnershipRole {
		t.Errorf("Validate() = %q, want %q", v, ViolationOwnershipRole)
	}
}

func TestDefaultOwnership(t *testing.T) {
	if got := DefaultOwnership(Reserve); got != SharedCorridor {
		t.Errorf("DefaultOwnership(Reserve) = %s, want shared-corridor", got)
	}
}

func TestTransitionMatrix_RequiredRules(t *testing.T) {
	m := NewTransitionMatrix(DefaultRules())

	if !m.IsValid(Grounded, Takeoff) {
		t.Error("grounded->takeoff should be valid")
	}
	if m.IsValid(Grounded, Hover) {
		t.Error("grounded->hover should be invalid")
	}
	if m.IsValid(Grounded, Translate) {
		t.Error("grounded->translate should be invalid")
	}
	if m.IsValid(Grounded, Orbit) {
		t.Error("grounded->orbit should be invalid")
	}
	for m2 := BehavioralMode(0); m2 < behavioralModeCount; m2++ {
		if !m.IsValid(m2, Avoid) {
			t.Errorf("%s->avoid should always be valid", m2)
		}
	}
}

func TestTransitionMatrix_SelfTransitionAlwaysValid(t *testing.T) {
	m := NewTransitionMatrix(DefaultRules())
	for s := BehavioralMode(0); s < behavioralModeCount; s++ {
		if !m.IsValid(s, s) {
			t.Errorf("self-transition %s->%s should be valid", s, s)
		}
	}
}

func TestTransitionMatrix_EveryNonGroundedReachesGrounded(t *testing.T) {
	m := NewTransitionMatrix(DefaultRules())
	rules := DefaultRules()

	// Build a valid_to adjacency from concrete (non-wildcard) rules only;
	// the *->avoid wildcard doesn't help reachability to grounded.
	adj := make(map[BehavioralMode][]BehavioralMode)
	for _, r := range rules {
		if r.FromWildcard || r.ToWildcard || !r.Valid {
			continue
		}
		adj[r.From] = append(adj[r.From], r.To)
	}
	_ = m

	for s := BehavioralMode(0); s < behavioralModeCount; s++ {
		if s == Grounded {
			continue
		}
		if !reaches(adj, s, Grounded, map[BehavioralMode]bool{}) {
			t.Errorf("%s has no path to grounded", s)
		}
	}
}

func reaches(adj map[BehavioralMode][]BehavioralMode, from, to BehavioralMode, seen map[BehavioralMode]bool) bool {
	if from == to {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, n := range adj[from] {
		if reaches(adj, n, to, seen) {
			return true
		}
	}
	return false
}

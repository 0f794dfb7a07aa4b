package dimension

// wildcard is the "*" side of a TransitionRule; it never appears as a
// concrete BehavioralMode so it is represented out-of-band by the two
// bool flags on TransitionRule rather than by a sentinel enum value.

// TransitionRule declares whether a σ-to-σ transition is permitted.
type TransitionRule struct {
	From           BehavioralMode
	FromWildcard   bool
	To             BehavioralMode
	ToWildcard     bool
	Valid          bool
	Via            *BehavioralMode
	TransitionTime float64 // seconds
	Reason         string
}

// TransitionMatrix answers is-this-transition-valid queries.
type TransitionMatrix struct {
	exact     map[[2]BehavioralMode]TransitionRule
	wildFrom  map[BehavioralMode]TransitionRule // (*, to)
	wildTo    map[BehavioralMode]TransitionRule // (from, *)
}

// NewTransitionMatrix builds a matrix from a rule list. Later rules with
// the same (from,to) shape overwrite earlier ones, so callers can layer
// overrides on top of DefaultRules().
func NewTransitionMatrix(rules []TransitionRule) *TransitionMatrix {
	m := &TransitionMatrix{
		exact:    make(map[[2]BehavioralMode]TransitionRule),
		wildFrom: make(map[BehavioralMode]TransitionRule),
		wildTo:   make(map[BehavioralMode]TransitionRule),
	}
	for _, r := range rules {
		switch {
		case r.FromWildcard && r.ToWildcard:
			// A fully-wildcard rule has no useful lookup key; skip it.
			continue
		case r.FromWildcard:
			m.wildFrom[r.To] = r
		case r.ToWildcard:
			m.wildTo[r.From] = r
		default:
			m.exact[[2]BehavioralMode{r.From, r.To}] = r
		}
	}
	return m
}

// IsValid reports whether from->to is a permitted σ transition. Lookup
// order is exact(from,to), then wildcard(*,to), then wildcard(from,*).
// Self-transitions are always valid regardless of the matrix.
func (m *TransitionMatrix) IsValid(from, to BehavioralMode) bool {
	if from == to {
		return true
	}
	if r, ok := m.exact[[2]BehavioralMode{from, to}]; ok {
		return r.Valid
	}
	if r, ok := m.wildFrom[to]; ok {
		return r.Valid
	}
	if r, ok := m.wildTo[from]; ok {
		return r.Valid
	}
	return false
}

// Lookup returns the rule that would answer IsValid(from,to), and
// whether one was found, without collapsing self-transitions to true.
func (m *TransitionMatrix) Lookup(from, to BehavioralMode) (TransitionRule, bool) {
	if r, ok := m.exact[[2]BehavioralMode{from, to}]; ok {
		return r, true
	}
	if r, ok := m.wildFrom[to]; ok {
		return r, true
	}
	if r, ok := m.wildTo[from]; ok {
		return r, true
	}
	return TransitionRule{}, false
}

func viaMode(m BehavioralMode) *BehavioralMode { return &m }

// DefaultRules returns the declarative transition rule set for the
// fifteen behavioral modes. It satisfies the spec-required rules
// (grounded->takeoff valid; grounded->{hover,translate,orbit} invalid
// via takeoff; *->avoid always valid) and the invariant that every
// non-grounded mode has a path to grounded via valid_to edges.
func DefaultRules() []TransitionRule {
	return []TransitionRule{
		// Universal escape hatch.
		{FromWildcard: true, To: Avoid, Valid: true},

		// Required negative rules: cannot skip the takeoff ceremony.
		{From: Grounded, To: Hover, Valid: false, Via: viaMode(Takeoff), Reason: "must take off first"},
		{From: Grounded, To: Translate, Valid: false, Via: viaMode(Takeoff), Reason: "must take off first"},
		{From: Grounded, To: Orbit, Valid: false, Via: viaMode(Takeoff), Reason: "must take off first"},
		{From: Grounded, To: Takeoff, Valid: true, TransitionTime: 2},

		// Takeoff into the air.
		{From: Takeoff, To: Hover, Valid: true, TransitionTime: 3},
		{From: Takeoff, To: Climb, Valid: true, TransitionTime: 1},

		// Hover is the hub of normal flight.
		{From: Hover, To: Translate, Valid: true},
		{From: Hover, To: Orbit, Valid: true},
		{From: Hover, To: Climb, Valid: true},
		{From: Hover, To: Descend, Valid: true},
		{From: Hover, To: Land, Valid: true, TransitionTime: 4},
		{From: Hover, To: Dock, Valid: true, TransitionTime: 5},
		{From: Hover, To: FormationHold, Valid: true},
		{From: Hover, To: FormationTransition, Valid: true},
		{From: Hover, To: RelayHold, Valid: true},

		{From: Translate, To: Hover, Valid: true},
		{From: Translate, To: Climb, Valid: true},
		{From: Translate, To: Descend, Valid: true},
		{From: Translate, To: FormationTransition, Valid: true},
		{From: Translate, To: FormationHold, Valid: true},

		{From: Orbit, To: Hover, Valid: true},
		{From: Orbit, To: FormationHold, Valid: true},

		{From: Climb, To: Hover, Valid: true},
		{From: Climb, To: Translate, Valid: true},

		{From: Descend, To: Hover, Valid: true},
		{From: Descend, To: Land, Valid: true, TransitionTime: 3},

		{From: Land, To: Grounded, Valid: true, TransitionTime: 2},

		{From: Avoid, To: Hover, Valid: true},
		{From: Avoid, To: Land, Valid: true},

		// Docking cycle.
		{From: Dock, To: Docked, Valid: true, TransitionTime: 3},
		{From: Docked, To: Undock, Valid: true, TransitionTime: 2},
		{From: Undock, To: Hover, Valid: true},
		{From: Undock, To: Takeoff, Valid: true},

		// Formation states.
		{From: FormationHold, To: FormationTransition, Valid: true},
		{From: FormationHold, To: Hover, Valid: true},
		{From: FormationHold, To: Translate, Valid: true},
		{From: FormationHold, To: Orbit, Valid: true},
		{From: FormationTransition, To: FormationHold, Valid: true},
		{From: FormationTransition, To: Hover, Valid: true},

		// Relay.
		{From: RelayHold, To: Hover, Valid: true},
		{From: RelayHold, To: FormationHold, Valid: true},
	}
}

// Package catalog holds the finite, pre-verified collection of
// behavioral patterns and the compatibility rules between them, and
// answers the lookup/filter/transition/compatibility queries the rest
// of the coordination core is built on. The catalog is read-only after
// it is built; nothing here mutates a pattern or rule in place.
package catalog

import "github.com/papyruslabs-ai/seshat-swarm/internal/dimension"

// VerificationStatus records the offline verification outcome for a
// pattern. Verification itself (the geometric/energy proofs) happens
// outside this repository; the catalog only records the result.
type VerificationStatus string

const (
	Verified   VerificationStatus = "verified"
	Unverified VerificationStatus = "unverified"
	Failed     VerificationStatus = "failed"
)

// Bounds is an inclusive [Min, Max] range for a generator parameter.
type Bounds struct {
	Min float64
	Max float64
}

// Generator names how a pattern parameterizes the firmware's motor
// command generator. Defaults and Bounds are keyed by parameter name
// (e.g. "radius", "omega", "offset_x") and hold small vectors so a
// single named parameter can carry more than one scalar (an offset is
// x/y/z, a radius is one value).
type Generator struct {
	Type     dimension.GeneratorType
	Defaults map[string][]float64
	Bounds   map[string]Bounds
}

// ForcedExit pairs a condition with the pattern id to jump to when that
// condition evaluates true. The condition grammar is a single
// comparison "<field> < <number>" over δ; it is parsed and evaluated by
// the constraint package (see constraint.EvaluateForcedExit).
type ForcedExit struct {
	Condition     string
	TargetPattern string
}

// Preconditions gate whether a drone may enter a pattern.
type Preconditions struct {
	BatteryFloor         float64
	PositionQualityFloor float64
	MinReferences        int
	ValidFrom            []string
	HardwareRequirements []dimension.HardwareTarget
}

// Postconditions describe legal successors and safety escapes from a
// pattern.
type Postconditions struct {
	ValidTo     []string
	ForcedExits []ForcedExit
}

// Verification records the offline-verified operating envelope for a
// pattern.
type Verification struct {
	Status               VerificationStatus
	CollisionClearanceM  float64
	MaxVelocityMs        float64
	MaxAccelerationMs2   float64
	EnergyRateJs         float64
	MaxDurationS         float64
	VerifiedTransitions  []string
}

// BehavioralPattern is one entry in the catalog: a pre-verified,
// parameterized behavior a drone may be assigned to.
type BehavioralPattern struct {
	ID            string
	Core          dimension.CorePattern
	Description   string
	Preconditions Preconditions
	Postconditions Postconditions
	Generator     Generator
	Verification  Verification
}

// CompatibilityRule declares whether two patterns (matched by glob) may
// be held by neighboring drones simultaneously, and if so, at what
// minimum separation. Rules are bidirectional: a rule matching (a, b)
// also answers a query for (b, a).
type CompatibilityRule struct {
	PatternAGlob   string
	PatternBGlob   string
	Compatible     bool
	MinSeparationM float64
	Reason         string
}

// PartialCore is a filter over CorePattern's six fields. A nil field is
// unconstrained; a non-nil field must equal the pattern's value exactly.
type PartialCore struct {
	Sigma  *dimension.BehavioralMode
	Kappa  *dimension.AutonomyLevel
	Chi    *dimension.FormationRole
	Lambda *dimension.ResourceOwnership
	Tau    *dimension.PhysicalTraits
	Rho    *dimension.HardwareTarget
}

// Matches reports whether every specified field of p equals the
// corresponding field of c.
func (p PartialCore) Matches(c dimension.CorePattern) bool {
	if p.Sigma != nil && *p.Sigma != c.Sigma {
		return false
	}
	if p.Kappa != nil && *p.Kappa != c.Kappa {
		return false
	}
	if p.Chi != nil && *p.Chi != c.Chi {
		return false
	}
	if p.Lambda != nil && *p.Lambda != c.Lambda {
		return false
	}
	if p.Tau != nil && *p.Tau != c.Tau {
		return false
	}
	if p.Rho != nil && *p.Rho != c.Rho {
		return false
	}
	return true
}

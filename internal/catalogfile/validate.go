package catalogfile

import (
	"fmt"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

// ValidationError names one catalog invariant violation, keyed to the
// pattern that failed it.
type ValidationError struct {
	PatternID string
	Reason    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.PatternID, e.Reason)
}

// Validate checks the catalog's structural invariants (spec Invariant 3)
// against every pattern, returning every violation found rather than
// stopping at the first one so a caller can report a complete picture
// of what is wrong with a catalog.
func Validate(patterns map[string]*catalog.BehavioralPattern, matrix *dimension.TransitionMatrix) []ValidationError {
	var errs []ValidationError

	for id, p := range patterns {
		if p.ID != id {
			errs = append(errs, ValidationError{id, fmt.Sprintf("map key %q does not match pattern id %q", id, p.ID)})
		}
		if p.ID != p.Core.CanonicalKey() {
			errs = append(errs, ValidationError{p.ID, fmt.Sprintf("id does not equal canonical key %q", p.Core.CanonicalKey())})
		}
		if v := dimension.Validate(p.Core); v != dimension.NoViolation {
			errs = append(errs, ValidationError{p.ID, fmt.Sprintf("core pattern violates dependency rules: %s", v)})
		}

		for _, ref := range p.Preconditions.ValidFrom {
			if _, ok := patterns[ref]; !ok {
				errs = append(errs, ValidationError{p.ID, fmt.Sprintf("valid_from references missing pattern %q", ref)})
			}
		}
		for _, ref := range p.Postconditions.ValidTo {
			target, ok := patterns[ref]
			if !ok {
				errs = append(errs, ValidationError{p.ID, fmt.Sprintf("valid_to references missing pattern %q", ref)})
				continue
			}
			if !matrix.IsValid(p.Core.Sigma, target.Core.Sigma) {
				errs = append(errs, ValidationError{p.ID, fmt.Sprintf("valid_to edge to %q implies a sigma transition not permitted by the transition matrix", ref)})
			}
		}
		for _, fe := range p.Postconditions.ForcedExits {
			if _, ok := patterns[fe.TargetPattern]; !ok {
				errs = append(errs, ValidationError{p.ID, fmt.Sprintf("forced_exit target %q does not exist", fe.TargetPattern)})
			}
		}

		if p.Core.Kappa == dimension.Emergency {
			if p.Preconditions.BatteryFloor != 0 {
				errs = append(errs, ValidationError{p.ID, "emergency-kappa pattern must have battery_floor = 0"})
			}
			if p.Preconditions.PositionQualityFloor != 0 {
				errs = append(errs, ValidationError{p.ID, "emergency-kappa pattern must have position_quality_floor = 0"})
			}
		}

		if len(p.Preconditions.ValidFrom) == 0 && len(p.Postconditions.ValidTo) == 0 {
			errs = append(errs, ValidationError{p.ID, "pattern is completely isolated (no valid_from and no valid_to)"})
		}

		if p.Core.Sigma != dimension.Grounded && !reachesGrounded(p.ID, patterns) {
			errs = append(errs, ValidationError{p.ID, "no path via valid_to/forced_exits to any grounded pattern"})
		}
	}

	return errs
}

// reachesGrounded runs a bounded DFS over valid_to ∪ forced_exits edges
// looking for any pattern whose σ is grounded.
func reachesGrounded(start string, patterns map[string]*catalog.BehavioralPattern) bool {
	visited := map[string]bool{}
	var visit func(id string) bool
	visit = func(id string) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		p, ok := patterns[id]
		if !ok {
			return false
		}
		if p.Core.Sigma == dimension.Grounded {
			return true
		}
		for _, next := range p.Postconditions.ValidTo {
			if visit(next) {
				return true
			}
		}
		for _, fe := range p.Postconditions.ForcedExits {
			if visit(fe.TargetPattern) {
				return true
			}
		}
		return false
	}
	return visit(start)
}

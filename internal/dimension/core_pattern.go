package dimension

import "fmt"

// CorePattern is the six structural coordinates (σ, κ, χ, λ, τ, ρ) that
// form a drone's finite catalog key.
type CorePattern struct {
	Sigma  BehavioralMode
	Kappa  AutonomyLevel
	Chi    FormationRole
	Lambda ResourceOwnership
	Tau    PhysicalTraits
	Rho    HardwareTarget
}

// CanonicalKey returns "{σ}-{κ}-{χ}-{τ}.{ρ}". λ is intentionally omitted:
// it is derived from χ via the role-ownership table, not an independent
// coordinate of the key.
func (c CorePattern) CanonicalKey() string {
	return fmt.Sprintf("%s-%s-%s-%s.%s", c.Sigma, c.Kappa, c.Chi, c.Tau, c.Rho)
}

// Valid reports whether every field is one of its enum's declared values.
// It does not check the dependency rules between fields; use Validate for
// that.
func (c CorePattern) Valid() bool {
	return c.Sigma.Valid() && c.Kappa.Valid() && c.Chi.Valid() &&
		c.Lambda.Valid() && c.Tau.Valid() && c.Rho.Valid()
}

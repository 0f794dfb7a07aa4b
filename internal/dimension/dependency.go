package dimension

// This file is the fiber bundle: the fixed dependency rules between the
// six structural coordinates. It is consulted once, at catalog load
// time (see internal/catalogfile); nothing at tick time re-validates a
// CorePattern against these tables.

// validTraits lists which physical traits a hardware target supports.
// Every target supports bare; only the simulator targets support the
// full trait set.
var validTraits = map[HardwareTarget]map[PhysicalTraits]bool{
	Crazyflie21:   {Bare: true},
	CrazyflieBolt: {Bare: true},
	ESPDrone:      {Bare: true},
	SimGazebo:     allTraits(),
	SimSimple:     allTraits(),
}

func allTraits() map[PhysicalTraits]bool {
	m := make(map[PhysicalTraits]bool, physicalTraitsCount)
	for t := PhysicalTraits(0); t < physicalTraitsCount; t++ {
		m[t] = true
	}
	return m
}

// excludedModesByTrait lists behavioral modes a trait cannot enter.
var excludedModesByTrait = map[PhysicalTraits]map[BehavioralMode]bool{
	SolarEquipped:  {Orbit: true},
	BatteryCarrier: {Orbit: true},
	DualDeck:       {Orbit: true},
}

// excludedModesByHardware lists behavioral modes a hardware target cannot
// enter, independent of trait.
var excludedModesByHardware = map[HardwareTarget]map[BehavioralMode]bool{
	ESPDrone:  {Dock: true, Undock: true, Docked: true},
	SimSimple: {Dock: true, Undock: true, Docked: true},
}

// excludedRolesByTrait lists formation roles a trait cannot hold.
var excludedRolesByTrait = map[PhysicalTraits]map[FormationRole]bool{
	SolarEquipped:  {Scout: true},
	BatteryCarrier: {Scout: true},
	DualDeck:       {Scout: true},
}

// roleOwnership lists, per formation role, the set of resource
// ownerships a drone holding that role may declare. The first entry of
// each list is the default used when a drone is registered or promoted
// into a role without an explicit ownership choice.
var roleOwnership = map[FormationRole][]ResourceOwnership{
	Leader:          {ExclusiveVolume},
	Follower:        {SharedCorridor},
	Relay:           {ExclusiveVolume, CommBridge},
	Performer:       {SharedCorridor, ExclusiveVolume},
	ChargerInbound:  {SharedCorridor, Yielding},
	Charging:        {EnergyConsumer},
	ChargerOutbound: {SharedCorridor},
	Scout:           {ExclusiveVolume},
	Anchor:          {ExclusiveVolume},
	Reserve:         {SharedCorridor, Yielding},
}

// DefaultOwnership returns the default λ for a formation role.
func DefaultOwnership(role FormationRole) ResourceOwnership {
	opts := roleOwnership[role]
	if len(opts) == 0 {
		return SharedCorridor
	}
	return opts[0]
}

// OwnershipValidForRole reports whether λ is one of the ownerships role
// may declare.
func OwnershipValidForRole(role FormationRole, ownership ResourceOwnership) bool {
	for _, o := range roleOwnership[role] {
		if o == ownership {
			return true
		}
	}
	return false
}

// Violation names which dependency rule a CorePattern breaks.
type Violation string

const (
	NoViolation           Violation = ""
	ViolationTraitHardware Violation = "trait not valid for hardware"
	ViolationModeTrait    Violation = "mode excluded for trait"
	ViolationModeHardware Violation = "mode excluded for hardware"
	ViolationRoleTrait    Violation = "role excluded for trait"
	ViolationOwnershipRole Violation = "ownership not valid for role"
)

// Validate checks a CorePattern against the fiber-bundle dependency
// rules and returns the first violation found, in the fixed order:
// trait-for-hardware, mode-for-trait, mode-for-hardware, role-for-trait,
// ownership-for-role. It returns NoViolation if every check passes.
func Validate(c CorePattern) Violation {
	if traits, ok := validTraits[c.Rho]; !ok || !traits[c.Tau] {
		return ViolationTraitHardware
	}
	if excludedModesByTrait[c.Tau][c.Sigma] {
		return ViolationModeTrait
	}
	if excludedModesByHardware[c.Rho][c.Sigma] {
		return ViolationModeHardware
	}
	if excludedRolesByTrait[c.Tau][c.Chi] {
		return ViolationRoleTrait
	}
	if !OwnershipValidForRole(c.Chi, c.Lambda) {
		return ViolationOwnershipRole
	}
	return NoViolation
}

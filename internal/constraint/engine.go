// Package constraint implements the greedy per-drone catalog constraint
// solver: given an affected set of drones and the active objectives, it
// produces one pattern assignment per drone, filtering through hardware,
// preconditions, transition validity, and neighbor compatibility, with a
// scoring pass and a chain of safe fallbacks.
package constraint

import (
	"sort"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

// ObjectiveType names one of the five mission objective shapes the
// scoring pass recognizes.
type ObjectiveType string

const (
	ObjectiveFormation ObjectiveType = "formation"
	ObjectiveOrbit     ObjectiveType = "orbit"
	ObjectiveTranslate ObjectiveType = "translate"
	ObjectiveHover     ObjectiveType = "hover"
	ObjectiveLandAll   ObjectiveType = "land-all"
)

// Objective is one active mission goal fed to the scoring pass.
type Objective struct {
	Type        ObjectiveType
	TargetPos   *world.Position
	ShapeParams map[string]float64
}

// objectiveSigmaMatches reports whether σ is the behavioral mode an
// objective of type t is asking for.
func objectiveSigmaMatches(t ObjectiveType, sigma dimension.BehavioralMode) bool {
	switch t {
	case ObjectiveFormation:
		return sigma == dimension.FormationHold
	case ObjectiveOrbit:
		return sigma == dimension.Orbit
	case ObjectiveTranslate:
		return sigma == dimension.Translate
	case ObjectiveHover:
		return sigma == dimension.Hover
	case ObjectiveLandAll:
		return sigma == dimension.Land
	default:
		return false
	}
}

// Assignment is the solver's output for one drone: the pattern it should
// now hold, plus optional motion targets carried through to the outbound
// command.
type Assignment struct {
	DroneID   string
	PatternID string
	TargetPos *world.Position
	TargetVel *world.Vector3
}

// WorldView is the subset of the world model the solver reads. It never
// mutates the model; assignments are applied by the caller.
type WorldView interface {
	GetDrone(id string) (world.DroneState, bool)
}

// Solve runs the per-drone selection pipeline over affectedDrones in the
// order given (callers should pass a stable, documented order — insertion
// order into the affected set is recommended) and returns one Assignment
// per drone that could be resolved. Drones missing from the world model
// are silently skipped, never causing an error.
func Solve(w WorldView, idx *catalog.Index, affectedDrones []string, objectives []Objective) []Assignment {
	assignedNow := map[string]string{}
	var out []Assignment

	for _, id := range affectedDrones {
		drone, ok := w.GetDrone(id)
		if !ok {
			continue
		}
		patternID, targetPos, targetVel := solveOne(w, idx, drone, objectives, assignedNow)
		if patternID == "" {
			continue
		}
		assignedNow[id] = patternID
		out = append(out, Assignment{DroneID: id, PatternID: patternID, TargetPos: targetPos, TargetVel: targetVel})
	}
	return out
}

func solveOne(w WorldView, idx *catalog.Index, drone world.DroneState, objectives []Objective, assignedNow map[string]string) (string, *world.Position, *world.Vector3) {
	// 1. Forced-exit check.
	if current, ok := idx.Lookup(drone.CurrentPattern); ok {
		for _, fe := range current.Postconditions.ForcedExits {
			if !evaluateCondition(fe.Condition, drone.Sensor) {
				continue
			}
			if _, exists := idx.Lookup(fe.TargetPattern); exists {
				return fe.TargetPattern, nil, nil
			}
			break
		}
	}

	// 2. Hardware filter.
	rho, tau := drone.Core.Rho, drone.Core.Tau
	candidates := idx.FilterByCore(catalog.PartialCore{Rho: &rho, Tau: &tau})

	// 3. Preconditions.
	candidates = filterPreconditions(candidates, drone)

	// 4. Transition validity.
	candidates = filterTransitions(idx, candidates, drone)

	// 5. Pairwise compatibility with neighbors.
	candidates = filterCompatibility(w, idx, candidates, drone, assignedNow)

	// 6. Scoring and selection.
	if best := selectBest(candidates, drone, objectives); best != nil {
		return best.ID, nil, nil
	}

	// 7. Fallback 1: hover.
	if id := fallbackHover(idx, rho, tau); id != "" {
		return id, nil, nil
	}

	// 8. Fallback 2: emergency.
	if id := fallbackEmergency(idx, rho, tau); id != "" {
		return id, nil, nil
	}

	// 9. Fallback 3: self.
	return drone.CurrentPattern, nil, nil
}

func filterPreconditions(candidates []*catalog.BehavioralPattern, drone world.DroneState) []*catalog.BehavioralPattern {
	refs := len(drone.Neighbor.Neighbors) + len(drone.Neighbor.BaseStations)
	var out []*catalog.BehavioralPattern
	for _, p := range candidates {
		if p.Preconditions.BatteryFloor > drone.Sensor.BatteryPercentage {
			continue
		}
		if p.Preconditions.PositionQualityFloor > drone.Sensor.PositionQuality {
			continue
		}
		if p.Preconditions.MinReferences > refs {
			continue
		}
		out = append(out, p)
	}
	return out
}

func filterTransitions(idx *catalog.Index, candidates []*catalog.BehavioralPattern, drone world.DroneState) []*catalog.BehavioralPattern {
	var out []*catalog.BehavioralPattern
	for _, p := range candidates {
		if drone.CurrentPattern == "" {
			out = append(out, p)
			continue
		}
		if p.ID == drone.CurrentPattern {
			out = append(out, p)
			continue
		}
		if idx.IsTransitionValid(drone.CurrentPattern, p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func filterCompatibility(w WorldView, idx *catalog.Index, candidates []*catalog.BehavioralPattern, drone world.DroneState, assignedNow map[string]string) []*catalog.BehavioralPattern {
	var out []*catalog.BehavioralPattern
	for _, p := range candidates {
		compatible := true
		for _, nid := range drone.Neighbor.Neighbors {
			neighborState, exists := w.GetDrone(nid)
			if !exists {
				continue
			}
			neighborPattern, ok := assignedNow[nid]
			if !ok {
				neighborPattern = neighborState.CurrentPattern
			}
			sep := world.EuclideanDistance(drone.Sensor.Position, neighborState.Sensor.Position)
			if !idx.IsCompatible(p.ID, neighborPattern, sep) {
				compatible = false
				break
			}
		}
		if compatible {
			out = append(out, p)
		}
	}
	return out
}

func selectBest(candidates []*catalog.BehavioralPattern, drone world.DroneState, objectives []Objective) *catalog.BehavioralPattern {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]*catalog.BehavioralPattern, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var best *catalog.BehavioralPattern
	bestScore := 0
	for _, p := range sorted {
		s := score(p, drone, objectives)
		if best == nil || s > bestScore {
			best, bestScore = p, s
		}
	}
	return best
}

func score(p *catalog.BehavioralPattern, drone world.DroneState, objectives []Objective) int {
	s := 0
	if p.ID == drone.CurrentPattern {
		s += 10
	}
	for _, obj := range objectives {
		if objectiveSigmaMatches(obj.Type, p.Core.Sigma) {
			s += 5
		}
	}
	if p.Core.Chi == drone.Core.Chi {
		s += 2
	}
	if p.Preconditions.BatteryFloor > 0.3 && drone.Sensor.BatteryPercentage < 0.5 {
		s -= 5
	}
	return s
}

func fallbackHover(idx *catalog.Index, rho dimension.HardwareTarget, tau dimension.PhysicalTraits) string {
	hover := dimension.Hover
	candidates := idx.FilterByCore(catalog.PartialCore{Sigma: &hover, Rho: &rho, Tau: &tau})
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.Preconditions.BatteryFloor < best.Preconditions.BatteryFloor {
			best = p
		}
	}
	return best.ID
}

func fallbackEmergency(idx *catalog.Index, rho dimension.HardwareTarget, tau dimension.PhysicalTraits) string {
	candidates := idx.FilterByCore(catalog.PartialCore{Rho: &rho, Tau: &tau})
	var zeroFloor []*catalog.BehavioralPattern
	for _, p := range candidates {
		if p.Preconditions.BatteryFloor == 0 {
			zeroFloor = append(zeroFloor, p)
		}
	}
	if len(zeroFloor) == 0 {
		return ""
	}
	for _, p := range zeroFloor {
		if p.Core.Sigma == dimension.Land || p.Core.Sigma == dimension.Grounded {
			return p.ID
		}
	}
	return zeroFloor[0].ID
}

// Package roles implements the priority-ordered rule system that
// reassigns formation roles across the active swarm every N ticks,
// balancing safety, charging lifecycle, and mission needs.
package roles

import (
	"math"
	"sort"

	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

// FormationSpec describes the mission's formation shape requirements.
type FormationSpec struct {
	MinPerformers int
	NeedsLeader   bool
	Center        world.Position
}

// CoverageSpec describes the mission's area-coverage requirements.
type CoverageSpec struct {
	CoverageRadius float64
	NeedsRelay     bool
}

// Config tunes the safety and hysteresis thresholds.
type Config struct {
	BatteryChargeThreshold  float64
	BatteryReturnThreshold  float64
	RoleHysteresisTickCount int
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		BatteryChargeThreshold:  0.15,
		BatteryReturnThreshold:  0.90,
		RoleHysteresisTickCount: 10,
	}
}

// WorldView is the subset of the world model the role engine reads.
type WorldView interface {
	GetDrone(id string) (world.DroneState, bool)
}

// droneView pairs an id with the snapshot of its state used across the
// rule pipeline.
type droneView struct {
	id    string
	state world.DroneState
}

// Assign runs the eight ordered rules over activeIDs and returns a map
// of droneId -> new FormationRole containing only drones whose role
// actually changed. tickCounts, if non-nil, is consulted for hysteresis
// and is not mutated here — the coordinator owns incrementing/zeroing it
// after applying the result.
func Assign(w WorldView, activeIDs []string, formation FormationSpec, coverage CoverageSpec, cfg Config, tickCounts map[string]int) map[string]dimension.FormationRole {
	var drones []droneView
	stored := map[string]dimension.FormationRole{}
	effective := map[string]dimension.FormationRole{}
	for _, id := range activeIDs {
		ds, ok := w.GetDrone(id)
		if !ok {
			continue
		}
		drones = append(drones, droneView{id: id, state: ds})
		stored[id] = ds.Core.Chi
		effective[id] = ds.Core.Chi
	}

	// Rule 1: safety.
	for _, d := range drones {
		role := effective[d.id]
		if d.state.Sensor.BatteryPercentage < cfg.BatteryChargeThreshold &&
			role != dimension.Charging && role != dimension.ChargerInbound && role != dimension.ChargerOutbound {
			effective[d.id] = dimension.ChargerInbound
		}
	}

	// Rule 2: charging complete.
	for _, d := range drones {
		if effective[d.id] == dimension.Charging && d.state.Sensor.BatteryPercentage >= cfg.BatteryReturnThreshold {
			effective[d.id] = dimension.ChargerOutbound
		}
	}

	// Rule 3: charger-outbound returning airborne.
	for _, d := range drones {
		if effective[d.id] != dimension.ChargerOutbound {
			continue
		}
		if d.state.Core.Sigma == dimension.Grounded || d.state.Core.Sigma == dimension.Docked {
			continue
		}
		if countRole(effective, dimension.Performer) < formation.MinPerformers {
			effective[d.id] = dimension.Performer
		} else {
			effective[d.id] = dimension.Reserve
		}
	}

	eligible := func(id string) bool {
		d := effective[id]
		return (d == dimension.Performer || d == dimension.Reserve)
	}

	// Rule 4: relay assignment.
	if coverage.NeedsRelay && countRole(effective, dimension.Relay) == 0 {
		var best *droneView
		var bestScore float64
		for i := range drones {
			d := &drones[i]
			if !eligible(d.id) {
				continue
			}
			ds, ok := w.GetDrone(d.id)
			if !ok || ds.Sensor.BatteryPercentage < cfg.BatteryChargeThreshold {
				continue
			}
			dist := magnitude(ds.Sensor.Position)
			score := math.Abs(dist-coverage.CoverageRadius) - 0.01*ds.Sensor.BatteryPercentage
			if best == nil || score < bestScore {
				best, bestScore = d, score
			}
		}
		if best != nil {
			effective[best.id] = dimension.Relay
		}
	}

	// Rule 5: leader assignment.
	if formation.NeedsLeader && countRole(effective, dimension.Leader) == 0 {
		var best *droneView
		var bestBattery, bestQuality float64
		for i := range drones {
			d := &drones[i]
			if !eligible(d.id) {
				continue
			}
			ds, ok := w.GetDrone(d.id)
			if !ok || ds.Sensor.BatteryPercentage < cfg.BatteryChargeThreshold {
				continue
			}
			if best == nil {
				best, bestBattery, bestQuality = d, ds.Sensor.BatteryPercentage, ds.Sensor.PositionQuality
				continue
			}
			if math.Abs(ds.Sensor.BatteryPercentage-bestBattery) <= 0.001 {
				if ds.Sensor.PositionQuality > bestQuality {
					best, bestBattery, bestQuality = d, ds.Sensor.BatteryPercentage, ds.Sensor.PositionQuality
				}
				continue
			}
			if ds.Sensor.BatteryPercentage > bestBattery {
				best, bestBattery, bestQuality = d, ds.Sensor.BatteryPercentage, ds.Sensor.PositionQuality
			}
		}
		if best != nil {
			effective[best.id] = dimension.Leader
		}
	}

	// Rule 6: performer filling.
	for countRole(effective, dimension.Performer) < formation.MinPerformers {
		candidate := highestBatteryWithRole(w, drones, effective, dimension.Reserve)
		if candidate == "" {
			break
		}
		effective[candidate] = dimension.Performer
	}

	// Rule 7: excess performer demotion.
	for countRole(effective, dimension.Performer) > formation.MinPerformers {
		candidate := lowestBatteryUnder(w, drones, effective, dimension.Performer, 0.50)
		if candidate == "" {
			break
		}
		effective[candidate] = dimension.Reserve
	}

	// Rule 8: hysteresis.
	if tickCounts != nil {
		for _, d := range drones {
			if effective[d.id] == stored[d.id] {
				continue
			}
			if effective[d.id] == dimension.ChargerInbound {
				continue // safety override, exempt from hysteresis
			}
			if tickCounts[d.id] < cfg.RoleHysteresisTickCount {
				effective[d.id] = stored[d.id]
			}
		}
	}

	out := map[string]dimension.FormationRole{}
	for _, d := range drones {
		if effective[d.id] != stored[d.id] {
			out[d.id] = effective[d.id]
		}
	}
	return out
}

func countRole(effective map[string]dimension.FormationRole, role dimension.FormationRole) int {
	n := 0
	for _, r := range effective {
		if r == role {
			n++
		}
	}
	return n
}

func magnitude(p world.Position) float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

func highestBatteryWithRole(w WorldView, drones []droneView, effective map[string]dimension.FormationRole, role dimension.FormationRole) string {
	best := ""
	bestBattery := -1.0
	for _, d := range drones {
		if effective[d.id] != role {
			continue
		}
		ds, ok := w.GetDrone(d.id)
		if !ok {
			continue
		}
		if ds.Sensor.BatteryPercentage > bestBattery {
			best, bestBattery = d.id, ds.Sensor.BatteryPercentage
		}
	}
	return best
}

func lowestBatteryUnder(w WorldView, drones []droneView, effective map[string]dimension.FormationRole, role dimension.FormationRole, ceiling float64) string {
	best := ""
	bestBattery := math.MaxFloat64
	for _, d := range drones {
		if effective[d.id] != role {
			continue
		}
		ds, ok := w.GetDrone(d.id)
		if !ok || ds.Sensor.BatteryPercentage >= ceiling {
			continue
		}
		if ds.Sensor.BatteryPercentage < bestBattery {
			best, bestBattery = d.id, ds.Sensor.BatteryPercentage
		}
	}
	return best
}

// SortedRoleChanges returns the keys of a role-change map in a stable,
// deterministic order (ascending drone id), useful for logging and
// tests that assert on ordered output.
func SortedRoleChanges(changes map[string]dimension.FormationRole) []string {
	out := make([]string, 0, len(changes))
	for id := range changes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Package world holds the single authoritative store of the swarm's
// per-drone state: the 9D coordinate, telemeterd sensor state, the
// derived neighbor/role graph, and staleness. It is the only mutable
// shared resource in the coordination core (see spec §5); every other
// component reads a snapshot handed to it for the duration of one tick.
package world

import (
	"time"

	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

// Vector3 is a generic 3-component vector used for velocity,
// orientation, angular velocity, and wind estimate.
type Vector3 struct {
	X, Y, Z float64
}

// Position is a point in meters.
type Position struct {
	X, Y, Z float64
}

// SensorState is δ: the drone's onboard sensor readings.
type SensorState struct {
	Position              Position
	Velocity              Vector3
	Orientation           Vector3 // roll, pitch, yaw, radians
	AngularVelocity       Vector3
	BatteryVoltage        float64
	BatteryPercentage     float64 // [0,1]
	BatteryDischargeRateW float64
	BatteryRemainingS     float64
	PositionQuality       float64 // [0,1]
	WindEstimate          Vector3
}

// NeighborGraph is ε: the derived neighbor/role graph for one drone.
// Every field here is recomputed from the positions and roles of other
// drones — none of it is independent ground truth (Invariant 5).
type NeighborGraph struct {
	Neighbors    []string // spatial-neighbor ids, in registration order
	LeaderID     *string
	FollowerIDs  []string
	RelayTarget  *string
	RelaySource  *string
	DockTarget   *string
	BaseStations []string
}

// HasNeighbor reports whether id is a spatial neighbor.
func (g NeighborGraph) HasNeighbor(id string) bool {
	for _, n := range g.Neighbors {
		if n == id {
			return true
		}
	}
	return false
}

// Dim names one of the six structural coordinates for delta reporting.
type Dim string

const (
	DimSigma  Dim = "sigma"
	DimKappa  Dim = "kappa"
	DimChi    Dim = "chi"
	DimLambda Dim = "lambda"
	DimTau    Dim = "tau"
	DimRho    Dim = "rho"
)

// DeltaResult is the outcome of classifying a CorePattern change.
type DeltaResult struct {
	Changed    []Dim
	Structural bool
}

// ClassifyDelta compares two CorePatterns and reports which of the six
// structural dimensions differ. ε/δ/Σ changes are never structural and
// are not represented here at all — only the six coordinates in
// CorePattern can produce a DeltaResult.
func ClassifyDelta(oldCore, newCore dimension.CorePattern) DeltaResult {
	var changed []Dim
	if oldCore.Sigma != newCore.Sigma {
		changed = append(changed, DimSigma)
	}
	if oldCore.Kappa != newCore.Kappa {
		changed = append(changed, DimKappa)
	}
	if oldCore.Chi != newCore.Chi {
		changed = append(changed, DimChi)
	}
	if oldCore.Lambda != newCore.Lambda {
		changed = append(changed, DimLambda)
	}
	if oldCore.Tau != newCore.Tau {
		changed = append(changed, DimTau)
	}
	if oldCore.Rho != newCore.Rho {
		changed = append(changed, DimRho)
	}
	return DeltaResult{Changed: changed, Structural: len(changed) > 0}
}

// DroneState is the world model's per-drone record.
type DroneState struct {
	ID             string
	Core           dimension.CorePattern
	CurrentPattern string
	IntentHash     string
	Sensor         SensorState
	Neighbor       NeighborGraph
	LastTelemetry  time.Time
	LastUpdate     time.Time
	Stale          bool
}

package world

import (
	"math"
	"sync"
	"time"

	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

// Config tunes the world model's neighbor-graph and staleness behavior.
type Config struct {
	CommRangeM       float64
	StaleThresholdMs int64
}

// DefaultConfig returns the spec-mandated defaults: 5.0m comm range,
// 500ms stale threshold.
func DefaultConfig() Config {
	return Config{CommRangeM: 5.0, StaleThresholdMs: 500}
}

// Model is the single authoritative store of the swarm's per-drone
// state. It is safe for concurrent use; every exported method takes the
// same mutex, matching the teacher's single-lock-over-shared-state
// discipline (see internal/sim.Simulator.mu in the teacher repo).
type Model struct {
	mu     sync.Mutex
	cfg    Config
	drones map[string]*DroneState
	// order records registration order. Neighbor-graph derivation
	// documents its tie-breaks ("first discovered in iteration order")
	// against this slice rather than Go's randomized map iteration, so
	// results are reproducible across runs.
	order []string
	now   func() time.Time
}

// NewModel builds an empty world model. cfg's zero values are replaced
// with DefaultConfig's.
func NewModel(cfg Config) *Model {
	if cfg.CommRangeM <= 0 {
		cfg.CommRangeM = DefaultConfig().CommRangeM
	}
	if cfg.StaleThresholdMs <= 0 {
		cfg.StaleThresholdMs = DefaultConfig().StaleThresholdMs
	}
	return &Model{
		cfg:    cfg,
		drones: make(map[string]*DroneState),
		now:    time.Now,
	}
}

// SetClock overrides the model's time source. Test-only seam, mirroring
// the teacher's s.now() field.
func (m *Model) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddDrone registers a new drone. It always starts grounded, autonomous,
// reserve, with λ derived from the reserve default ownership. Every
// drone's neighbor graph is recomputed, so drones already in range see
// the new drone as a neighbor.
func (m *Model) AddDrone(id string, rho dimension.HardwareTarget, tau dimension.PhysicalTraits, initialPatternID string, telemetry SensorState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	core := dimension.CorePattern{
		Sigma:  dimension.Grounded,
		Kappa:  dimension.Autonomous,
		Chi:    dimension.Reserve,
		Lambda: dimension.DefaultOwnership(dimension.Reserve),
		Tau:    tau,
		Rho:    rho,
	}
	ds := &DroneState{
		ID:             id,
		Core:           core,
		CurrentPattern: initialPatternID,
		Sensor:         telemetry,
		LastTelemetry:  m.now(),
		LastUpdate:     m.now(),
	}
	if _, exists := m.drones[id]; !exists {
		m.order = append(m.order, id)
	}
	m.drones[id] = ds
	// Recompute every drone's ε, not just the new one's, so neighbor
	// edges stay symmetric.
	for _, other := range m.order {
		m.recomputeNeighborGraphLocked(other)
	}
}

// RemoveDrone deregisters a drone, returning whether it existed.
func (m *Model) RemoveDrone(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drones[id]; !ok {
		return false
	}
	delete(m.drones, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// UpdateTelemetry absorbs a new sensor reading for id. It is a no-op for
// an unknown id. On success it clears stale, updates LastUpdate, and
// recomputes the neighbor graph of every drone (id included) from the
// current positions and roles, so neighbor edges stay symmetric.
func (m *Model) UpdateTelemetry(id string, telemetry SensorState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.drones[id]
	if !ok {
		return
	}
	ds.Sensor = telemetry
	ds.LastTelemetry = m.now()
	ds.LastUpdate = m.now()
	ds.Stale = false
	for _, other := range m.order {
		m.recomputeNeighborGraphLocked(other)
	}
}

// UpdatePattern applies a new pattern id and CorePattern to a drone and
// classifies the resulting structural delta. It is a no-op (returning a
// zero DeltaResult) for an unknown id.
func (m *Model) UpdatePattern(id, patternID string, sigma dimension.BehavioralMode, kappa dimension.AutonomyLevel, chi dimension.FormationRole, lambda dimension.ResourceOwnership) DeltaResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.drones[id]
	if !ok {
		return DeltaResult{}
	}
	newCore := ds.Core
	newCore.Sigma, newCore.Kappa, newCore.Chi, newCore.Lambda = sigma, kappa, chi, lambda
	delta := ClassifyDelta(ds.Core, newCore)
	ds.Core = newCore
	ds.CurrentPattern = patternID
	return delta
}

// MarkStaleDrones flags every drone whose LastUpdate is older than the
// configured threshold relative to now, and returns the ids that became
// newly stale as a result of this call.
func (m *Model) MarkStaleDrones(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	threshold := time.Duration(m.cfg.StaleThresholdMs) * time.Millisecond
	var newlyStale []string
	for _, id := range m.order {
		ds := m.drones[id]
		if ds.Stale {
			continue
		}
		if now.Sub(ds.LastUpdate) > threshold {
			ds.Stale = true
			newlyStale = append(newlyStale, id)
		}
	}
	return newlyStale
}

// GetActiveDroneIDs returns every non-stale drone id, in registration
// order.
func (m *Model) GetActiveDroneIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range m.order {
		if !m.drones[id].Stale {
			out = append(out, id)
		}
	}
	return out
}

// GetAllDroneIDs returns every registered drone id (stale or not), in
// registration order.
func (m *Model) GetAllDroneIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// GetNeighborGraph returns a copy of id's neighbor graph, or false if
// unknown.
func (m *Model) GetNeighborGraph(id string) (NeighborGraph, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.drones[id]
	if !ok {
		return NeighborGraph{}, false
	}
	return ds.Neighbor, true
}

// GetDrone returns a copy of id's full state, or false if unknown.
func (m *Model) GetDrone(id string) (DroneState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.drones[id]
	if !ok {
		return DroneState{}, false
	}
	return *ds, true
}

// Config returns the model's neighbor-graph/staleness configuration.
func (m *Model) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// recomputeNeighborGraphLocked recomputes ε for id given the current
// state of every other drone. Callers must hold m.mu.
func (m *Model) recomputeNeighborGraphLocked(id string) {
	self, ok := m.drones[id]
	if !ok {
		return
	}
	var neighbors []string
	for _, otherID := range m.order {
		if otherID == id {
			continue
		}
		other := m.drones[otherID]
		if euclideanDistance(self.Sensor.Position, other.Sensor.Position) <= m.cfg.CommRangeM {
			neighbors = append(neighbors, otherID)
		}
	}

	g := NeighborGraph{Neighbors: neighbors}

	if self.Core.Chi == dimension.Follower {
		for _, nid := range m.order {
			if !containsID(neighbors, nid) {
				continue
			}
			if m.drones[nid].Core.Chi == dimension.Leader {
				leader := nid
				g.LeaderID = &leader
				break
			}
		}
	}

	if self.Core.Chi == dimension.Leader {
		for _, nid := range neighbors {
			if m.drones[nid].Core.Chi == dimension.Follower {
				g.FollowerIDs = append(g.FollowerIDs, nid)
			}
		}
	}

	if self.Core.Chi == dimension.Relay && len(neighbors) > 0 {
		target := neighbors[0]
		g.RelayTarget = &target
	}

	for _, nid := range neighbors {
		if m.drones[nid].Core.Chi == dimension.Relay {
			source := nid
			g.RelaySource = &source
			break
		}
	}

	// dock_target and base_stations are populated by external systems;
	// within the core they stay nil/empty.
	self.Neighbor = g
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func euclideanDistance(a, b Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// EuclideanDistance exposes the same distance calculation for callers
// outside this package (e.g. the constraint engine's neighbor-separation
// checks) so there is exactly one implementation of it in the module.
func EuclideanDistance(a, b Position) float64 {
	return euclideanDistance(a, b)
}

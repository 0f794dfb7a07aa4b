// Package coordinator implements the tick-driven main loop that
// composes the world model, blast-radius engine, constraint engine, and
// role assignment into the swarm's coordination core.
package coordinator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papyruslabs-ai/seshat-swarm/internal/blast"
	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/comms"
	"github.com/papyruslabs-ai/seshat-swarm/internal/constraint"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/logging"
	"github.com/papyruslabs-ai/seshat-swarm/internal/metrics"
	"github.com/papyruslabs-ai/seshat-swarm/internal/roles"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

// Config tunes the coordinator's tick cadence and thresholds.
type Config struct {
	TickIntervalMs           int64
	RoleReassignmentInterval int64
	World                    world.Config
	Roles                    roles.Config
}

// DefaultConfig returns the spec-mandated tick cadence and thresholds.
func DefaultConfig() Config {
	return Config{
		TickIntervalMs:           10,
		RoleReassignmentInterval: 100,
		World:                    world.DefaultConfig(),
		Roles:                    roles.DefaultConfig(),
	}
}

// TickHook is invoked once per tick with the tick number and the
// assignments produced, for observability.
type TickHook func(tick int64, assignments []constraint.Assignment)

// ShutdownHook is invoked once on Stop, after every drone has been sent
// a landing command and comms has disconnected.
type ShutdownHook func()

// Coordinator is the tick-driven orchestrator: it owns the world model
// and drives the blast-radius, constraint, and role engines over it
// every tick, emitting commands through Comms.
type Coordinator struct {
	mu      sync.Mutex
	cfg     Config
	world   *world.Model
	catalog *catalog.Index
	comms   comms.Comms
	logger  *slog.Logger

	tick int64

	// pattern id <-> numeric id, assigned on a pattern's first use
	// (RegisterDrone, an applied assignment, or a shutdown command); an
	// entry never changes once assigned.
	patternToNumeric map[string]uint16
	numericToPattern map[uint16]string
	nextNumeric      uint16

	tickCounts map[string]int

	lastAssignments []constraint.Assignment
	lastRoleChanges map[string]dimension.FormationRole

	Objectives []constraint.Objective
	Formation  roles.FormationSpec
	Coverage   roles.CoverageSpec

	onTick     TickHook
	onShutdown ShutdownHook
}

// pendingCommand is a command computed under lock but sent after it is
// released, so a slow or blocking Comms implementation never holds up
// the next tick's world-model access. correlationID ties the command
// back to the tick (or shutdown) that produced it in the logs.
type pendingCommand struct {
	droneID       string
	cmd           comms.DroneCommand
	correlationID string
}

// DroneSnapshot is one drone's externally-visible state, used by the
// admin JSON endpoints and the watch TUI.
type DroneSnapshot struct {
	ID      string
	Pattern string
	Sigma   dimension.BehavioralMode
	Chi     dimension.FormationRole
	Battery float64
	Stale   bool
}

// New builds a Coordinator over c (the outbound comms interface) and idx
// (the loaded catalog), with the given config. The coordinator registers
// a telemetry callback on c immediately.
func New(ctx context.Context, c comms.Comms, idx *catalog.Index, cfg Config) *Coordinator {
	co := &Coordinator{
		cfg:              cfg,
		world:            world.NewModel(cfg.World),
		catalog:          idx,
		comms:            c,
		logger:           logging.FromContext(ctx),
		patternToNumeric: map[string]uint16{},
		numericToPattern: map[uint16]string{},
		tickCounts:       map[string]int{},
	}
	c.OnTelemetry(co.handleTelemetry)
	return co
}

// OnTick registers a hook fired at the end of every tick.
func (c *Coordinator) OnTick(hook TickHook) { c.onTick = hook }

// OnShutdown registers a hook fired at the end of Stop.
func (c *Coordinator) OnShutdown(hook ShutdownHook) { c.onShutdown = hook }

// Snapshot returns the externally-visible state of every registered
// drone, for the admin `/drones` endpoint and the watch TUI.
func (c *Coordinator) Snapshot() []DroneSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.world.GetAllDroneIDs()
	out := make([]DroneSnapshot, 0, len(ids))
	for _, id := range ids {
		ds, ok := c.world.GetDrone(id)
		if !ok {
			continue
		}
		out = append(out, DroneSnapshot{
			ID: id, Pattern: ds.CurrentPattern, Sigma: ds.Core.Sigma, Chi: ds.Core.Chi,
			Battery: ds.Sensor.BatteryPercentage, Stale: ds.Stale,
		})
	}
	return out
}

// LastAssignments returns the assignments produced by the most recently
// completed tick, for the admin `/assignments` endpoint.
func (c *Coordinator) LastAssignments() []constraint.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]constraint.Assignment, len(c.lastAssignments))
	copy(out, c.lastAssignments)
	return out
}

// LastRoleChanges returns the role changes applied on the most recent
// role-reassignment tick, for the admin `/roles` endpoint.
func (c *Coordinator) LastRoleChanges() map[string]dimension.FormationRole {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]dimension.FormationRole, len(c.lastRoleChanges))
	for k, v := range c.lastRoleChanges {
		out[k] = v
	}
	return out
}

// TickCount returns the number of ticks run so far, for the admin
// `/status` endpoint.
func (c *Coordinator) TickCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// RegisterDrone adds a drone to the world model and assigns it a stable
// numeric pattern-id mapping entry if its initial pattern hasn't been
// seen yet.
func (c *Coordinator) RegisterDrone(id string, rho dimension.HardwareTarget, tau dimension.PhysicalTraits, initialPatternID string, telemetry world.SensorState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world.AddDrone(id, rho, tau, initialPatternID, telemetry)
	c.internNumericLocked(initialPatternID)
}

func (c *Coordinator) internNumericLocked(patternID string) uint16 {
	if n, ok := c.patternToNumeric[patternID]; ok {
		return n
	}
	n := c.nextNumeric
	c.nextNumeric++
	c.patternToNumeric[patternID] = n
	c.numericToPattern[n] = patternID
	return n
}

// Start connects comms for the given drone ids and returns. The caller
// is expected to drive ticks itself (via Tick or Run).
func (c *Coordinator) Start(ctx context.Context, droneIDs []string) error {
	return c.comms.Connect(ctx, droneIDs)
}

// Stop lands every drone (best effort), disconnects, and fires the
// shutdown hook.
func (c *Coordinator) Stop(ctx context.Context) error {
	shutdownID := uuid.NewString()
	c.mu.Lock()
	ids := c.world.GetAllDroneIDs()
	var pending []pendingCommand
	for _, id := range ids {
		ds, ok := c.world.GetDrone(id)
		if !ok {
			continue
		}
		r, t := ds.Core.Rho, ds.Core.Tau
		sigma := dimension.Grounded
		candidates := c.catalog.FilterByCore(catalog.PartialCore{Sigma: &sigma, Rho: &r, Tau: &t})
		if len(candidates) == 0 {
			continue
		}
		numeric := c.internNumericLocked(candidates[0].ID)
		pending = append(pending, pendingCommand{droneID: id, cmd: comms.DroneCommand{PatternID: numeric}, correlationID: shutdownID})
	}
	c.mu.Unlock()

	c.sendPending(pending)

	err := c.comms.Disconnect(ctx)
	if c.onShutdown != nil {
		c.onShutdown()
	}
	return err
}

// sendPending emits every queued command through Comms. Must be called
// without c.mu held; delivery failures are logged and counted, never
// fatal, matching the fire-and-forget outbound contract.
func (c *Coordinator) sendPending(pending []pendingCommand) {
	for _, p := range pending {
		if err := c.comms.SendCommand(p.droneID, p.cmd); err != nil {
			c.logger.Warn("command send failed", "drone", p.droneID, "correlation_id", p.correlationID, "err", err)
			metrics.RecordCommandSendFailure()
			continue
		}
		c.logger.Debug("command sent", "drone", p.droneID, "correlation_id", p.correlationID, "pattern_id", p.cmd.PatternID)
	}
}

// Run drives Tick on the configured interval until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.TickIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Tick(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

// handleTelemetry is the callback registered with Comms. Unknown drone
// ids are ignored.
func (c *Coordinator) handleTelemetry(droneID string, pkt comms.TelemetryPacket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.world.GetDrone(droneID); !ok {
		return
	}
	c.world.UpdateTelemetry(droneID, world.SensorState{
		Position:          world.Position(pkt.Pos),
		Velocity:          world.Vector3(pkt.Vel),
		BatteryPercentage: pkt.BatteryPercent,
		PositionQuality:   pkt.PosQuality,
	})
}

// Tick runs one coordination cycle at time now and returns the
// assignments produced. Exposed publicly for testing; Run calls it on
// the configured interval.
func (c *Coordinator) Tick(now time.Time) []constraint.Assignment {
	start := time.Now()
	correlationID := uuid.NewString()
	c.mu.Lock()
	c.tick++
	tick := c.tick

	c.world.MarkStaleDrones(now)

	var changed []string
	for _, id := range c.world.GetActiveDroneIDs() {
		ds, ok := c.world.GetDrone(id)
		if !ok {
			continue
		}
		if pat, ok := c.catalog.Lookup(ds.CurrentPattern); ok {
			for _, fe := range pat.Postconditions.ForcedExits {
				if forcedExitTriggers(fe, ds) {
					changed = append(changed, id)
					break
				}
			}
		}
	}

	var assignments []constraint.Assignment
	var pending []pendingCommand
	var roleChanges map[string]dimension.FormationRole

	if len(changed) > 0 {
		affected := blast.Cascade(c.world, changed, nil)
		metrics.ObserveAffectedSetSize(len(affected))
		solveStart := time.Now()
		assignments = constraint.Solve(c.world, c.catalog, affected, c.Objectives)
		metrics.ObserveConstraintSolveDuration(time.Since(solveStart).Seconds())
		pending = append(pending, c.applyAssignmentsLocked(assignments, correlationID, true)...)
	}

	if c.cfg.RoleReassignmentInterval > 0 && tick%c.cfg.RoleReassignmentInterval == 0 {
		roleChanges = roles.Assign(c.world, c.world.GetActiveDroneIDs(), c.Formation, c.Coverage, c.cfg.Roles, c.tickCounts)
		if len(roleChanges) > 0 {
			var roleChangedIDs []string
			for id := range roleChanges {
				roleChangedIDs = append(roleChangedIDs, id)
			}
			sort.Strings(roleChangedIDs)

			affected := blast.Cascade(c.world, roleChangedIDs, nil)
			c.applyRoleChangesLocked(roleChanges)

			roleAssignments := constraint.Solve(c.world, c.catalog, affected, c.Objectives)
			pending = append(pending, c.applyAssignmentsLocked(roleAssignments, correlationID, false)...)
			assignments = append(assignments, roleAssignments...)
		}

		for id := range c.tickCounts {
			c.tickCounts[id]++
		}
		for _, id := range c.world.GetActiveDroneIDs() {
			if _, ok := c.tickCounts[id]; !ok {
				c.tickCounts[id] = 0
			}
		}
		for id := range roleChanges {
			c.tickCounts[id] = 0
		}
		c.lastRoleChanges = roleChanges
	}

	c.lastAssignments = assignments
	c.mu.Unlock()

	c.sendPending(pending)

	metrics.ObserveTickDuration(time.Since(start).Seconds())
	if c.onTick != nil {
		c.onTick(tick, assignments)
	}
	c.logger.Info("tick complete", "tick", tick, "correlation_id", correlationID, "assignments", len(assignments))
	return assignments
}

func forcedExitTriggers(fe catalog.ForcedExit, ds world.DroneState) bool {
	return constraint.EvaluateForcedExit(fe.Condition, ds.Sensor)
}

// applyAssignmentsLocked updates the world model for each assignment and
// returns the commands that should be sent once the lock is released.
// isForcedExitPass marks assignments produced by the tick's step-1
// forced-exit scan, the only pass forced_exits_total should count;
// role-reassignment assignments never increment it even when the
// resulting pattern happens to carry an emergency κ. Callers must hold
// c.mu.
func (c *Coordinator) applyAssignmentsLocked(assignments []constraint.Assignment, correlationID string, isForcedExitPass bool) []pendingCommand {
	var pending []pendingCommand
	for _, a := range assignments {
		pat, ok := c.catalog.Lookup(a.PatternID)
		if !ok {
			continue
		}
		c.world.UpdatePattern(a.DroneID, a.PatternID, pat.Core.Sigma, pat.Core.Kappa, pat.Core.Chi, pat.Core.Lambda)

		numeric := c.internNumericLocked(a.PatternID)
		cmd := comms.DroneCommand{PatternID: numeric}
		if a.TargetPos != nil {
			cmd.TargetPos = comms.Vec3(*a.TargetPos)
		}
		if a.TargetVel != nil {
			cmd.TargetVel = comms.Vec3(*a.TargetVel)
		}
		pending = append(pending, pendingCommand{droneID: a.DroneID, cmd: cmd, correlationID: correlationID})
		if isForcedExitPass && pat.Core.Kappa == dimension.Emergency {
			metrics.RecordForcedExit(a.PatternID)
		}
	}
	return pending
}

// applyRoleChangesLocked updates χ for every drone in changes, leaving
// its pattern id untouched. Callers must hold c.mu.
func (c *Coordinator) applyRoleChangesLocked(changes map[string]dimension.FormationRole) {
	for id, role := range changes {
		ds, ok := c.world.GetDrone(id)
		if !ok {
			continue
		}
		lambda := dimension.DefaultOwnership(role)
		c.world.UpdatePattern(id, ds.CurrentPattern, ds.Core.Sigma, ds.Core.Kappa, role, lambda)
		metrics.RecordRoleChange(role.String())
	}
}

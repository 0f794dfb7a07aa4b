package comms

import (
	"context"
	"fmt"
	"sync"
)

// TelemetryCallback receives an inbound telemetry packet for droneID.
type TelemetryCallback func(droneID string, packet TelemetryPacket)

// Comms is the narrow outbound/inbound interface the coordinator core
// consumes. Implementations include SimComms (in-process, used by tests
// and by `swarmcore serve --simulate`) and, out of scope here, a bridge
// to a hardware radio stack.
type Comms interface {
	Connect(ctx context.Context, droneIDs []string) error
	Disconnect(ctx context.Context) error
	Connected() bool
	SendCommand(droneID string, cmd DroneCommand) error
	OnTelemetry(cb TelemetryCallback)
}

// SentCommand records one command handed to SimComms.SendCommand, for
// test inspection.
type SentCommand struct {
	DroneID string
	Command DroneCommand
}

// SimComms is an in-process substrate for Comms: sends are appended to
// an in-memory list (which grows without bound) instead of going to a
// radio, and telemetry is injected by calling
// Inject rather than arriving over the air. It is the coordination
// core's test substrate.
type SimComms struct {
	mu        sync.Mutex
	connected bool
	sent      []SentCommand
	callback  TelemetryCallback
	failNext  map[string]bool
}

// NewSimComms returns a disconnected SimComms.
func NewSimComms() *SimComms {
	return &SimComms{failNext: map[string]bool{}}
}

func (s *SimComms) Connect(ctx context.Context, droneIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *SimComms) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *SimComms) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// SendCommand appends cmd to the sent-commands list. It returns
// ErrNotConnected when not connected. If the drone was flagged via
// FailNextSend, it returns a simulated delivery-failure error and drops
// the command, mirroring the spec's
// fire-and-forget, non-fatal delivery-failure semantics.
func (s *SimComms) SendCommand(droneID string, cmd DroneCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	if s.failNext[droneID] {
		delete(s.failNext, droneID)
		return fmt.Errorf("simulated delivery failure for %s", droneID)
	}
	s.sent = append(s.sent, SentCommand{DroneID: droneID, Command: cmd})
	return nil
}

func (s *SimComms) OnTelemetry(cb TelemetryCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

// Inject synthesizes an inbound telemetry packet for droneID, invoking
// the registered callback synchronously. Tests use this in place of a
// real radio receive.
func (s *SimComms) Inject(droneID string, packet TelemetryPacket) {
	s.mu.Lock()
	cb := s.callback
	s.mu.Unlock()
	if cb != nil {
		cb(droneID, packet)
	}
}

// FailNextSend arranges for the next SendCommand to droneID to fail,
// exercising the coordinator's non-fatal delivery-failure path.
func (s *SimComms) FailNextSend(droneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[droneID] = true
}

// Sent returns a copy of every command accepted so far, in send order.
func (s *SimComms) Sent() []SentCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentCommand, len(s.sent))
	copy(out, s.sent)
	return out
}

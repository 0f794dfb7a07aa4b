// Package comms defines the outbound command / inbound telemetry
// interface the coordinator core consumes, its packed little-endian
// wire encoding, and an in-process simulator implementation used as the
// core's test substrate.
//
// The wire codec is deliberately hand-rolled with encoding/binary
// rather than a schema-driven serialization library: the layouts are
// fixed-size, firmware-defined byte offsets that a general-purpose
// serializer would only obscure.
package comms

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Command flag bits.
const (
	FlagEmergency    uint8 = 1 << 0
	FlagStyleUpdate  uint8 = 1 << 1
	FlagForcePattern uint8 = 1 << 2
)

// Telemetry status-flag bits.
const (
	StatusAirborne      uint8 = 1 << 0
	StatusPatternActive uint8 = 1 << 1
	StatusEmergency     uint8 = 1 << 2
	StatusLowBattery    uint8 = 1 << 3
	StatusCommLost      uint8 = 1 << 4
)

// Vec3 is a float triple in meters (m/s for velocities) used for
// wire-level positions and velocities; the wire carries each component
// as int16 millimeters.
type Vec3 struct {
	X, Y, Z float64
}

// DroneCommand is the outbound command sent to a single drone: the
// numeric pattern id, an optional motion target, and flags.
type DroneCommand struct {
	PatternID uint16
	TargetPos Vec3
	TargetVel Vec3
	Flags     uint8
}

// CommandWireSize is the fixed packed size of a DroneCommand on the wire.
const CommandWireSize = 20

// EncodeCommand packs cmd into CommandWireSize bytes, little-endian, per
// the firmware layout: pattern_id, pos x/y/z, vel x/y/z (int16 mm or
// mm/s), flags, then five reserved zero bytes.
func EncodeCommand(cmd DroneCommand) [CommandWireSize]byte {
	var buf [CommandWireSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], cmd.PatternID)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(metersToMM(cmd.TargetPos.X))))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(int16(metersToMM(cmd.TargetPos.Y))))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(int16(metersToMM(cmd.TargetPos.Z))))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(int16(metersToMM(cmd.TargetVel.X))))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(int16(metersToMM(cmd.TargetVel.Y))))
	binary.LittleEndian.PutUint16(buf[12:14], uint16(int16(metersToMM(cmd.TargetVel.Z))))
	buf[14] = cmd.Flags
	// bytes 15..19 stay zero (reserved).
	return buf
}

// DecodeCommand is the inverse of EncodeCommand, used by tests and by an
// eventual hardware bridge to sanity-check what was actually put on the
// wire.
func DecodeCommand(buf [CommandWireSize]byte) DroneCommand {
	return DroneCommand{
		PatternID: binary.LittleEndian.Uint16(buf[0:2]),
		TargetPos: Vec3{
			X: mmToMeters(int16(binary.LittleEndian.Uint16(buf[2:4]))),
			Y: mmToMeters(int16(binary.LittleEndian.Uint16(buf[4:6]))),
			Z: mmToMeters(int16(binary.LittleEndian.Uint16(buf[6:8]))),
		},
		TargetVel: Vec3{
			X: mmToMeters(int16(binary.LittleEndian.Uint16(buf[8:10]))),
			Y: mmToMeters(int16(binary.LittleEndian.Uint16(buf[10:12]))),
			Z: mmToMeters(int16(binary.LittleEndian.Uint16(buf[12:14]))),
		},
		Flags: buf[14],
	}
}

// TelemetryPacket is the inbound status report from a single drone.
type TelemetryPacket struct {
	Pos            Vec3
	Vel            Vec3
	BatteryPercent float64
	PatternID      uint16
	StatusFlags    uint8
	PosQuality     float64
}

// TelemetryWireSize is the fixed packed size of a TelemetryPacket on the
// wire.
const TelemetryWireSize = 18

// EncodeTelemetry packs t into TelemetryWireSize bytes, little-endian.
func EncodeTelemetry(t TelemetryPacket) [TelemetryWireSize]byte {
	var buf [TelemetryWireSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(int16(metersToMM(t.Pos.X))))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(int16(metersToMM(t.Pos.Y))))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(int16(metersToMM(t.Pos.Z))))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(int16(metersToMM(t.Vel.X))))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(int16(metersToMM(t.Vel.Y))))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(int16(metersToMM(t.Vel.Z))))
	buf[12] = clampToByte(t.BatteryPercent * 200)
	binary.LittleEndian.PutUint16(buf[13:15], t.PatternID)
	buf[15] = t.StatusFlags
	buf[16] = clampToByte(t.PosQuality * 255)
	// byte 17 stays zero (reserved).
	return buf
}

// DecodeTelemetry unpacks buf into a TelemetryPacket.
func DecodeTelemetry(buf [TelemetryWireSize]byte) TelemetryPacket {
	return TelemetryPacket{
		Pos: Vec3{
			X: mmToMeters(int16(binary.LittleEndian.Uint16(buf[0:2]))),
			Y: mmToMeters(int16(binary.LittleEndian.Uint16(buf[2:4]))),
			Z: mmToMeters(int16(binary.LittleEndian.Uint16(buf[4:6]))),
		},
		Vel: Vec3{
			X: mmToMeters(int16(binary.LittleEndian.Uint16(buf[6:8]))),
			Y: mmToMeters(int16(binary.LittleEndian.Uint16(buf[8:10]))),
			Z: mmToMeters(int16(binary.LittleEndian.Uint16(buf[10:12]))),
		},
		BatteryPercent: float64(buf[12]) / 200,
		PatternID:      binary.LittleEndian.Uint16(buf[13:15]),
		StatusFlags:    buf[15],
		PosQuality:     float64(buf[16]) / 255,
	}
}

func metersToMM(m float64) float64 {
	if m > 32.767 {
		m = 32.767
	}
	if m < -32.767 {
		m = -32.767
	}
	return math.Round(m * 1000)
}

func mmToMeters(mm int16) float64 {
	return float64(mm) / 1000
}

func clampToByte(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(math.Round(v))
}

// ErrNotConnected is returned by SendCommand when Connect has not been
// called (or Disconnect has been called since).
var ErrNotConnected = fmt.Errorf("comms: not connected")

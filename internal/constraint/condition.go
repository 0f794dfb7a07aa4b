package constraint

import (
	"strconv"
	"strings"

	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

// condition is a parsed forced-exit condition: <field> < <number>.
type condition struct {
	field     string
	threshold float64
}

// parseCondition parses the single-comparison grammar "<field> < <number>"
// where field is one of "battery" or "position_quality". Any other shape
// -- missing operator, unknown field, unparseable number, extra tokens --
// is reported as not-ok, and evaluateCondition then treats it as always
// false, matching the catalog's "malformed conditions are false" rule.
func parseCondition(raw string) (condition, bool) {
	parts := strings.Fields(raw)
	if len(parts) != 3 || parts[1] != "<" {
		return condition{}, false
	}
	field := parts[0]
	if field != "battery" && field != "position_quality" {
		return condition{}, false
	}
	threshold, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return condition{}, false
	}
	return condition{field: field, threshold: threshold}, true
}

// EvaluateForcedExit evaluates a catalog forced-exit condition string
// against sensor state δ, for callers scanning for forced exits outside
// the solver's own pipeline (the coordinator's per-tick pre-scan).
func EvaluateForcedExit(raw string, sensor world.SensorState) bool {
	return evaluateCondition(raw, sensor)
}

// evaluateCondition evaluates raw against sensor state δ. Unknown fields
// or malformed conditions always evaluate to false.
func evaluateCondition(raw string, sensor world.SensorState) bool {
	c, ok := parseCondition(raw)
	if !ok {
		return false
	}
	switch c.field {
	case "battery":
		return sensor.BatteryPercentage < c.threshold
	case "position_quality":
		return sensor.PositionQuality < c.threshold
	default:
		return false
	}
}

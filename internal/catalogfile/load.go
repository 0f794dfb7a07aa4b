// Package catalogfile loads the on-disk catalog — one JSON file per
// behavioral pattern plus a YAML file of compatibility rules — into the
// in-memory structures internal/catalog indexes, and validates the
// result against the catalog's structural invariants before it is
// handed to the rest of the coordination core.
package catalogfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalog"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"gopkg.in/yaml.v3"
)

// patternFile mirrors catalog.BehavioralPattern's on-disk JSON shape.
// Enum fields are decoded from their canonical-key string spelling.
type patternFile struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Core        struct {
		Sigma  string `json:"sigma"`
		Kappa  string `json:"kappa"`
		Chi    string `json:"chi"`
		Lambda string `json:"lambda"`
		Tau    string `json:"tau"`
		Rho    string `json:"rho"`
	} `json:"core"`
	Preconditions struct {
		BatteryFloor         float64  `json:"battery_floor"`
		PositionQualityFloor float64  `json:"position_quality_floor"`
		MinReferences        int      `json:"min_references"`
		ValidFrom            []string `json:"valid_from"`
		HardwareRequirements []string `json:"hardware_requirements"`
	} `json:"preconditions"`
	Postconditions struct {
		ValidTo     []string `json:"valid_to"`
		ForcedExits []struct {
			Condition     string `json:"condition"`
			TargetPattern string `json:"target_pattern"`
		} `json:"forced_exits"`
	} `json:"postconditions"`
	Generator struct {
		Type     string                 `json:"type"`
		Defaults map[string][]float64   `json:"defaults"`
		Bounds   map[string]struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"bounds"`
	} `json:"generator"`
	Verification struct {
		Status              string   `json:"status"`
		CollisionClearanceM float64  `json:"collision_clearance_m"`
		MaxVelocityMs       float64  `json:"max_velocity_ms"`
		MaxAccelerationMs2  float64  `json:"max_acceleration_ms2"`
		EnergyRateJs        float64  `json:"energy_rate_js"`
		MaxDurationS        float64  `json:"max_duration_s"`
		VerifiedTransitions []string `json:"verified_transitions"`
	} `json:"verification"`
}

// ruleFile mirrors catalog.CompatibilityRule's on-disk YAML shape.
type ruleFile struct {
	PatternAGlob   string  `yaml:"pattern_a_glob"`
	PatternBGlob   string  `yaml:"pattern_b_glob"`
	Compatible     bool    `yaml:"compatible"`
	MinSeparationM float64 `yaml:"min_separation_m"`
	Reason         string  `yaml:"reason"`
}

// LoadPatterns reads every *.json file directly under dir and decodes it
// into a catalog.BehavioralPattern, keyed by pattern id.
func LoadPatterns(dir string) (map[string]*catalog.BehavioralPattern, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	out := map[string]*catalog.BehavioralPattern{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var pf patternFile
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		p, err := toBehavioralPattern(pf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out[p.ID] = p
	}
	return out, nil
}

// LoadCompatibilityRules reads a YAML list of compatibility rules.
func LoadCompatibilityRules(path string) ([]catalog.CompatibilityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compatibility rules: %w", err)
	}
	var files []ruleFile
	if err := yaml.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("parse compatibility rules: %w", err)
	}
	out := make([]catalog.CompatibilityRule, 0, len(files))
	for _, f := range files {
		out = append(out, catalog.CompatibilityRule{
			PatternAGlob:   f.PatternAGlob,
			PatternBGlob:   f.PatternBGlob,
			Compatible:     f.Compatible,
			MinSeparationM: f.MinSeparationM,
			Reason:         f.Reason,
		})
	}
	return out, nil
}

func toBehavioralPattern(pf patternFile) (*catalog.BehavioralPattern, error) {
	sigma, ok := dimension.ParseBehavioralMode(pf.Core.Sigma)
	if !ok {
		return nil, fmt.Errorf("unknown sigma %q", pf.Core.Sigma)
	}
	kappa, ok := dimension.ParseAutonomyLevel(pf.Core.Kappa)
	if !ok {
		return nil, fmt.Errorf("unknown kappa %q", pf.Core.Kappa)
	}
	chi, ok := dimension.ParseFormationRole(pf.Core.Chi)
	if !ok {
		return nil, fmt.Errorf("unknown chi %q", pf.Core.Chi)
	}
	lambda, ok := dimension.ParseResourceOwnership(pf.Core.Lambda)
	if !ok {
		return nil, fmt.Errorf("unknown lambda %q", pf.Core.Lambda)
	}
	tau, ok := dimension.ParsePhysicalTraits(pf.Core.Tau)
	if !ok {
		return nil, fmt.Errorf("unknown tau %q", pf.Core.Tau)
	}
	rho, ok := dimension.ParseHardwareTarget(pf.Core.Rho)
	if !ok {
		return nil, fmt.Errorf("unknown rho %q", pf.Core.Rho)
	}
	genType, ok := dimension.ParseGeneratorType(pf.Generator.Type)
	if !ok {
		return nil, fmt.Errorf("unknown generator type %q", pf.Generator.Type)
	}

	var hwReqs []dimension.HardwareTarget
	for _, h := range pf.Preconditions.HardwareRequirements {
		parsed, ok := dimension.ParseHardwareTarget(h)
		if !ok {
			return nil, fmt.Errorf("unknown hardware requirement %q", h)
		}
		hwReqs = append(hwReqs, parsed)
	}

	bounds := map[string]catalog.Bounds{}
	for k, b := range pf.Generator.Bounds {
		bounds[k] = catalog.Bounds{Min: b.Min, Max: b.Max}
	}

	var forcedExits []catalog.ForcedExit
	for _, fe := range pf.Postconditions.ForcedExits {
		forcedExits = append(forcedExits, catalog.ForcedExit{
			Condition:     fe.Condition,
			TargetPattern: fe.TargetPattern,
		})
	}

	return &catalog.BehavioralPattern{
		ID:          pf.ID,
		Description: pf.Description,
		Core: dimension.CorePattern{
			Sigma: sigma, Kappa: kappa, Chi: chi, Lambda: lambda, Tau: tau, Rho: rho,
		},
		Preconditions: catalog.Preconditions{
			BatteryFloor:         pf.Preconditions.BatteryFloor,
			PositionQualityFloor: pf.Preconditions.PositionQualityFloor,
			MinReferences:        pf.Preconditions.MinReferences,
			ValidFrom:            pf.Preconditions.ValidFrom,
			HardwareRequirements: hwReqs,
		},
		Postconditions: catalog.Postconditions{
			ValidTo:     pf.Postconditions.ValidTo,
			ForcedExits: forcedExits,
		},
		Generator: catalog.Generator{
			Type:     genType,
			Defaults: pf.Generator.Defaults,
			Bounds:   bounds,
		},
		Verification: catalog.Verification{
			Status:              catalog.VerificationStatus(pf.Verification.Status),
			CollisionClearanceM: pf.Verification.CollisionClearanceM,
			MaxVelocityMs:       pf.Verification.MaxVelocityMs,
			MaxAccelerationMs2:  pf.Verification.MaxAccelerationMs2,
			EnergyRateJs:        pf.Verification.EnergyRateJs,
			MaxDurationS:        pf.Verification.MaxDurationS,
			VerifiedTransitions: pf.Verification.VerifiedTransitions,
		},
	}, nil
}

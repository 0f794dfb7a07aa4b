// Package config loads the coordinator's YAML configuration, validated
// against a CUE schema before it is unmarshalled.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CoordinatorConfig is the root configuration for a running coordinator:
// every tunable named across the world model, role engine, and tick
// loop, plus the on-disk locations of the catalog and compatibility
// rules.
type CoordinatorConfig struct {
	CommRangeM                float64 `yaml:"comm_range_m"`
	StaleThresholdMs          int64   `yaml:"stale_threshold_ms"`
	TickIntervalMs            int64   `yaml:"tick_interval_ms"`
	RoleReassignmentInterval  int64   `yaml:"role_reassignment_interval"`
	BatteryChargeThreshold    float64 `yaml:"battery_charge_threshold"`
	BatteryReturnThreshold    float64 `yaml:"battery_return_threshold"`
	RoleHysteresisTickCount   int     `yaml:"role_hysteresis_tick_count"`
	CatalogDir                string  `yaml:"catalog_dir"`
	CompatibilityRulesPath    string  `yaml:"compatibility_rules_path"`
	AdminListenAddr           string  `yaml:"admin_listen_addr"`
	MetricsListenAddr         string  `yaml:"metrics_listen_addr"`
}

// applyDefaults fills every zero-valued tunable with the spec-mandated
// default, so a mostly-empty YAML file (or a config used only in tests)
// still produces a runnable coordinator.
func (c *CoordinatorConfig) applyDefaults() {
	if c.CommRangeM == 0 {
		c.CommRangeM = 5.0
	}
	if c.StaleThresholdMs == 0 {
		c.StaleThresholdMs = 500
	}
	if c.TickIntervalMs == 0 {
		c.TickIntervalMs = 10
	}
	if c.RoleReassignmentInterval == 0 {
		c.RoleReassignmentInterval = 100
	}
	if c.BatteryChargeThreshold == 0 {
		c.BatteryChargeThreshold = 0.15
	}
	if c.BatteryReturnThreshold == 0 {
		c.BatteryReturnThreshold = 0.90
	}
	if c.RoleHysteresisTickCount == 0 {
		c.RoleHysteresisTickCount = 10
	}
	if c.AdminListenAddr == "" {
		c.AdminListenAddr = ":8090"
	}
	if c.MetricsListenAddr == "" {
		c.MetricsListenAddr = ":9090"
	}
}

// Load validates configPath against cueSchemaPath, then unmarshals it
// into a CoordinatorConfig with defaults applied.
func Load(configPath, cueSchemaPath string) (*CoordinatorConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg CoordinatorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papyruslabs-ai/seshat-swarm/internal/comms"
	"github.com/papyruslabs-ai/seshat-swarm/internal/coordinator"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
	"github.com/papyruslabs-ai/seshat-swarm/internal/world"
)

var (
	tickCatalogDir string
	tickRulesPath  string
	tickWorldPath  string
	tickCount      int
)

// worldSnapshotDrone is one drone entry in a --world JSON snapshot: enough
// to register a drone with the coordinator without a live comms feed.
type worldSnapshotDrone struct {
	ID      string            `json:"id"`
	Rho     string            `json:"rho"`
	Tau     string            `json:"tau"`
	Pattern string            `json:"pattern"`
	Sensor  world.SensorState `json:"sensor"`
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a fixed number of ticks against a world snapshot and print the resulting assignments",
	Long:  "tick loads a pattern catalog and a JSON world snapshot, registers each drone, then drives the tick loop --count times, printing the constraint assignments produced by the final tick.",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex(tickCatalogDir, tickRulesPath)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(tickWorldPath)
		if err != nil {
			return fmt.Errorf("read world snapshot: %w", err)
		}
		var snapshot []worldSnapshotDrone
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("parse world snapshot: %w", err)
		}

		ctx := context.Background()
		co := coordinator.New(ctx, comms.NewSimComms(), idx, coordinator.DefaultConfig())

		for _, d := range snapshot {
			rho, ok := dimension.ParseHardwareTarget(d.Rho)
			if !ok {
				return fmt.Errorf("drone %s: unknown rho %q", d.ID, d.Rho)
			}
			tau, ok := dimension.ParsePhysicalTraits(d.Tau)
			if !ok {
				return fmt.Errorf("drone %s: unknown tau %q", d.ID, d.Tau)
			}
			co.RegisterDrone(d.ID, rho, tau, d.Pattern, d.Sensor)
		}

		var assignments []interface{}
		now := time.Now()
		tickInterval := time.Duration(coordinator.DefaultConfig().TickIntervalMs) * time.Millisecond
		for i := 0; i < tickCount; i++ {
			result := co.Tick(now)
			assignments = assignments[:0]
			for _, a := range result {
				assignments = append(assignments, a)
			}
			now = now.Add(tickInterval)
		}

		out, err := json.MarshalIndent(assignments, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	tickCmd.Flags().StringVar(&tickCatalogDir, "dir", "catalog", "Directory of pattern JSON files")
	tickCmd.Flags().StringVar(&tickRulesPath, "rules", "catalog/compatibility.yaml", "Path to the compatibility rules YAML file")
	tickCmd.Flags().StringVar(&tickWorldPath, "world", "", "Path to a JSON world snapshot")
	tickCmd.Flags().IntVar(&tickCount, "count", 1, "Number of ticks to run")
	_ = tickCmd.MarkFlagRequired("world")
}

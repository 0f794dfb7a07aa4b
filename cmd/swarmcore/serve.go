package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/papyruslabs-ai/seshat-swarm/internal/admin"
	"github.com/papyruslabs-ai/seshat-swarm/internal/comms"
	swarmconfig "github.com/papyruslabs-ai/seshat-swarm/internal/config"
	"github.com/papyruslabs-ai/seshat-swarm/internal/coordinator"
	"github.com/papyruslabs-ai/seshat-swarm/internal/logging"
)

var (
	serveConfigPath string
	serveSchemaPath string
	serveSimulate   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordination core's tick loop and operator surfaces",
	Long:  "serve loads the coordinator config and pattern catalog, then runs the tick loop, the read-only admin JSON API, and the Prometheus metrics endpoint until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := swarmconfig.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}

		idx, err := loadIndex(cfg.CatalogDir, cfg.CompatibilityRulesPath)
		if err != nil {
			return err
		}

		logger := logging.New()
		ctx := logging.NewContext(context.Background(), logger)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		coCfg := coordinator.DefaultConfig()
		coCfg.TickIntervalMs = cfg.TickIntervalMs
		coCfg.RoleReassignmentInterval = cfg.RoleReassignmentInterval
		coCfg.World.CommRangeM = cfg.CommRangeM
		coCfg.World.StaleThresholdMs = cfg.StaleThresholdMs
		coCfg.Roles.BatteryChargeThreshold = cfg.BatteryChargeThreshold
		coCfg.Roles.BatteryReturnThreshold = cfg.BatteryReturnThreshold
		coCfg.Roles.RoleHysteresisTickCount = cfg.RoleHysteresisTickCount

		if !serveSimulate {
			return fmt.Errorf("no hardware comms substrate is wired; run with --simulate")
		}
		sc := comms.NewSimComms()
		co := coordinator.New(ctx, sc, idx, coCfg)
		if err := co.Start(ctx, nil); err != nil {
			return err
		}

		adminSrv := admin.NewServer(co)
		go func() {
			logger.Info("admin API listening", "addr", cfg.AdminListenAddr)
			if err := adminSrv.Start(cfg.AdminListenAddr); err != nil && err != http.ErrServerClosed {
				logger.Error("admin server failed", "err", err)
			}
		}()

		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsListenAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsListenAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "err", err)
			}
		}()

		go co.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		return co.Stop(context.Background())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/coordinator.yaml", "Path to the coordinator configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/coordinator.cue", "Path to the CUE schema file")
	serveCmd.Flags().BoolVar(&serveSimulate, "simulate", true, "Use the in-process simulated comms substrate (the only substrate currently wired)")
}

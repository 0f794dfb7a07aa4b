package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swarmcore",
	Short: "Ground-station coordination core for a drone swarm",
	Long:  "swarmcore runs the tick-driven coordination core: constraint solving, blast-radius propagation, and role assignment over a registered fleet of drones.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(validateCatalogCmd)
	rootCmd.AddCommand(watchCmd)
}

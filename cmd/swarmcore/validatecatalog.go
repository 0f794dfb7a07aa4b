package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papyruslabs-ai/seshat-swarm/internal/catalogfile"
	"github.com/papyruslabs-ai/seshat-swarm/internal/dimension"
)

var (
	validateCatalogDir string
	validateRulesPath  string
)

var validateCatalogCmd = &cobra.Command{
	Use:   "validate-catalog",
	Short: "Validate a behavioral pattern catalog against its structural invariants",
	Long:  "validate-catalog loads every pattern under --dir and the compatibility rules at --rules, then reports every Invariant-3 violation found rather than stopping at the first one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns, err := catalogfile.LoadPatterns(validateCatalogDir)
		if err != nil {
			return fmt.Errorf("load patterns: %w", err)
		}
		if _, err := catalogfile.LoadCompatibilityRules(validateRulesPath); err != nil {
			return fmt.Errorf("load compatibility rules: %w", err)
		}

		matrix := dimension.NewTransitionMatrix(dimension.DefaultRules())
		violations := catalogfile.Validate(patterns, matrix)

		fmt.Printf("loaded %d patterns\n", len(patterns))
		if len(violations) == 0 {
			fmt.Println("catalog is valid")
			return nil
		}
		for _, v := range violations {
			fmt.Println(v.Error())
		}
		return fmt.Errorf("%d invariant violations found", len(violations))
	},
}

func init() {
	validateCatalogCmd.Flags().StringVar(&validateCatalogDir, "dir", "catalog", "Directory of pattern JSON files")
	validateCatalogCmd.Flags().StringVar(&validateRulesPath, "rules", "catalog/compatibility.yaml", "Path to the compatibility rules YAML file")
}

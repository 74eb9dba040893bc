package cmd

import (
	"fmt"
	"os"

	"github.com/dfornika/irida/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [manifest...]",
	Short: "Validate irida.yml and submission manifests",
	Long: `Lint checks the configuration file (see --config) and any given manifests for
correctness: required fields, URL formats, sample names and file lists. Nothing
is sent to Galaxy.

Use this command to check your files before running 'prepare' or 'upload'.`,
	Run: func(cmd *cobra.Command, args []string) {
		failed := false

		fmt.Printf("Linting file: %s\n", configPath)
		if _, err := config.LoadConfig(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
			failed = true
		} else {
			fmt.Printf("✓ %s is valid!\n", configPath)
		}

		for _, manifestPath := range args {
			fmt.Printf("Linting file: %s\n", manifestPath)
			if _, err := config.LoadManifest(manifestPath); err != nil {
				fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
				failed = true
				continue
			}
			fmt.Printf("✓ %s is valid!\n", manifestPath)
		}

		if failed {
			os.Exit(1)
		}
	},
}

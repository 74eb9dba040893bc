package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dfornika/irida/internal/config"
	"github.com/dfornika/irida/internal/console"
	"github.com/dfornika/irida/types"
	"github.com/spf13/cobra"
)

var (
	Verbose    bool
	wantJSON   bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "irida",
	Short: "Irida prepares sequencing analyses and sample libraries on a Galaxy server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Irida CLI: analysis submissions for Galaxy.")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&wantJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to irida.yml")
}

func newConsole() *console.Console {
	switch {
	case wantJSON:
		return console.New(types.StyleMachineJSON)
	case Verbose:
		return console.New(types.StyleHumanVerbose)
	default:
		return console.New(types.StyleHuman)
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/dfornika/irida/cmd"
	"github.com/dfornika/irida/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	isVerbose := false
	for _, arg := range os.Args {
		if arg == "--verbose" || arg == "-v" {
			isVerbose = true
		}
	}

	// Terminal logging; background uploads switch to a log file themselves.
	if _, err := logging.ConfigureGlobalLogger(isVerbose, ""); err != nil {
		// Fallback to basic stderr if logger setup fails
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Msg("Starting irida CLI command execution")
	cmd.Execute()
}

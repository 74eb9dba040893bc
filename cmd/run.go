package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/logging"
	"github.com/dfornika/irida/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runContext groups what every recorded command needs: an id, a start time
// and somewhere to put task records.
type runContext struct {
	Run    executor.Run
	Start  time.Time
	Prefix string
	Sink   *logging.RecordSink
	Logger zerolog.Logger
}

func beginRun(ctx context.Context, cmdName, recordsURL string) *runContext {
	run := executor.Run{ID: uuid.New(), Cmd: cmdName}
	start := time.Now()
	prefix := logging.RunPrefix(run.ID, start, cmdName)

	sink, err := logging.OpenRecordSink(ctx, recordsURL, prefix)
	if err != nil {
		cobra.CheckErr(fmt.Errorf("failed to open execution records for run %s: %w", run.ID, err))
	}

	logger := log.With().Str("run_id", run.ID.String()).Logger()
	logger.Debug().Msgf("Records will be stored under: %s", prefix)

	return &runContext{Run: run, Start: start, Prefix: prefix, Sink: sink, Logger: logger}
}

// finish writes summary.json and closes the sink.
func (rc *runContext) finish(ctx context.Context, records []models.TaskRecord, galaxyURL string) models.ExecutionSummary {
	defer rc.Sink.Close()

	rc.Logger.Debug().Msg("Generating execution summary...")
	summary := generateExecutionSummary(records, rc.Run, rc.Start, galaxyURL, rc.Prefix)
	if err := writeSummary(ctx, rc.Sink, summary); err != nil {
		rc.Logger.Error().Err(err).Msg("Failed to write summary.json")
	}
	return summary
}

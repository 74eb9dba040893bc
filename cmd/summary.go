package cmd

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/logging"
	"github.com/dfornika/irida/internal/models"
)

// generateExecutionSummary folds task records into the run summary.
func generateExecutionSummary(
	records []models.TaskRecord,
	run executor.Run,
	startTime time.Time,
	galaxyURL string,
	recordPrefix string,
) models.ExecutionSummary {
	host, _ := os.Hostname()

	taskSummaries := make([]models.TaskSummary, 0, len(records))
	tasksSucceeded := 0
	tasksFailed := 0
	tasksSkipped := 0
	var firstFailure *models.TaskSummary

	for _, record := range records {
		taskSummaries = append(taskSummaries, models.TaskSummary{
			TaskName:   record.TaskName,
			Kind:       record.Kind,
			Status:     record.Status,
			StartTime:  record.StartTime,
			FinishTime: record.FinishTime,
			DurationMs: record.DurationMs,
			Error:      record.Error,
			RecordFile: path.Join(recordPrefix, logging.RecordKey(record)),
		})

		switch executor.TaskState(record.Status) {
		case executor.StateSucceeded:
			tasksSucceeded++
		case executor.StateSkipped:
			tasksSkipped++
		default:
			tasksFailed++
			if firstFailure == nil {
				firstFailure = &taskSummaries[len(taskSummaries)-1]
			}
		}
	}

	overallStatus := "Success"
	switch {
	case tasksFailed > 0 && tasksSucceeded == 0:
		overallStatus = "Failed"
	case tasksFailed > 0 || tasksSkipped > 0:
		overallStatus = "Partial"
	case len(records) == 0:
		overallStatus = "Skipped"
	}

	return models.ExecutionSummary{
		RunId:        run.ID,
		RunStartTime: startTime.Format(time.RFC3339),
		Cmd:          run.Cmd,
		GalaxyURL:    galaxyURL,
		Initiator: models.Initiator{
			Type:   "user",
			Id:     os.Getenv("USER"),
			Tenant: host,
		},
		Tasks:           taskSummaries,
		OverallStatus:   overallStatus,
		TotalDurationMs: time.Since(startTime).Milliseconds(),
		TasksSucceeded:  tasksSucceeded,
		TasksFailed:     tasksFailed,
		FirstFailure:    firstFailure,
	}
}

// writeSummary stores summary.json next to the task records of the run.
func writeSummary(ctx context.Context, sink *logging.RecordSink, summary models.ExecutionSummary) error {
	return sink.SaveSummary(ctx, summary)
}

package orchestrator

import (
	"context"
	"fmt"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/models"
	"github.com/dfornika/irida/internal/upload"
)

// UploadJob names one upload worker.
type UploadJob struct {
	Name   string
	Worker *upload.Worker
}

// Upload executes every worker as a task. Each worker's outcome is
// available from the worker itself once Upload returns.
func (o *Orchestrator) Upload(ctx context.Context, jobs []UploadJob) ([]models.TaskRecord, error) {
	tasks := make([]executor.Task, 0, len(jobs))
	for _, job := range jobs {
		if job.Worker == nil {
			return nil, fmt.Errorf("upload job %q has no worker", job.Name)
		}
		tasks = append(tasks, executor.Task{
			Name: job.Name,
			Kind: KindUpload,
			Run: func(ctx context.Context) (any, error) {
				outcome, err := job.Worker.Execute(ctx)
				if err != nil {
					return nil, err
				}
				return outcome.Result, outcome.Err
			},
		})
	}

	o.logger.Info().Int("uploads", len(jobs)).Msg("Uploading to libraries...")
	return o.executor().ExecuteAndWait(ctx, tasks)
}

package executor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dfornika/irida/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type TaskState string

const (
	// Initial state, not yet given a concurrency slot.
	StatePending TaskState = "PENDING"

	StateRunning TaskState = "RUNNING"

	// Terminal state: task returned without error.
	StateSucceeded TaskState = "SUCCEEDED"

	// Terminal state: task returned an error or panicked.
	StateFailed TaskState = "FAILED"

	// Terminal state: the run was cancelled before the task started.
	StateSkipped TaskState = "SKIPPED"
)

// Task is one unit of work. Run's output is stored in the task record.
type Task struct {
	Name string
	Kind string
	Run  func(ctx context.Context) (any, error)
}

// RecordSink persists task records as they complete.
type RecordSink interface {
	SaveTaskRecord(ctx context.Context, record models.TaskRecord) error
}

// Run identifies the CLI invocation the tasks belong to.
type Run struct {
	ID  uuid.UUID
	Cmd string
}

type Executor struct {
	run            Run
	maxConcurrency int
	sink           RecordSink

	stateMutex sync.RWMutex
	states     map[string]TaskState

	logger zerolog.Logger
}

const DefaultConcurrency = 5

func NewExecutor(run Run, concurrency int, sink RecordSink) *Executor {
	instanceLogger := log.With().
		Str("component", "executor").
		Str("run_id", run.ID.String()).
		Logger()

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
		instanceLogger.Debug().Msgf("Using default concurrency: %d", concurrency)
	}

	return &Executor{
		run:            run,
		maxConcurrency: concurrency,
		sink:           sink,
		states:         make(map[string]TaskState),
		logger:         instanceLogger,
	}
}

// ExecuteAndWait runs every task with at most maxConcurrency in flight and
// returns one record per task, in input order. A failing task does not stop
// the others; cancelling ctx skips tasks that have not started yet.
func (e *Executor) ExecuteAndWait(ctx context.Context, tasks []Task) ([]models.TaskRecord, error) {
	e.stateMutex.Lock()
	for _, t := range tasks {
		if _, dup := e.states[t.Name]; dup {
			e.stateMutex.Unlock()
			return nil, fmt.Errorf("duplicate task name %q", t.Name)
		}
		e.states[t.Name] = StatePending
	}
	e.stateMutex.Unlock()

	records := make([]models.TaskRecord, len(tasks))

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)

	for i, task := range tasks {
		taskLogger := e.logger.With().Str("task", task.Name).Logger()

		if ctx.Err() != nil {
			e.setState(task.Name, StateSkipped)
			records[i] = e.newRecord(task, StateSkipped, time.Now())
			records[i].Error = ctx.Err().Error()
			e.save(ctx, records[i], taskLogger)
			continue
		}

		g.Go(func() error {
			records[i] = e.executeTask(ctx, task, taskLogger)
			return nil
		})
	}

	_ = g.Wait()
	e.logger.Debug().Msgf("Collected %d task records.", len(records))
	return records, nil
}

func (e *Executor) executeTask(ctx context.Context, task Task, taskLogger zerolog.Logger) (record models.TaskRecord) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		e.setState(task.Name, StateSkipped)
		record = e.newRecord(task, StateSkipped, start)
		record.Error = err.Error()
		e.save(ctx, record, taskLogger)
		return record
	}

	e.setState(task.Name, StateRunning)
	taskLogger.Info().Msg("🚀 Launching task")

	defer func() {
		if r := recover(); r != nil {
			taskLogger.Error().Interface("panic", r).Msg("❌ Task panicked")
			e.setState(task.Name, StateFailed)
			record = e.newRecord(task, StateFailed, start)
			record.Error = fmt.Sprintf("panic: %v", r)
		}
		e.save(ctx, record, taskLogger)
	}()

	output, err := task.Run(ctx)
	if err != nil {
		taskLogger.Error().Err(err).Msg("❌ Task FAILED")
		e.setState(task.Name, StateFailed)
		record = e.newRecord(task, StateFailed, start)
		record.Error = err.Error()
		record.Output = output
		return record
	}

	taskLogger.Info().Msg("✅ Task SUCCEEDED")
	e.setState(task.Name, StateSucceeded)
	record = e.newRecord(task, StateSucceeded, start)
	record.Output = output
	return record
}

func (e *Executor) save(ctx context.Context, record models.TaskRecord, taskLogger zerolog.Logger) {
	if e.sink == nil {
		return
	}
	if err := e.sink.SaveTaskRecord(context.WithoutCancel(ctx), record); err != nil {
		taskLogger.Error().Err(err).Msg("Failed to save task record")
	}
}

func (e *Executor) newRecord(task Task, state TaskState, start time.Time) models.TaskRecord {
	host, _ := os.Hostname()
	finish := time.Now()
	return models.TaskRecord{
		TaskName: task.Name,
		Kind:     task.Kind,
		RunId:    e.run.ID,
		Cmd:      e.run.Cmd,
		Initiator: models.Initiator{
			Type:   "system",
			Id:     "irida-executor",
			Tenant: host,
		},
		Status:     string(state),
		StartTime:  start.Format(time.RFC3339),
		FinishTime: finish.Format(time.RFC3339),
		DurationMs: finish.Sub(start).Milliseconds(),
	}
}

// State returns the current state of a task, or "" if unknown.
func (e *Executor) State(name string) TaskState {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()
	return e.states[name]
}

func (e *Executor) setState(name string, state TaskState) {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	e.states[name] = state

	e.logger.Debug().
		Str("task", name).
		Msgf("State changed to %s", state)
}

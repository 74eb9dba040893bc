package models

import (
	"github.com/google/uuid"
)

type Initiator struct {
	Type   string `json:"type"` // "user" or "system"
	Id     string `json:"id"`
	Tenant string `json:"tenant,omitempty"`
}

// ExecutionSummary holds the overall results of one CLI run.
type ExecutionSummary struct {
	RunId           uuid.UUID     `json:"run_id"`
	RunStartTime    string        `json:"run_start_time"`
	Cmd             string        `json:"cmd"`
	GalaxyURL       string        `json:"galaxy_url"`
	Initiator       Initiator     `json:"initiator"`
	Tasks           []TaskSummary `json:"tasks"`
	OverallStatus   string        `json:"overall_status"` // "Success", "Failed", "Partial"
	TotalDurationMs int64         `json:"total_duration_ms"`
	TasksSucceeded  int           `json:"tasks_succeeded"`
	TasksFailed     int           `json:"tasks_failed"`
	FirstFailure    *TaskSummary  `json:"first_failure,omitempty"`
}

// TaskSummary is the one-line view of a task for summary.json.
type TaskSummary struct {
	TaskName   string `json:"task_name"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	RecordFile string `json:"record_file"`
}

// TaskRecord contains everything known about one task's execution.
type TaskRecord struct {
	TaskName  string    `json:"task_name"`
	Kind      string    `json:"kind"` // "prepare", "upload"
	RunId     uuid.UUID `json:"run_id"`
	Cmd       string    `json:"cmd"`
	Initiator Initiator `json:"initiator"`

	Status     string `json:"status"`
	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`

	Error  string `json:"error,omitempty"`
	Output any    `json:"output,omitempty"`
}

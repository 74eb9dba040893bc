package cmd

import (
	"testing"
	"time"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, status, errMsg string) models.TaskRecord {
	return models.TaskRecord{TaskName: name, Kind: "prepare", Status: status, Error: errMsg}
}

func TestGenerateExecutionSummary(t *testing.T) {
	run := executor.Run{ID: uuid.New(), Cmd: "prepare"}
	succeeded := string(executor.StateSucceeded)
	failed := string(executor.StateFailed)
	skipped := string(executor.StateSkipped)

	tests := []struct {
		name          string
		records       []models.TaskRecord
		wantStatus    string
		wantSucceeded int
		wantFailed    int
		wantFirst     string
	}{
		{
			name:          "All succeeded",
			records:       []models.TaskRecord{record("a", succeeded, ""), record("b", succeeded, "")},
			wantStatus:    "Success",
			wantSucceeded: 2,
		},
		{
			name:          "Some failed",
			records:       []models.TaskRecord{record("a", succeeded, ""), record("b", failed, "boom"), record("c", failed, "bang")},
			wantStatus:    "Partial",
			wantSucceeded: 1,
			wantFailed:    2,
			wantFirst:     "b",
		},
		{
			name:       "All failed",
			records:    []models.TaskRecord{record("a", failed, "boom")},
			wantStatus: "Failed",
			wantFailed: 1,
			wantFirst:  "a",
		},
		{
			name:          "Cancelled",
			records:       []models.TaskRecord{record("a", succeeded, ""), record("b", skipped, "context canceled")},
			wantStatus:    "Partial",
			wantSucceeded: 1,
		},
		{
			name:       "Nothing to do",
			wantStatus: "Skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := generateExecutionSummary(tt.records, run, time.Now(), "http://galaxy", "prefix")

			assert.Equal(t, run.ID, s.RunId)
			assert.Equal(t, "prepare", s.Cmd)
			assert.Equal(t, tt.wantStatus, s.OverallStatus)
			assert.Equal(t, tt.wantSucceeded, s.TasksSucceeded)
			assert.Equal(t, tt.wantFailed, s.TasksFailed)
			require.Len(t, s.Tasks, len(tt.records))

			if tt.wantFirst == "" {
				assert.Nil(t, s.FirstFailure)
				return
			}
			require.NotNil(t, s.FirstFailure)
			assert.Equal(t, tt.wantFirst, s.FirstFailure.TaskName)
		})
	}
}

func TestSummaryRecordFile(t *testing.T) {
	s := generateExecutionSummary(
		[]models.TaskRecord{record("outbreak 1", string(executor.StateSucceeded), "")},
		executor.Run{ID: uuid.New(), Cmd: "prepare"}, time.Now(), "", "20250101T000000_prepare_x")
	assert.Equal(t, "20250101T000000_prepare_x/PREPARE_outbreak_1.json", s.Tasks[0].RecordFile)
}

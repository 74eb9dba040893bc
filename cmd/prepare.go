package cmd

import (
	"fmt"
	"os"

	"github.com/dfornika/irida/internal/config"
	"github.com/dfornika/irida/internal/console"
	"github.com/dfornika/irida/internal/models"
	"github.com/dfornika/irida/internal/orchestrator"
	"github.com/dfornika/irida/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(prepareCmd)
}

var prepareCmd = &cobra.Command{
	Use:   "prepare <manifest>...",
	Short: "Upload submissions to Galaxy and bind them to their workflow inputs",
	Long: `Prepare reads one or more submission manifests and, for each, creates a
Galaxy history, uploads the sequence files and the reference, builds the
per-sample input collection and resolves the workflow inputs they bind to.

Manifests are prepared concurrently (see config.concurrency in irida.yml).
One failed submission does not stop the others. Provenance of every prepared
submission is saved to storage.provenance_db and execution records are
written under storage.records_url (default '.irida/records/').`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		out := newConsole()
		deps := loadDependencies()

		jobs := make([]orchestrator.PrepareJob, 0, len(args))
		for _, manifestPath := range args {
			sub, err := config.LoadManifest(manifestPath)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to load manifest %q: %w", manifestPath, err))
			}
			jobs = append(jobs, orchestrator.PrepareJob{Submission: sub.Submission, Samples: sub.Samples})
		}
		out.Verbose("✓ %d manifest(s) loaded and validated.", len(jobs))

		db, err := deps.openStore()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open provenance store: %w", err))
		}
		defer db.Close()

		rc := beginRun(ctx, "prepare", deps.Config.Storage.RecordsURL)

		orch := orchestrator.New(deps.workspaceClients(), orchestrator.Options{
			Run:         rc.Run,
			Concurrency: deps.Config.Config.Concurrency,
			Records:     rc.Sink,
			Provenance:  db,
		})

		out.StartSpinner(fmt.Sprintf("Preparing %d submission(s)...", len(jobs)))
		records, err := orch.Prepare(ctx, jobs)
		out.StopSpinner()
		if err != nil {
			rc.Logger.Error().Err(err).Msg("Orchestration failed")
			cobra.CheckErr(err)
		}

		summary := rc.finish(ctx, records, deps.Config.Galaxy.URL)

		prepared := reportPrepared(out, records)
		cobra.CheckErr(out.Json(prepared))

		out.Info("Records saved under: %s", rc.Prefix)
		if summary.TasksFailed > 0 {
			db.Close()
			os.Exit(1)
		}
	},
}

// reportPrepared prints one line per record and returns the outputs keyed by
// task name. A task that created its history but failed afterwards is still
// listed, so the history id is never lost.
func reportPrepared(out *console.Console, records []models.TaskRecord) map[string]orchestrator.PrepareOutput {
	prepared := make(map[string]orchestrator.PrepareOutput, len(records))
	for _, record := range records {
		result, ok := record.Output.(orchestrator.PrepareOutput)
		if record.Error != "" {
			if ok && result.Workflow.WorkspaceID != "" {
				prepared[record.TaskName] = result
				out.Error("%s: %s (history %s was created)", record.TaskName, record.Error, result.Workflow.WorkspaceID)
				continue
			}
			out.Error("%s: %s", record.TaskName, record.Error)
			continue
		}
		if !ok {
			continue
		}
		prepared[record.TaskName] = result
		seq, _ := result.Workflow.Input(types.InputSequenceFiles)
		ref, _ := result.Workflow.Input(types.InputReferenceFile)
		out.Info("✓ %s: history %s (collection %s, reference %s, provenance %s)",
			record.TaskName, result.Workflow.WorkspaceID, seq.ID, ref.ID, result.ProvenanceID)
	}
	return prepared
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfornika/irida/internal/config"
	"github.com/dfornika/irida/internal/logging"
	"github.com/dfornika/irida/internal/models"
	"github.com/dfornika/irida/internal/orchestrator"
	"github.com/dfornika/irida/internal/upload"
	"github.com/dfornika/irida/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	uploadLibrary    string
	uploadOwner      string
	uploadBackground bool
)

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadLibrary, "library", "l", "", "Name of the data library to upload into (created if missing)")
	uploadCmd.Flags().StringVarP(&uploadOwner, "owner", "o", "", "Email of the Galaxy account that will own the library")
	uploadCmd.Flags().BoolVar(&uploadBackground, "background", false, "Run uploads on a background worker, logging to a file, and wait with a progress spinner")
	_ = uploadCmd.MarkFlagRequired("library")
	_ = uploadCmd.MarkFlagRequired("owner")
}

var uploadCmd = &cobra.Command{
	Use:   "upload --library <name> --owner <email> <manifest>...",
	Short: "Upload the samples of one or more manifests into a Galaxy data library",
	Long: `Upload places every sample of each manifest into its own folder of a Galaxy
data library. The library is created, and shared with the owner's role, when it
does not exist yet. Files already present in a sample folder are skipped.

Only the samples of a manifest are used; reference and workflow fields may be
omitted. Each manifest is uploaded by its own worker.

With --background, workers run off the command goroutine and log to
'.irida/logs/' while the terminal shows a spinner until every worker is done.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		out := newConsole()
		deps := loadDependencies()

		dest := types.LibraryName(uploadLibrary)
		owner := types.AccountEmail(uploadOwner)
		uploader := upload.NewLibraryUploader(deps.Galaxy)

		jobs := make([]orchestrator.UploadJob, 0, len(args))
		for _, manifestPath := range args {
			samples, err := config.LoadUploadSamples(manifestPath)
			if err != nil {
				cobra.CheckErr(fmt.Errorf("failed to load manifest %q: %w", manifestPath, err))
			}

			worker, err := upload.NewWorker(uploader, samples, dest, owner)
			cobra.CheckErr(err)

			name := strings.TrimSuffix(filepath.Base(manifestPath), filepath.Ext(manifestPath))
			workerLogger := log.With().Str("manifest", manifestPath).Logger()
			cobra.CheckErr(worker.OnSuccess(func(res upload.Result) {
				workerLogger.Info().
					Str("library_id", res.LibraryID).
					Int("folders_added", res.FoldersAdded).
					Int("files_uploaded", res.FilesUploaded).
					Int("files_skipped", res.FilesSkipped).
					Msg("✓ Samples uploaded")
			}))
			cobra.CheckErr(worker.OnFailure(func(err error) {
				workerLogger.Error().Err(err).Msg("❌ Sample upload failed")
			}))

			jobs = append(jobs, orchestrator.UploadJob{Name: name, Worker: worker})
		}

		rc := beginRun(ctx, "upload", deps.Config.Storage.RecordsURL)

		orch := orchestrator.New(deps.workspaceClients(), orchestrator.Options{
			Run:         rc.Run,
			Concurrency: deps.Config.Config.Concurrency,
			Records:     rc.Sink,
		})

		var records []models.TaskRecord
		var err error
		if uploadBackground {
			logFilePath := filepath.Join(".irida", "logs", rc.Prefix+".log")
			closer, logErr := logging.ConfigureGlobalLogger(Verbose, logFilePath)
			if logErr != nil {
				cobra.CheckErr(fmt.Errorf("failed to initialize logging: %w", logErr))
			}
			defer closer.Close()
			out.Info("Logs for run %s will be written to: %s", rc.Run.ID, logFilePath)

			done := make(chan struct{})
			go func() {
				defer close(done)
				records, err = orch.Upload(ctx, jobs)
			}()

			out.StartSpinner(fmt.Sprintf("Uploading %d manifest(s) to %q...", len(jobs), dest))
			<-done
			out.StopSpinner()
		} else {
			records, err = orch.Upload(ctx, jobs)
		}
		if err != nil {
			cobra.CheckErr(err)
		}

		summary := rc.finish(ctx, records, deps.Config.Galaxy.URL)

		results := make(map[string]upload.Result, len(jobs))
		for _, job := range jobs {
			res, ok := job.Worker.Result()
			if !ok {
				out.Error("%s: %v", job.Name, job.Worker.Err())
				continue
			}
			results[job.Name] = res
			verb := "updated"
			if res.NewLibrary {
				verb = "created"
			}
			out.Info("✓ %s: library %q %s (%d uploaded, %d skipped, %d new folders)",
				job.Name, res.LibraryName, verb, res.FilesUploaded, res.FilesSkipped, res.FoldersAdded)
		}
		cobra.CheckErr(out.Json(results))

		if summary.TasksFailed > 0 {
			os.Exit(1)
		}
	},
}

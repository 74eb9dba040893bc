package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dfornika/irida/internal/executor"
	"github.com/dfornika/irida/internal/models"
	"github.com/dfornika/irida/internal/provenance"
	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/internal/workspace"
	"github.com/dfornika/irida/types"
	"github.com/google/uuid"
)

// Tool identities recorded for the steps a preparation runs on the engine.
const (
	UploadToolName       = "upload1"
	UploadToolVersion    = "1.1.0"
	BuildListToolName    = "__BUILD_LIST__"
	BuildListToolVersion = "1.0.0"
)

// PrepareJob is one submission and the lookup that maps its files to samples.
type PrepareJob struct {
	Submission types.Submission
	Samples    workspace.SampleLookup
}

// PrepareOutput is stored as the output of a successful prepare task.
type PrepareOutput struct {
	ProvenanceID string                 `json:"provenance_id,omitempty"`
	Workflow     types.PreparedWorkflow `json:"workflow"`
}

// Prepare runs every job concurrently. A failed job does not stop the
// others; its error is in its task record.
func (o *Orchestrator) Prepare(ctx context.Context, jobs []PrepareJob) ([]models.TaskRecord, error) {
	tasks := make([]executor.Task, 0, len(jobs))
	for _, job := range jobs {
		tasks = append(tasks, executor.Task{
			Name: job.Submission.Name,
			Kind: KindPrepare,
			Run: func(ctx context.Context) (any, error) {
				return o.prepareOne(ctx, job)
			},
		})
	}

	o.logger.Info().Int("submissions", len(jobs)).Msg("Preparing submissions...")
	return o.executor().ExecuteAndWait(ctx, tasks)
}

func (o *Orchestrator) prepareOne(ctx context.Context, job PrepareJob) (any, error) {
	uploads := &recordingUploads{next: o.clients.Uploads}
	clients := o.clients
	if clients.Uploads != nil {
		clients.Uploads = uploads
	}

	preparer, err := workspace.NewPreparer(clients, job.Samples)
	if err != nil {
		return nil, err
	}
	prepared, err := preparer.Prepare(ctx, job.Submission)
	if err != nil {
		return nil, err
	}

	out := PrepareOutput{Workflow: prepared}
	if o.opts.Provenance == nil {
		return out, nil
	}

	g, err := buildGraph(uploads.done(), prepared)
	if err != nil {
		return out, fmt.Errorf("record provenance: %w", err)
	}
	id := uuid.New().String()
	if err := o.opts.Provenance.SaveGraph(ctx, id, job.Submission.Name, g); err != nil {
		return out, fmt.Errorf("save provenance: %w", err)
	}
	out.ProvenanceID = id
	o.logger.Debug().Str("provenance_id", id).Int("steps", g.Len()).Msg("Provenance saved")
	return out, nil
}

// buildGraph records one upload step per dataset and the list build that
// consumed the sequence files.
func buildGraph(uploads []uploadedFile, prepared types.PreparedWorkflow) (*provenance.Graph, error) {
	g := provenance.NewGraph()

	var sequences []provenance.ID
	for _, u := range uploads {
		step, err := g.Add(provenance.Spec{
			ToolName:           UploadToolName,
			ToolVersion:        UploadToolVersion,
			ExecutionManagerID: u.dataset.ID,
			Parameters: map[string]string{
				"file_type": string(u.fileType),
				"file_name": filepath.Base(u.path),
			},
		})
		if err != nil {
			return nil, err
		}
		if u.fileType == types.FileTypeFastqSanger {
			sequences = append(sequences, step.ID())
		}
	}

	collection, ok := prepared.Input(types.InputSequenceFiles)
	if !ok {
		return g, nil
	}
	_, err := g.Add(provenance.Spec{
		ToolName:           BuildListToolName,
		ToolVersion:        BuildListToolVersion,
		ExecutionManagerID: collection.ID,
		Parameters: map[string]string{
			"collection_type": "list",
			"name":            workspace.CollectionName,
		},
	}, sequences...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

type uploadedFile struct {
	path     string
	fileType types.InputFileType
	dataset  remote.Dataset
}

// recordingUploads remembers every successful upload in call order.
type recordingUploads struct {
	next remote.UploadClient

	mu    sync.Mutex
	files []uploadedFile
}

func (r *recordingUploads) Upload(ctx context.Context, path string, fileType types.InputFileType, historyID string) (remote.Dataset, error) {
	ds, err := r.next.Upload(ctx, path, fileType, historyID)
	if err != nil {
		return ds, err
	}
	r.mu.Lock()
	r.files = append(r.files, uploadedFile{path: path, fileType: fileType, dataset: ds})
	r.mu.Unlock()
	return ds, nil
}

func (r *recordingUploads) done() []uploadedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uploadedFile(nil), r.files...)
}

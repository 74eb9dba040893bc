// Package workspace uploads a submission into a fresh remote history and
// resolves the workflow inputs that will consume it.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SampleLookup returns the sample a sequence file belongs to.
type SampleLookup interface {
	SampleForFile(ctx context.Context, file types.SequenceFile) (types.Sample, error)
}

// Clients are the engine operations a Preparer uses.
type Clients struct {
	Histories   remote.HistoryClient
	Uploads     remote.UploadClient
	Collections remote.CollectionClient
	Workflows   remote.WorkflowClient
}

func (c Clients) validate() error {
	var missing []string
	if c.Histories == nil {
		missing = append(missing, "histories")
	}
	if c.Uploads == nil {
		missing = append(missing, "uploads")
	}
	if c.Collections == nil {
		missing = append(missing, "collections")
	}
	if c.Workflows == nil {
		missing = append(missing, "workflows")
	}
	if len(missing) > 0 {
		return errors.New("missing engine clients: " + strings.Join(missing, ", "))
	}
	return nil
}

// CollectionName is the name given to the paired input collection.
const CollectionName = "collection"

// Preparer holds no per-submission state; one instance can prepare many
// submissions concurrently.
type Preparer struct {
	clients Clients
	samples SampleLookup
}

func NewPreparer(clients Clients, samples SampleLookup) (*Preparer, error) {
	if err := clients.validate(); err != nil {
		return nil, err
	}
	if samples == nil {
		return nil, errors.New("sample lookup is nil")
	}
	return &Preparer{clients: clients, samples: samples}, nil
}

// Prepare creates a workspace for sub, uploads its files, builds the
// per-sample input collection and binds both to the workflow's inputs.
// Engine errors are returned as they were received. Nothing is rolled back
// on failure.
func (p *Preparer) Prepare(ctx context.Context, sub types.Submission) (types.PreparedWorkflow, error) {
	if err := validateSubmission(sub); err != nil {
		return types.PreparedWorkflow{}, err
	}

	logger := log.With().
		Str("component", "workspace").
		Str("submission", sub.Name).
		Str("workflow_id", sub.Workflow.WorkflowID).
		Logger()

	history, err := p.clients.Histories.NewHistory(ctx, sub.Name)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}
	logger = logger.With().Str("workspace_id", history.ID).Logger()
	logger.Info().Msg("Created workspace")

	bindings, err := p.uploadSequenceFiles(ctx, logger, sub.InputFiles, history.ID)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}

	refDataset, err := p.clients.Uploads.Upload(ctx, sub.Reference.Path, types.FileTypeFasta, history.ID)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}
	logger.Debug().Str("dataset_id", refDataset.ID).Msg("Uploaded reference")

	if dups := bindings.duplicates(); len(dups) > 0 {
		logger.Error().Strs("samples", dups).Msg("❌ More than one input file per sample")
		return types.PreparedWorkflow{}, &Error{
			Kind:        KindDuplicateSample,
			WorkspaceID: history.ID,
			Samples:     dups,
			Msg:         "more than one input file per sample",
		}
	}

	collection, err := p.clients.Collections.BuildCollection(ctx, bindings.collection(), history.ID)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}

	details, err := p.clients.Workflows.WorkflowDetails(ctx, sub.Workflow.WorkflowID)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}
	seqInput, err := p.clients.Workflows.InputID(details, sub.Workflow.SequenceFilesLabel)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}
	refInput, err := p.clients.Workflows.InputID(details, sub.Workflow.ReferenceFileLabel)
	if err != nil {
		return types.PreparedWorkflow{}, err
	}

	logger.Info().Int("samples", len(bindings.bySample)).Msg("✓ Workspace prepared")

	return types.PreparedWorkflow{
		WorkspaceID: history.ID,
		Inputs: map[string]types.InputBinding{
			types.InputSequenceFiles: {InputID: seqInput, Source: types.SourceCollection, ID: collection.ID},
			types.InputReferenceFile: {InputID: refInput, Source: types.SourceDataset, ID: refDataset.ID},
		},
	}, nil
}

func (p *Preparer) uploadSequenceFiles(ctx context.Context, logger zerolog.Logger, files []types.SequenceFile, historyID string) (*sampleBindings, error) {
	b := newSampleBindings()
	for _, file := range uniqueFiles(files) {
		ds, err := p.clients.Uploads.Upload(ctx, file.Path, types.FileTypeFastqSanger, historyID)
		if err != nil {
			return nil, err
		}
		sample, err := p.samples.SampleForFile(ctx, file)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("file", file.Path).Str("sample", sample.Name).Str("dataset_id", ds.ID).Msg("Uploaded sequence file")
		b.add(sample.Name, ds.ID)
	}
	return b, nil
}

// uniqueFiles drops repeated files and orders the rest by path so uploads
// are deterministic.
func uniqueFiles(files []types.SequenceFile) []types.SequenceFile {
	seen := make(map[types.SequenceFile]bool, len(files))
	out := make([]types.SequenceFile, 0, len(files))
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func validateSubmission(sub types.Submission) error {
	var errs []string
	if len(sub.InputFiles) == 0 {
		errs = append(errs, "at least one input file is required")
	}
	for _, f := range sub.InputFiles {
		if f.Path == "" {
			errs = append(errs, fmt.Sprintf("input file %q has no path", f.ID))
		}
	}
	if sub.Reference.Path == "" {
		errs = append(errs, "reference file is required")
	}
	if sub.Workflow.WorkflowID == "" {
		errs = append(errs, "workflow id is required")
	}
	if sub.Workflow.SequenceFilesLabel == "" {
		errs = append(errs, "sequence files input label is required")
	}
	if sub.Workflow.ReferenceFileLabel == "" {
		errs = append(errs, "reference file input label is required")
	}
	if len(errs) > 0 {
		return &Error{Kind: KindInvalidSubmission, Msg: "\n- " + strings.Join(errs, "\n- ")}
	}
	return nil
}

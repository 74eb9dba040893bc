// Package upload moves sample files into data libraries on the remote engine.
//
// A Worker wraps one blocking upload so it can be run on a separate
// goroutine while the caller keeps working. The worker never starts a
// goroutine itself; callers decide where Execute runs and join it.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dfornika/irida/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidArgument = errors.New("invalid upload argument")

	// ErrAlreadyStarted is returned when a callback is registered, or Execute
	// called again, after execution has begun.
	ErrAlreadyStarted = errors.New("upload worker already started")
)

// Result describes a finished library upload.
type Result struct {
	LibraryID     string             `json:"library_id"`
	LibraryName   types.LibraryName  `json:"library_name"`
	Owner         types.AccountEmail `json:"owner"`
	URL           string             `json:"url,omitempty"`
	NewLibrary    bool               `json:"new_library"`
	FoldersAdded  int                `json:"folders_added"`
	FilesUploaded int                `json:"files_uploaded"`
	FilesSkipped  int                `json:"files_skipped"`
}

// SampleUploader performs one blocking upload of samples into dest for owner.
type SampleUploader interface {
	UploadSamples(ctx context.Context, samples []types.UploadSample, dest types.LibraryName, owner types.AccountEmail) (Result, error)
}

type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
)

// Outcome is the terminal view of a worker.
type Outcome struct {
	State  State
	Result Result
	Err    error
}

type Worker struct {
	uploader SampleUploader
	samples  []types.UploadSample
	dest     types.LibraryName
	owner    types.AccountEmail

	mx        sync.Mutex
	state     State
	result    Result
	err       error
	onSuccess []func(Result)
	onFailure []func(error)

	logger zerolog.Logger
}

// NewWorker validates its arguments; nothing is sent to the engine until Execute.
func NewWorker(uploader SampleUploader, samples []types.UploadSample, dest types.LibraryName, owner types.AccountEmail) (*Worker, error) {
	if uploader == nil {
		return nil, fmt.Errorf("%w: uploader is nil", ErrInvalidArgument)
	}
	if err := dest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := owner.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	return &Worker{
		uploader: uploader,
		samples:  append([]types.UploadSample(nil), samples...),
		dest:     dest,
		owner:    owner,
		state:    StateNotStarted,
		logger: log.With().
			Str("component", "upload-worker").
			Str("library", string(dest)).
			Str("owner", string(owner)).
			Logger(),
	}, nil
}

// OnSuccess registers fn to receive the result. Callbacks run in
// registration order on the goroutine that calls Execute.
func (w *Worker) OnSuccess(fn func(Result)) error {
	if fn == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidArgument)
	}
	w.mx.Lock()
	defer w.mx.Unlock()
	if w.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	w.onSuccess = append(w.onSuccess, fn)
	return nil
}

// OnFailure registers fn to receive the upload error.
func (w *Worker) OnFailure(fn func(error)) error {
	if fn == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidArgument)
	}
	w.mx.Lock()
	defer w.mx.Unlock()
	if w.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	w.onFailure = append(w.onFailure, fn)
	return nil
}

// Execute runs the upload once and dispatches callbacks before returning.
// Upload failures are captured in the Outcome, the returned error only
// reports misuse.
func (w *Worker) Execute(ctx context.Context) (Outcome, error) {
	w.mx.Lock()
	if w.state != StateNotStarted {
		w.mx.Unlock()
		return w.Outcome(), ErrAlreadyStarted
	}
	w.state = StateRunning
	w.mx.Unlock()

	w.logger.Info().Int("samples", len(w.samples)).Msg("Uploading samples...")
	res, err := w.uploader.UploadSamples(ctx, w.samples, w.dest, w.owner)

	w.mx.Lock()
	if err != nil {
		w.state = StateFailed
		w.err = err
	} else {
		w.state = StateSucceeded
		w.result = res
	}
	onSuccess, onFailure := w.onSuccess, w.onFailure
	out := Outcome{State: w.state, Result: w.result, Err: w.err}
	w.mx.Unlock()

	if err != nil {
		w.logger.Error().Err(err).Msg("❌ Upload failed")
		for _, fn := range onFailure {
			fn(err)
		}
		return out, nil
	}

	w.logger.Info().Str("library_id", res.LibraryID).Int("files_uploaded", res.FilesUploaded).Msg("✓ Upload finished")
	for _, fn := range onSuccess {
		fn(res)
	}
	return out, nil
}

func (w *Worker) Outcome() Outcome {
	w.mx.Lock()
	defer w.mx.Unlock()
	return Outcome{State: w.state, Result: w.result, Err: w.err}
}

func (w *Worker) State() State {
	w.mx.Lock()
	defer w.mx.Unlock()
	return w.state
}

// HasFailed reports whether the upload ran and returned an error.
func (w *Worker) HasFailed() bool { return w.State() == StateFailed }

// Result returns the upload result once the worker has succeeded.
func (w *Worker) Result() (Result, bool) {
	w.mx.Lock()
	defer w.mx.Unlock()
	return w.result, w.state == StateSucceeded
}

// Err returns the captured upload error, or nil.
func (w *Worker) Err() error {
	w.mx.Lock()
	defer w.mx.Unlock()
	return w.err
}

func (w *Worker) Destination() types.LibraryName { return w.dest }
func (w *Worker) Owner() types.AccountEmail      { return w.owner }

package upload

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dfornika/irida/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) UploadSamples(ctx context.Context, samples []types.UploadSample, dest types.LibraryName, owner types.AccountEmail) (Result, error) {
	args := m.Called(ctx, samples, dest, owner)
	return args.Get(0).(Result), args.Error(1)
}

var (
	testSamples = []types.UploadSample{{Name: "s1", Files: []string{"/data/s1_R1.fastq"}}}
	testDest    = types.LibraryName("Test")
	testOwner   = types.AccountEmail("admin@localhost")
)

// recorder collects callback invocations.
type recorder struct {
	mx       sync.Mutex
	results  []Result
	errs     []error
	sequence []string
}

func (r *recorder) success(tag string) func(Result) {
	return func(res Result) {
		r.mx.Lock()
		defer r.mx.Unlock()
		r.results = append(r.results, res)
		r.sequence = append(r.sequence, tag)
	}
}

func (r *recorder) failure(tag string) func(error) {
	return func(err error) {
		r.mx.Lock()
		defer r.mx.Unlock()
		r.errs = append(r.errs, err)
		r.sequence = append(r.sequence, tag)
	}
}

func newTestWorker(t *testing.T, up SampleUploader, rec *recorder) *Worker {
	t.Helper()
	w, err := NewWorker(up, testSamples, testDest, testOwner)
	require.NoError(t, err)
	require.NoError(t, w.OnSuccess(rec.success("ok-1")))
	require.NoError(t, w.OnSuccess(rec.success("ok-2")))
	require.NoError(t, w.OnFailure(rec.failure("fail-1")))
	require.NoError(t, w.OnFailure(rec.failure("fail-2")))
	return w
}

// runners execute a worker either inline or on a goroutine that is joined.
var runners = map[string]func(context.Context, *Worker) (Outcome, error){
	"same goroutine": func(ctx context.Context, w *Worker) (Outcome, error) {
		return w.Execute(ctx)
	},
	"separate goroutine": func(ctx context.Context, w *Worker) (Outcome, error) {
		var (
			out Outcome
			err error
			wg  sync.WaitGroup
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err = w.Execute(ctx)
		}()
		wg.Wait()
		return out, err
	},
}

func TestWorkerSuccess(t *testing.T) {
	for name, run := range runners {
		t.Run(name, func(t *testing.T) {
			want := Result{LibraryID: "lib-1", LibraryName: testDest, Owner: testOwner, FilesUploaded: 1}
			up := new(mockUploader)
			up.On("UploadSamples", mock.Anything, testSamples, testDest, testOwner).Return(want, nil).Once()

			rec := &recorder{}
			w := newTestWorker(t, up, rec)
			assert.Equal(t, StateNotStarted, w.State())

			out, err := run(context.Background(), w)
			require.NoError(t, err)

			assert.Equal(t, StateSucceeded, out.State)
			assert.Equal(t, want, out.Result)
			assert.NoError(t, out.Err)

			got, ok := w.Result()
			assert.True(t, ok)
			assert.Equal(t, want, got)
			assert.False(t, w.HasFailed())
			assert.NoError(t, w.Err())

			assert.Equal(t, []Result{want, want}, rec.results)
			assert.Empty(t, rec.errs)
			assert.Equal(t, []string{"ok-1", "ok-2"}, rec.sequence)
			up.AssertExpectations(t)
		})
	}
}

func TestWorkerFailure(t *testing.T) {
	for name, run := range runners {
		t.Run(name, func(t *testing.T) {
			cause := errors.New("upload exploded")
			up := new(mockUploader)
			up.On("UploadSamples", mock.Anything, testSamples, testDest, testOwner).Return(Result{}, cause).Once()

			rec := &recorder{}
			w := newTestWorker(t, up, rec)

			out, err := run(context.Background(), w)
			require.NoError(t, err)

			assert.Equal(t, StateFailed, out.State)
			assert.Same(t, cause, out.Err)
			assert.True(t, w.HasFailed())
			assert.Same(t, cause, w.Err())

			_, ok := w.Result()
			assert.False(t, ok)

			require.Len(t, rec.errs, 2)
			assert.Same(t, cause, rec.errs[0])
			assert.Same(t, cause, rec.errs[1])
			assert.Empty(t, rec.results)
			assert.Equal(t, []string{"fail-1", "fail-2"}, rec.sequence)
			up.AssertExpectations(t)
		})
	}
}

func TestWorkerSingleShot(t *testing.T) {
	up := new(mockUploader)
	up.On("UploadSamples", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(Result{LibraryID: "1"}, nil).Once()

	rec := &recorder{}
	w := newTestWorker(t, up, rec)

	_, err := w.Execute(context.Background())
	require.NoError(t, err)

	out, err := w.Execute(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, StateSucceeded, out.State)

	assert.ErrorIs(t, w.OnSuccess(func(Result) {}), ErrAlreadyStarted)
	assert.ErrorIs(t, w.OnFailure(func(error) {}), ErrAlreadyStarted)

	up.AssertNumberOfCalls(t, "UploadSamples", 1)
	assert.Len(t, rec.results, 2)
}

func TestWorkerWithoutCallbacks(t *testing.T) {
	up := new(mockUploader)
	up.On("UploadSamples", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(Result{}, errors.New("nope"))

	w, err := NewWorker(up, nil, testDest, testOwner)
	require.NoError(t, err)

	out, err := w.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateFailed, out.State)
}

func TestNewWorkerValidation(t *testing.T) {
	up := new(mockUploader)

	tests := []struct {
		name        string
		uploader    SampleUploader
		dest        types.LibraryName
		owner       types.AccountEmail
		errContains string
	}{
		{name: "nil uploader", uploader: nil, dest: testDest, owner: testOwner, errContains: "uploader is nil"},
		{name: "empty destination", uploader: up, dest: " ", owner: testOwner, errContains: "library name is empty"},
		{name: "empty owner", uploader: up, dest: testDest, owner: "", errContains: "account email is empty"},
		{name: "malformed owner", uploader: up, dest: testDest, owner: "admin", errContains: "not a valid address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWorker(tt.uploader, testSamples, tt.dest, tt.owner)
			assert.Nil(t, w)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
	up.AssertNotCalled(t, "UploadSamples", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	t.Run("nil callback", func(t *testing.T) {
		w, err := NewWorker(up, testSamples, testDest, testOwner)
		require.NoError(t, err)
		assert.ErrorIs(t, w.OnSuccess(nil), ErrInvalidArgument)
		assert.ErrorIs(t, w.OnFailure(nil), ErrInvalidArgument)
	})
}

package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/internal/remote/remotetest"
	"github.com/dfornika/irida/internal/resolver"
	"github.com/dfornika/irida/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func directoryWithOwner() *remotetest.Engine {
	eng := new(remotetest.Engine)
	eng.On("Users", mock.Anything).Return([]remote.User{{ID: "u1", Email: "admin@localhost"}}, nil)
	eng.On("Roles", mock.Anything).Return([]remote.Role{{ID: "r1", Name: "admin@localhost"}}, nil)
	return eng
}

func TestLibraryUploaderNewLibrary(t *testing.T) {
	ctx := context.Background()
	eng := directoryWithOwner()
	eng.On("Libraries", mock.Anything).Return([]remote.Library{}, nil)
	eng.On("CreateLibrary", mock.Anything, "Test").Return(remote.Library{ID: "L1", Name: "Test", URL: "/api/libraries/L1"}, nil)
	eng.On("SetLibraryPermissions", mock.Anything, "L1", "r1").Return(nil)
	eng.On("LibraryContents", mock.Anything, "L1").Return([]remote.LibraryContent{
		{ID: "F0", Name: "/", Type: remote.ContentFolder},
	}, nil)
	eng.On("CreateFolder", mock.Anything, "L1", "F0", "s1").Return(remote.LibraryContent{ID: "F1", Name: "/s1", Type: remote.ContentFolder}, nil)
	eng.On("UploadToFolder", mock.Anything, "L1", "F1", "/data/s1_R1.fastq", types.FileTypeFastqSanger).
		Return(remote.LibraryContent{ID: "D1", Name: "/s1/s1_R1.fastq", Type: remote.ContentFile}, nil)
	eng.On("UploadToFolder", mock.Anything, "L1", "F1", "/data/s1_R2.fastq", types.FileTypeFastqSanger).
		Return(remote.LibraryContent{ID: "D2", Name: "/s1/s1_R2.fastq", Type: remote.ContentFile}, nil)

	samples := []types.UploadSample{{Name: "s1", Files: []string{"/data/s1_R1.fastq", "/data/s1_R2.fastq"}}}
	res, err := NewLibraryUploader(eng).UploadSamples(ctx, samples, "Test", testOwner)
	require.NoError(t, err)

	assert.Equal(t, Result{
		LibraryID:     "L1",
		LibraryName:   "Test",
		Owner:         testOwner,
		URL:           "/api/libraries/L1",
		NewLibrary:    true,
		FoldersAdded:  1,
		FilesUploaded: 2,
	}, res)
	eng.AssertExpectations(t)
}

func TestLibraryUploaderExistingContent(t *testing.T) {
	ctx := context.Background()
	eng := directoryWithOwner()
	eng.On("Libraries", mock.Anything).Return([]remote.Library{{ID: "L1", Name: "Test"}, {ID: "L2", Name: "Test"}}, nil)
	eng.On("LibraryContents", mock.Anything, "L1").Return([]remote.LibraryContent{
		{ID: "F0", Name: "/", Type: remote.ContentFolder},
		{ID: "F1", Name: "/s1", Type: remote.ContentFolder},
		{ID: "D1", Name: "/s1/s1_R1.fastq", Type: remote.ContentFile},
	}, nil)
	eng.On("UploadToFolder", mock.Anything, "L1", "F1", "/data/s1_R2.fastq", types.FileTypeFastqSanger).
		Return(remote.LibraryContent{ID: "D2", Name: "/s1/s1_R2.fastq"}, nil)

	samples := []types.UploadSample{{Name: "s1", Files: []string{"/data/s1_R1.fastq", "/data/s1_R2.fastq"}}}
	res, err := NewLibraryUploader(eng).UploadSamples(ctx, samples, "Test", testOwner)
	require.NoError(t, err)

	assert.False(t, res.NewLibrary)
	assert.Equal(t, 0, res.FoldersAdded)
	assert.Equal(t, 1, res.FilesUploaded)
	assert.Equal(t, 1, res.FilesSkipped)
	eng.AssertNotCalled(t, "CreateLibrary", mock.Anything, mock.Anything)
	eng.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLibraryUploaderFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown owner", func(t *testing.T) {
		eng := new(remotetest.Engine)
		eng.On("Users", mock.Anything).Return([]remote.User{}, nil)

		_, err := NewLibraryUploader(eng).UploadSamples(ctx, testSamples, testDest, testOwner)
		assert.ErrorIs(t, err, resolver.ErrUserNotFound)
		eng.AssertNotCalled(t, "Libraries", mock.Anything)
	})

	t.Run("owner without role", func(t *testing.T) {
		eng := new(remotetest.Engine)
		eng.On("Users", mock.Anything).Return([]remote.User{{ID: "u1", Email: "admin@localhost"}}, nil)
		eng.On("Roles", mock.Anything).Return([]remote.Role{}, nil)

		_, err := NewLibraryUploader(eng).UploadSamples(ctx, testSamples, testDest, testOwner)
		assert.ErrorIs(t, err, resolver.ErrNoRoleFound)
	})

	t.Run("file transfer failure", func(t *testing.T) {
		cause := errors.New("disk quota exceeded")
		eng := directoryWithOwner()
		eng.On("Libraries", mock.Anything).Return([]remote.Library{{ID: "L1", Name: "Test"}}, nil)
		eng.On("LibraryContents", mock.Anything, "L1").Return([]remote.LibraryContent{
			{ID: "F0", Name: "/", Type: remote.ContentFolder},
			{ID: "F1", Name: "/s1", Type: remote.ContentFolder},
		}, nil)
		eng.On("UploadToFolder", mock.Anything, "L1", "F1", "/data/s1_R1.fastq", types.FileTypeFastqSanger).Return(remote.LibraryContent{}, cause)

		res, err := NewLibraryUploader(eng).UploadSamples(ctx, testSamples, testDest, testOwner)
		var ue *remote.UploadError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "/data/s1_R1.fastq", ue.Path)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "L1", res.LibraryID)
	})

	t.Run("root folder missing", func(t *testing.T) {
		eng := directoryWithOwner()
		eng.On("Libraries", mock.Anything).Return([]remote.Library{{ID: "L1", Name: "Test"}}, nil)
		eng.On("LibraryContents", mock.Anything, "L1").Return([]remote.LibraryContent{}, nil)

		_, err := NewLibraryUploader(eng).UploadSamples(ctx, testSamples, testDest, testOwner)
		assert.ErrorIs(t, err, ErrRootFolderMissing)
		eng.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("files share a basename", func(t *testing.T) {
		eng := new(remotetest.Engine)
		samples := []types.UploadSample{{Name: "s1", Files: []string{"/run1/s1.fastq", "/run2/s1.fastq"}}}

		_, err := NewLibraryUploader(eng).UploadSamples(ctx, samples, testDest, testOwner)
		assert.ErrorIs(t, err, ErrTargetCollision)
		assert.ErrorContains(t, err, "/run2/s1.fastq")
		eng.AssertNotCalled(t, "Users", mock.Anything)
	})
}

// memoryLibraries is an engine whose libraries persist between calls.
type memoryLibraries struct {
	mx       sync.Mutex
	libs     []remote.Library
	contents map[string][]remote.LibraryContent
	created  int
}

func (m *memoryLibraries) Users(context.Context) ([]remote.User, error) {
	return []remote.User{{ID: "u1", Email: string(testOwner)}}, nil
}

func (m *memoryLibraries) Roles(context.Context) ([]remote.Role, error) {
	return []remote.Role{{ID: "r1", Name: string(testOwner)}}, nil
}

func (m *memoryLibraries) Libraries(context.Context) ([]remote.Library, error) {
	// Listing is slow enough for two callers to overlap.
	time.Sleep(20 * time.Millisecond)
	m.mx.Lock()
	defer m.mx.Unlock()
	return append([]remote.Library(nil), m.libs...), nil
}

func (m *memoryLibraries) LibraryContents(_ context.Context, libraryID string) ([]remote.LibraryContent, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	c, ok := m.contents[libraryID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return append([]remote.LibraryContent(nil), c...), nil
}

func (m *memoryLibraries) CreateLibrary(_ context.Context, name string) (remote.Library, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.created++
	lib := remote.Library{ID: fmt.Sprintf("L%d", m.created), Name: name}
	m.libs = append(m.libs, lib)
	m.contents[lib.ID] = []remote.LibraryContent{{ID: lib.ID + "-root", Name: "/", Type: remote.ContentFolder}}
	return lib, nil
}

func (m *memoryLibraries) CreateFolder(_ context.Context, libraryID, _, name string) (remote.LibraryContent, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	f := remote.LibraryContent{ID: libraryID + "-" + name, Name: "/" + name, Type: remote.ContentFolder}
	m.contents[libraryID] = append(m.contents[libraryID], f)
	return f, nil
}

func (m *memoryLibraries) UploadToFolder(_ context.Context, libraryID, folderID, file string, _ types.InputFileType) (remote.LibraryContent, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	c := remote.LibraryContent{ID: folderID + "-" + filepath.Base(file), Name: file, Type: remote.ContentFile}
	m.contents[libraryID] = append(m.contents[libraryID], c)
	return c, nil
}

func (m *memoryLibraries) SetLibraryPermissions(context.Context, string, string) error { return nil }

func TestLibraryUploaderConcurrentWorkersShareNewLibrary(t *testing.T) {
	ctx := context.Background()
	eng := &memoryLibraries{contents: map[string][]remote.LibraryContent{}}
	up := NewLibraryUploader(eng)

	var workers []*Worker
	for _, name := range []string{"s1", "s2"} {
		w, err := NewWorker(up, []types.UploadSample{{Name: name, Files: []string{"/data/" + name + ".fastq"}}}, "Lib", testOwner)
		require.NoError(t, err)
		workers = append(workers, w)
	}

	var wg sync.WaitGroup
	outcomes := make([]Outcome, len(workers))
	for i, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], _ = w.Execute(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, eng.created)
	require.Len(t, eng.libs, 1)

	newLibraries := 0
	for _, out := range outcomes {
		require.Equal(t, StateSucceeded, out.State)
		assert.Equal(t, eng.libs[0].ID, out.Result.LibraryID)
		assert.Equal(t, 1, out.Result.FilesUploaded)
		if out.Result.NewLibrary {
			newLibraries++
		}
	}
	assert.Equal(t, 1, newLibraries)
}

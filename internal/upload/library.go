package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/internal/resolver"
	"github.com/dfornika/irida/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRootFolderMissing is returned when a library listing has no "/" entry.
	ErrRootFolderMissing = errors.New("library has no root folder")

	// ErrTargetCollision is returned when two files of one sample would land
	// on the same library path.
	ErrTargetCollision = errors.New("files share a library path")
)

// LibraryClient is what LibraryUploader needs from the engine.
type LibraryClient interface {
	remote.DirectoryClient
	remote.LibraryClient
}

// LibraryUploader places each sample in its own folder of a data library,
// creating the library for the owner when it does not exist yet. Files
// already present at their target path are skipped.
//
// Uploads aimed at the same library name run one at a time, so concurrent
// workers sharing an uploader never create a library or folder twice.
type LibraryUploader struct {
	client   LibraryClient
	resolver *resolver.Resolver
	logger   zerolog.Logger

	mx    sync.Mutex
	locks map[types.LibraryName]*sync.Mutex
}

var _ SampleUploader = (*LibraryUploader)(nil)

func NewLibraryUploader(client LibraryClient) *LibraryUploader {
	return &LibraryUploader{
		client:   client,
		resolver: resolver.New(client),
		logger:   log.With().Str("component", "library-uploader").Logger(),
		locks:    make(map[types.LibraryName]*sync.Mutex),
	}
}

func (u *LibraryUploader) lockFor(dest types.LibraryName) *sync.Mutex {
	u.mx.Lock()
	defer u.mx.Unlock()
	l, ok := u.locks[dest]
	if !ok {
		l = &sync.Mutex{}
		u.locks[dest] = l
	}
	return l
}

func (u *LibraryUploader) UploadSamples(ctx context.Context, samples []types.UploadSample, dest types.LibraryName, owner types.AccountEmail) (Result, error) {
	res := Result{LibraryName: dest, Owner: owner}

	if err := checkTargets(samples); err != nil {
		return res, err
	}

	if _, err := u.resolver.FindUserByEmail(ctx, owner); err != nil {
		return res, fmt.Errorf("resolve owner %s: %w", owner, err)
	}
	role, err := u.resolver.FindRoleByEmail(ctx, owner)
	if err != nil {
		return res, fmt.Errorf("resolve role of %s: %w", owner, err)
	}

	lock := u.lockFor(dest)
	lock.Lock()
	defer lock.Unlock()

	lib, created, err := u.findOrCreateLibrary(ctx, dest, role)
	if err != nil {
		return res, err
	}
	res.LibraryID = lib.ID
	res.URL = lib.URL
	res.NewLibrary = created

	contents, err := u.resolver.LibraryContentByName(ctx, lib.ID)
	if err != nil {
		return res, fmt.Errorf("list library %s: %w", lib.ID, err)
	}
	root, ok := contents["/"]
	if !ok || root.ID == "" {
		return res, fmt.Errorf("%w: %s", ErrRootFolderMissing, lib.ID)
	}

	for _, sample := range samples {
		sampleLogger := u.logger.With().Str("sample", sample.Name).Logger()
		folderPath := "/" + sample.Name

		folder, ok := contents[folderPath]
		if !ok || folder.Type != remote.ContentFolder {
			folder, err = u.client.CreateFolder(ctx, lib.ID, root.ID, sample.Name)
			if err != nil {
				return res, fmt.Errorf("create folder %s in library %s: %w", folderPath, lib.ID, err)
			}
			contents[folderPath] = folder
			res.FoldersAdded++
			sampleLogger.Debug().Str("folder_id", folder.ID).Msg("Created sample folder")
		}

		for _, file := range sample.Files {
			target := path.Join(folderPath, filepath.Base(file))
			if _, exists := contents[target]; exists {
				sampleLogger.Debug().Str("file", target).Msg("File already in library, skipping")
				res.FilesSkipped++
				continue
			}
			content, err := u.client.UploadToFolder(ctx, lib.ID, folder.ID, file, types.DetectFileType(file))
			if err != nil {
				return res, &remote.UploadError{Path: file, Err: err}
			}
			contents[target] = content
			res.FilesUploaded++
		}
	}

	u.logger.Info().
		Str("library_id", lib.ID).
		Int("files_uploaded", res.FilesUploaded).
		Int("files_skipped", res.FilesSkipped).
		Msgf("✓ Uploaded %d sample(s) to library %q", len(samples), dest)
	return res, nil
}

// checkTargets rejects samples whose files would share a folder entry.
func checkTargets(samples []types.UploadSample) error {
	for _, sample := range samples {
		seen := make(map[string]string, len(sample.Files))
		for _, file := range sample.Files {
			base := filepath.Base(file)
			if prev, dup := seen[base]; dup {
				return fmt.Errorf("%w: sample %q: %s and %s", ErrTargetCollision, sample.Name, prev, file)
			}
			seen[base] = file
		}
	}
	return nil
}

// findOrCreateLibrary reuses the first library named dest. A new library is
// shared with role only.
func (u *LibraryUploader) findOrCreateLibrary(ctx context.Context, dest types.LibraryName, role remote.Role) (remote.Library, bool, error) {
	libs, err := u.resolver.FindLibrariesByName(ctx, dest)
	if err == nil {
		return libs[0], false, nil
	}
	if !errors.Is(err, resolver.ErrNoLibraryFound) {
		return remote.Library{}, false, fmt.Errorf("find library %q: %w", dest, err)
	}

	lib, err := u.client.CreateLibrary(ctx, string(dest))
	if err != nil {
		return remote.Library{}, false, fmt.Errorf("create library %q: %w", dest, err)
	}
	if err := u.client.SetLibraryPermissions(ctx, lib.ID, role.ID); err != nil {
		return remote.Library{}, false, fmt.Errorf("set permissions on library %s: %w", lib.ID, err)
	}
	u.logger.Info().Str("library_id", lib.ID).Msgf("Created library %q", dest)
	return lib, true, nil
}

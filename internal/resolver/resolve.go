// Package resolver looks up users, roles, libraries and library folders on
// the remote engine. Nothing is cached: each call lists the directory again
// and scans the result for an exact match.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Resolver struct {
	dir    remote.DirectoryClient
	logger zerolog.Logger
}

func New(dir remote.DirectoryClient) *Resolver {
	if dir == nil {
		panic("resolver: nil directory client")
	}
	return &Resolver{
		dir:    dir,
		logger: log.With().Str("component", "resolver").Logger(),
	}
}

// FindRoleByEmail returns the first role whose name equals email.
func (r *Resolver) FindRoleByEmail(ctx context.Context, email types.AccountEmail) (remote.Role, error) {
	if err := email.Validate(); err != nil {
		return remote.Role{}, &Error{Kind: KindInvalidArgument, Msg: "find role", Err: err}
	}

	roles, err := r.dir.Roles(ctx)
	if err != nil {
		return remote.Role{}, err
	}
	for _, role := range roles {
		if role.Name == string(email) {
			return role, nil
		}
	}
	return remote.Role{}, newError(KindNoRoleFound, "no role exists for user %s", email)
}

// FindUserByEmail returns the first user whose email equals email.
func (r *Resolver) FindUserByEmail(ctx context.Context, email types.AccountEmail) (remote.User, error) {
	if err := email.Validate(); err != nil {
		return remote.User{}, &Error{Kind: KindInvalidArgument, Msg: "find user", Err: err}
	}

	users, err := r.dir.Users(ctx)
	if err != nil {
		return remote.User{}, err
	}
	for _, user := range users {
		if user.Email == string(email) {
			return user, nil
		}
	}
	return remote.User{}, newError(KindUserNotFound, "user %s not found", email)
}

// UserExists reports whether FindUserByEmail would succeed. Lookup errors
// are logged and reported as absence.
func (r *Resolver) UserExists(ctx context.Context, email types.AccountEmail) bool {
	_, err := r.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		r.logger.Debug().Err(err).Str("email", string(email)).Msg("User lookup failed, treating as absent")
	}
	return err == nil
}

// FindLibraryByID returns the first library with the given id. Ids are
// expected to be unique; when the directory reports duplicates the earliest
// listed one wins.
func (r *Resolver) FindLibraryByID(ctx context.Context, libraryID string) (remote.Library, error) {
	if strings.TrimSpace(libraryID) == "" {
		return remote.Library{}, newError(KindInvalidArgument, "library id is empty")
	}

	libs, err := r.dir.Libraries(ctx)
	if err != nil {
		return remote.Library{}, err
	}
	for _, lib := range libs {
		if lib.ID == libraryID {
			return lib, nil
		}
	}
	return remote.Library{}, newError(KindNoLibraryFound, "no library found with id %s", libraryID)
}

// FindLibrariesByName returns every library named name, in directory order.
func (r *Resolver) FindLibrariesByName(ctx context.Context, name types.LibraryName) ([]remote.Library, error) {
	if err := name.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Msg: "find libraries", Err: err}
	}

	libs, err := r.dir.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	var matches []remote.Library
	for _, lib := range libs {
		if lib.Name == string(name) {
			matches = append(matches, lib)
		}
	}
	if len(matches) == 0 {
		return nil, newError(KindNoLibraryFound, "no library found with name %s", name)
	}
	return matches, nil
}

// LibraryContentByName indexes the contents of a library by name. An
// existing but empty library yields an empty map.
func (r *Resolver) LibraryContentByName(ctx context.Context, libraryID string) (map[string]remote.LibraryContent, error) {
	contents, err := r.libraryContents(ctx, libraryID, KindNoLibraryFound)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]remote.LibraryContent, len(contents))
	for _, c := range contents {
		byName[c.Name] = c
	}
	return byName, nil
}

// FindFolderByPath returns the first folder in the library whose name is
// exactly path. Files with a matching name are ignored.
func (r *Resolver) FindFolderByPath(ctx context.Context, libraryID, path string) (remote.LibraryContent, error) {
	if path == "" {
		return remote.LibraryContent{}, newError(KindInvalidArgument, "folder path is empty")
	}

	contents, err := r.libraryContents(ctx, libraryID, KindNoContentFound)
	if err != nil {
		return remote.LibraryContent{}, err
	}
	for _, c := range contents {
		if c.Type == remote.ContentFolder && c.Name == path {
			return c, nil
		}
	}
	return remote.LibraryContent{}, newError(KindNoContentFound, "no library content found for library %s, folder %s", libraryID, path)
}

// libraryContents lists a library, reporting an unknown library as missing.
func (r *Resolver) libraryContents(ctx context.Context, libraryID string, missing Kind) ([]remote.LibraryContent, error) {
	if strings.TrimSpace(libraryID) == "" {
		return nil, newError(KindInvalidArgument, "library id is empty")
	}

	contents, err := r.dir.LibraryContents(ctx, libraryID)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, &Error{Kind: missing, Msg: "no library found with id " + libraryID, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return contents, nil
}

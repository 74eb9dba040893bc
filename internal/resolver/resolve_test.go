package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/internal/remote/remotetest"
	"github.com/dfornika/irida/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminEmail = types.AccountEmail("admin@localhost")

func TestFindRoleByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("match", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Roles", mock.Anything).Return([]remote.Role{
			{ID: "r1", Name: "other@localhost"},
			{ID: "r2", Name: "admin@localhost"},
		}, nil)

		role, err := New(dir).FindRoleByEmail(ctx, adminEmail)
		require.NoError(t, err)
		assert.Equal(t, "r2", role.ID)
		dir.AssertExpectations(t)
	})

	t.Run("no match", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Roles", mock.Anything).Return([]remote.Role{{ID: "r1", Name: "other@localhost"}}, nil)

		_, err := New(dir).FindRoleByEmail(ctx, adminEmail)
		assert.ErrorIs(t, err, ErrNoRoleFound)
	})

	t.Run("invalid email makes no remote call", func(t *testing.T) {
		dir := new(remotetest.Engine)

		_, err := New(dir).FindRoleByEmail(ctx, "not-an-email")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		dir.AssertNotCalled(t, "Roles", mock.Anything)
	})
}

func TestFindUserByEmail(t *testing.T) {
	ctx := context.Background()
	users := []remote.User{
		{ID: "u1", Email: "a@example.org"},
		{ID: "u2", Email: "admin@localhost"},
		{ID: "u3", Email: "admin@localhost"},
	}

	tests := []struct {
		name     string
		email    types.AccountEmail
		wantID   string
		wantKind error
	}{
		{name: "first match wins", email: adminEmail, wantID: "u2"},
		{name: "exact equality only", email: "ADMIN@localhost", wantKind: ErrUserNotFound},
		{name: "absent", email: "b@example.org", wantKind: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(remotetest.Engine)
			dir.On("Users", mock.Anything).Return(users, nil)

			user, err := New(dir).FindUserByEmail(ctx, tt.email)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestUserExists(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Users", mock.Anything).Return([]remote.User{{ID: "u1", Email: "admin@localhost"}}, nil)
		assert.True(t, New(dir).UserExists(ctx, adminEmail))
	})

	t.Run("absent", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Users", mock.Anything).Return([]remote.User{}, nil)
		assert.False(t, New(dir).UserExists(ctx, adminEmail))
	})

	t.Run("directory failure is absence", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Users", mock.Anything).Return(nil, errors.New("boom"))
		assert.False(t, New(dir).UserExists(ctx, adminEmail))
	})
}

func TestFindLibraryByID(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate ids resolve to the first listed", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Libraries", mock.Anything).Return([]remote.Library{
			{ID: "1", Name: "first"},
			{ID: "2", Name: "other"},
			{ID: "1", Name: "second"},
		}, nil)

		lib, err := New(dir).FindLibraryByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "first", lib.Name)
	})

	t.Run("missing", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("Libraries", mock.Anything).Return([]remote.Library{{ID: "2"}}, nil)

		_, err := New(dir).FindLibraryByID(ctx, "1")
		assert.ErrorIs(t, err, ErrNoLibraryFound)
	})

	t.Run("directory errors propagate unmodified", func(t *testing.T) {
		cause := errors.New("connection refused")
		dir := new(remotetest.Engine)
		dir.On("Libraries", mock.Anything).Return(nil, cause)

		_, err := New(dir).FindLibraryByID(ctx, "1")
		assert.Same(t, cause, err)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := New(new(remotetest.Engine)).FindLibraryByID(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestFindLibrariesByName(t *testing.T) {
	ctx := context.Background()
	dir := new(remotetest.Engine)
	dir.On("Libraries", mock.Anything).Return([]remote.Library{
		{ID: "1", Name: "reads"},
		{ID: "2", Name: "Reads"},
		{ID: "3", Name: "reads"},
	}, nil)
	r := New(dir)

	libs, err := r.FindLibrariesByName(ctx, "reads")
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "1", libs[0].ID)
	assert.Equal(t, "3", libs[1].ID)

	_, err = r.FindLibrariesByName(ctx, "assemblies")
	assert.ErrorIs(t, err, ErrNoLibraryFound)
}

func TestLibraryContentByName(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes by name", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("LibraryContents", mock.Anything, "1").Return([]remote.LibraryContent{
			{ID: "f1", Name: "/", Type: remote.ContentFolder},
			{ID: "f2", Name: "/s1", Type: remote.ContentFolder},
			{ID: "d1", Name: "/s1/a.fastq", Type: remote.ContentFile},
		}, nil)

		m, err := New(dir).LibraryContentByName(ctx, "1")
		require.NoError(t, err)
		assert.Len(t, m, 3)
		assert.Equal(t, "d1", m["/s1/a.fastq"].ID)
	})

	t.Run("empty library is an empty map", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("LibraryContents", mock.Anything, "1").Return([]remote.LibraryContent{}, nil)

		m, err := New(dir).LibraryContentByName(ctx, "1")
		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("unknown library", func(t *testing.T) {
		dir := new(remotetest.Engine)
		dir.On("LibraryContents", mock.Anything, "9").Return(nil, fmt.Errorf("library 9: %w", remote.ErrNotFound))

		_, err := New(dir).LibraryContentByName(ctx, "9")
		assert.ErrorIs(t, err, ErrNoLibraryFound)
		assert.ErrorIs(t, err, remote.ErrNotFound)
	})
}

func TestFindFolderByPath(t *testing.T) {
	ctx := context.Background()
	contents := []remote.LibraryContent{
		{ID: "d1", Name: "/s1", Type: remote.ContentFile},
		{ID: "f1", Name: "/s1", Type: remote.ContentFolder},
		{ID: "f2", Name: "/s1", Type: remote.ContentFolder},
	}

	tests := []struct {
		name        string
		path        string
		wantID      string
		shouldError bool
		errIs       error
	}{
		{name: "first folder match, files skipped", path: "/s1", wantID: "f1"},
		{name: "no folder", path: "/s2", shouldError: true, errIs: ErrNoContentFound},
		{name: "empty path", path: "", shouldError: true, errIs: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(remotetest.Engine)
			dir.On("LibraryContents", mock.Anything, "1").Return(contents, nil)

			folder, err := New(dir).FindFolderByPath(ctx, "1", tt.path)
			if tt.shouldError {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, folder.ID)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := error(newError(KindNoRoleFound, "no role exists for user %s", adminEmail))

	assert.ErrorIs(t, err, ErrNoRoleFound)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindNoRoleFound, re.Kind)
	assert.Contains(t, err.Error(), "admin@localhost")
}

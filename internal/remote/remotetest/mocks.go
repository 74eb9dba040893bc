// Package remotetest provides testify mocks of the remote engine contracts.
package remotetest

import (
	"context"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
	"github.com/stretchr/testify/mock"
)

// Engine mocks every client interface in package remote.
type Engine struct {
	mock.Mock
}

var _ remote.Engine = (*Engine)(nil)

func (m *Engine) NewHistory(ctx context.Context, name string) (remote.History, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(remote.History), args.Error(1)
}

func (m *Engine) Upload(ctx context.Context, path string, fileType types.InputFileType, historyID string) (remote.Dataset, error) {
	args := m.Called(ctx, path, fileType, historyID)
	return args.Get(0).(remote.Dataset), args.Error(1)
}

func (m *Engine) BuildCollection(ctx context.Context, desc remote.CollectionDescription, historyID string) (remote.Collection, error) {
	args := m.Called(ctx, desc, historyID)
	return args.Get(0).(remote.Collection), args.Error(1)
}

func (m *Engine) WorkflowDetails(ctx context.Context, workflowID string) (remote.WorkflowDetails, error) {
	args := m.Called(ctx, workflowID)
	return args.Get(0).(remote.WorkflowDetails), args.Error(1)
}

func (m *Engine) InputID(details remote.WorkflowDetails, label string) (string, error) {
	args := m.Called(details, label)
	return args.String(0), args.Error(1)
}

func (m *Engine) Roles(ctx context.Context) ([]remote.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]remote.Role)
	return roles, args.Error(1)
}

func (m *Engine) Users(ctx context.Context) ([]remote.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]remote.User)
	return users, args.Error(1)
}

func (m *Engine) Libraries(ctx context.Context) ([]remote.Library, error) {
	args := m.Called(ctx)
	libs, _ := args.Get(0).([]remote.Library)
	return libs, args.Error(1)
}

func (m *Engine) LibraryContents(ctx context.Context, libraryID string) ([]remote.LibraryContent, error) {
	args := m.Called(ctx, libraryID)
	contents, _ := args.Get(0).([]remote.LibraryContent)
	return contents, args.Error(1)
}

func (m *Engine) CreateLibrary(ctx context.Context, name string) (remote.Library, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(remote.Library), args.Error(1)
}

func (m *Engine) CreateFolder(ctx context.Context, libraryID, parentFolderID, name string) (remote.LibraryContent, error) {
	args := m.Called(ctx, libraryID, parentFolderID, name)
	return args.Get(0).(remote.LibraryContent), args.Error(1)
}

func (m *Engine) UploadToFolder(ctx context.Context, libraryID, folderID, path string, fileType types.InputFileType) (remote.LibraryContent, error) {
	args := m.Called(ctx, libraryID, folderID, path, fileType)
	return args.Get(0).(remote.LibraryContent), args.Error(1)
}

func (m *Engine) SetLibraryPermissions(ctx context.Context, libraryID, roleID string) error {
	args := m.Called(ctx, libraryID, roleID)
	return args.Error(0)
}

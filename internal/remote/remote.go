// Package remote defines the contracts of the workflow-execution engine that
// the orchestration core talks to. Implementations live in internal/galaxy;
// tests substitute mocks.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/dfornika/irida/types"
)

var (
	// ErrNotFound is returned when the addressed remote entity does not exist.
	ErrNotFound = errors.New("remote entity not found")

	// ErrUnknownLabel is returned by InputID when no workflow step carries the label.
	ErrUnknownLabel = errors.New("no workflow input with label")
)

type History struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Dataset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	HistoryID string `json:"history_id,omitempty"`
	FileType  string `json:"file_ext,omitempty"`
}

type Collection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CollectionType string `json:"collection_type"`
}

// CollectionElement names one dataset inside a collection.
type CollectionElement struct {
	Name string `json:"name"`
	Src  string `json:"src"`
	ID   string `json:"id"`
}

type CollectionDescription struct {
	Name           string              `json:"name"`
	CollectionType string              `json:"collection_type"`
	Elements       []CollectionElement `json:"element_identifiers"`
}

// WorkflowInput is one input step of a workflow.
type WorkflowInput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type WorkflowDetails struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Inputs []WorkflowInput `json:"inputs"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

type Library struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

const (
	ContentFolder = "folder"
	ContentFile   = "file"
)

// LibraryContent is a file or folder inside a data library. Names are
// library-absolute paths such as "/sample1" or "/sample1/reads.fastq".
type LibraryContent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type HistoryClient interface {
	NewHistory(ctx context.Context, name string) (History, error)
}

type UploadClient interface {
	// Upload transfers a local file into a history. Failures are *UploadError.
	Upload(ctx context.Context, path string, fileType types.InputFileType, historyID string) (Dataset, error)
}

type CollectionClient interface {
	BuildCollection(ctx context.Context, desc CollectionDescription, historyID string) (Collection, error)
}

type WorkflowClient interface {
	WorkflowDetails(ctx context.Context, workflowID string) (WorkflowDetails, error)
	InputID(details WorkflowDetails, label string) (string, error)
}

// DirectoryClient lists the entities known to the engine.
type DirectoryClient interface {
	Roles(ctx context.Context) ([]Role, error)
	Users(ctx context.Context) ([]User, error)
	Libraries(ctx context.Context) ([]Library, error)
	// LibraryContents returns ErrNotFound when the library does not exist.
	LibraryContents(ctx context.Context, libraryID string) ([]LibraryContent, error)
}

// LibraryClient mutates data libraries.
type LibraryClient interface {
	CreateLibrary(ctx context.Context, name string) (Library, error)
	CreateFolder(ctx context.Context, libraryID, parentFolderID, name string) (LibraryContent, error)
	UploadToFolder(ctx context.Context, libraryID, folderID, path string, fileType types.InputFileType) (LibraryContent, error)
	SetLibraryPermissions(ctx context.Context, libraryID, roleID string) error
}

// Engine bundles every capability of a full engine client.
type Engine interface {
	HistoryClient
	UploadClient
	CollectionClient
	WorkflowClient
	DirectoryClient
	LibraryClient
}

// UploadError reports a failed file transfer.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// FindInputID scans the inputs of details for label.
func FindInputID(details WorkflowDetails, label string) (string, error) {
	for _, in := range details.Inputs {
		if in.Label == label {
			return in.ID, nil
		}
	}
	return "", fmt.Errorf("%w %q in workflow %s", ErrUnknownLabel, label, details.ID)
}

package galaxy

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
)

func (c *Client) Roles(ctx context.Context) ([]remote.Role, error) {
	var roles []remote.Role
	err := c.getJSON(ctx, "/api/roles", &roles)
	return roles, err
}

func (c *Client) Users(ctx context.Context) ([]remote.User, error) {
	var users []remote.User
	err := c.getJSON(ctx, "/api/users", &users)
	return users, err
}

func (c *Client) Libraries(ctx context.Context) ([]remote.Library, error) {
	var libs []remote.Library
	err := c.getJSON(ctx, "/api/libraries", &libs)
	return libs, err
}

// LibraryContents lists every folder and file of a library. A 404 answer
// matches remote.ErrNotFound.
func (c *Client) LibraryContents(ctx context.Context, libraryID string) ([]remote.LibraryContent, error) {
	var contents []remote.LibraryContent
	if err := c.getJSON(ctx, fmt.Sprintf("/api/libraries/%s/contents", libraryID), &contents); err != nil {
		return nil, err
	}
	if contents == nil {
		contents = []remote.LibraryContent{}
	}
	return contents, nil
}

func (c *Client) CreateLibrary(ctx context.Context, name string) (remote.Library, error) {
	var lib remote.Library
	if err := c.postJSON(ctx, "/api/libraries", map[string]string{"name": name}, &lib); err != nil {
		return remote.Library{}, err
	}
	return lib, nil
}

// CreateFolder adds a folder under parentFolderID. Galaxy answers with a
// one-element list.
func (c *Client) CreateFolder(ctx context.Context, libraryID, parentFolderID, name string) (remote.LibraryContent, error) {
	req := map[string]string{
		"create_type": "folder",
		"folder_id":   parentFolderID,
		"name":        name,
	}
	var created []remote.LibraryContent
	if err := c.postJSON(ctx, fmt.Sprintf("/api/libraries/%s/contents", libraryID), req, &created); err != nil {
		return remote.LibraryContent{}, err
	}
	if len(created) == 0 {
		return remote.LibraryContent{}, errors.New("galaxy did not return the created folder")
	}
	folder := created[0]
	folder.Type = remote.ContentFolder
	return folder, nil
}

func (c *Client) UploadToFolder(ctx context.Context, libraryID, folderID, path string, fileType types.InputFileType) (remote.LibraryContent, error) {
	fields := map[string]string{
		"create_type":   "file",
		"folder_id":     folderID,
		"upload_option": "upload_file",
		"file_type":     string(fileType),
		"dbkey":         "?",
	}
	var created []remote.LibraryContent
	if err := c.postMultipart(ctx, fmt.Sprintf("/api/libraries/%s/contents", libraryID), fields, "files_0|file_data", path, &created); err != nil {
		return remote.LibraryContent{}, err
	}
	if len(created) == 0 {
		return remote.LibraryContent{}, errors.New("galaxy did not return the uploaded file")
	}
	file := created[0]
	file.Type = remote.ContentFile
	return file, nil
}

// SetLibraryPermissions restricts access, add, manage and modify rights to roleID.
func (c *Client) SetLibraryPermissions(ctx context.Context, libraryID, roleID string) error {
	form := url.Values{}
	form.Set("action", "set_permissions")
	for _, key := range []string{"access_ids[]", "add_ids[]", "manage_ids[]", "modify_ids[]"} {
		form.Add(key, roleID)
	}
	return c.postForm(ctx, fmt.Sprintf("/api/libraries/%s/permissions", libraryID), form, nil)
}

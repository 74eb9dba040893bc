package galaxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dfornika/irida/internal/remote"
	"github.com/dfornika/irida/types"
)

func (c *Client) NewHistory(ctx context.Context, name string) (remote.History, error) {
	var h remote.History
	if err := c.postJSON(ctx, "/api/histories", map[string]string{"name": name}, &h); err != nil {
		return remote.History{}, err
	}
	return h, nil
}

type toolOutputs struct {
	Outputs []remote.Dataset `json:"outputs"`
}

// Upload runs the upload1 tool to place a local file into a history.
func (c *Client) Upload(ctx context.Context, path string, fileType types.InputFileType, historyID string) (remote.Dataset, error) {
	inputs, err := json.Marshal(map[string]string{
		"file_type":    string(fileType),
		"dbkey":        "?",
		"files_0|NAME": filepath.Base(path),
		"files_0|type": "upload_dataset",
	})
	if err != nil {
		return remote.Dataset{}, &remote.UploadError{Path: path, Err: err}
	}

	fields := map[string]string{
		"tool_id":    "upload1",
		"history_id": historyID,
		"inputs":     string(inputs),
	}
	var out toolOutputs
	if err := c.postMultipart(ctx, "/api/tools", fields, "files_0|file_data", path, &out); err != nil {
		return remote.Dataset{}, &remote.UploadError{Path: path, Err: err}
	}
	if len(out.Outputs) == 0 {
		return remote.Dataset{}, &remote.UploadError{Path: path, Err: errors.New("upload tool returned no datasets")}
	}

	ds := out.Outputs[0]
	if ds.HistoryID == "" {
		ds.HistoryID = historyID
	}
	c.logger.Debug().Str("file", path).Str("dataset_id", ds.ID).Str("history_id", historyID).Msg("Uploaded dataset")
	return ds, nil
}

type collectionRequest struct {
	Type string `json:"type"`
	remote.CollectionDescription
}

func (c *Client) BuildCollection(ctx context.Context, desc remote.CollectionDescription, historyID string) (remote.Collection, error) {
	req := collectionRequest{Type: "dataset_collection", CollectionDescription: desc}
	var col remote.Collection
	if err := c.postJSON(ctx, fmt.Sprintf("/api/histories/%s/contents", historyID), req, &col); err != nil {
		return remote.Collection{}, err
	}
	return col, nil
}

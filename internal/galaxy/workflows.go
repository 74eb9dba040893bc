package galaxy

import (
	"context"
	"sort"
	"strconv"

	"github.com/dfornika/irida/internal/remote"
)

type workflowResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Inputs map[string]struct {
		Label string `json:"label"`
	} `json:"inputs"`
}

func (c *Client) WorkflowDetails(ctx context.Context, workflowID string) (remote.WorkflowDetails, error) {
	var resp workflowResponse
	if err := c.getJSON(ctx, "/api/workflows/"+workflowID, &resp); err != nil {
		return remote.WorkflowDetails{}, err
	}

	details := remote.WorkflowDetails{ID: resp.ID, Name: resp.Name}
	for id, in := range resp.Inputs {
		details.Inputs = append(details.Inputs, remote.WorkflowInput{ID: id, Label: in.Label})
	}
	sort.Slice(details.Inputs, func(i, j int) bool {
		a, errA := strconv.Atoi(details.Inputs[i].ID)
		b, errB := strconv.Atoi(details.Inputs[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return details.Inputs[i].ID < details.Inputs[j].ID
	})
	return details, nil
}

func (c *Client) InputID(details remote.WorkflowDetails, label string) (string, error) {
	return remote.FindInputID(details, label)
}

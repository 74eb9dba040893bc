// Package provenance records which tools ran, with what parameters, and
// which earlier steps fed them. Records live in a Graph arena; a step may
// only reference steps created before it, so every graph is acyclic.
package provenance

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Graph owns a set of tool executions. It is not safe for concurrent mutation.
type Graph struct {
	nodes []*ToolExecution
	now   func() time.Time
}

func NewGraph() *Graph {
	return &Graph{now: time.Now}
}

// Add creates a record from spec with the given predecessors.
func (g *Graph) Add(spec Spec, prev ...ID) (*ToolExecution, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	for _, p := range prev {
		if !g.valid(p) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownStep, p)
		}
	}

	t := &ToolExecution{
		graph:              g,
		id:                 ID(len(g.nodes)),
		toolName:           spec.ToolName,
		toolVersion:        spec.ToolVersion,
		executionManagerID: spec.ExecutionManagerID,
		commandLine:        spec.CommandLine,
		params:             make(map[string]string, len(spec.Parameters)),
		createdAt:          g.now(),
	}
	t.AddExecutionTimeParameters(spec.Parameters)
	g.nodes = append(g.nodes, t)

	for _, p := range prev {
		if err := t.AddPreviousStep(g.nodes[p]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (g *Graph) valid(id ID) bool { return id >= 0 && int(id) < len(g.nodes) }

// Get returns the record with the given id.
func (g *Graph) Get(id ID) (*ToolExecution, bool) {
	if !g.valid(id) {
		return nil, false
	}
	return g.nodes[id], true
}

func (g *Graph) Len() int { return len(g.nodes) }

// All returns every record in creation order.
func (g *Graph) All() []*ToolExecution { return slices.Clone(g.nodes) }

// Inputs returns the records without predecessors.
func (g *Graph) Inputs() []*ToolExecution {
	var out []*ToolExecution
	for _, n := range g.nodes {
		if n.IsInputTool() {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the first record structurally equal to t, which may belong
// to another graph.
func (g *Graph) Find(t *ToolExecution) (*ToolExecution, bool) {
	for _, n := range g.nodes {
		if n.Equal(t) {
			return n, true
		}
	}
	return nil, false
}

// Ancestors returns every step that transitively fed id, nearest first.
func (g *Graph) Ancestors(id ID) ([]*ToolExecution, error) {
	if !g.valid(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, id)
	}

	seen := map[ID]bool{id: true}
	queue := slices.Clone(g.nodes[id].prev)
	var out []*ToolExecution
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, g.nodes[cur])
		queue = append(queue, g.nodes[cur].prev...)
	}
	return out, nil
}

// Record is the flat form of a ToolExecution. Parameter keys are escaped.
type Record struct {
	ID                 ID                `json:"id"`
	ToolName           string            `json:"tool_name"`
	ToolVersion        string            `json:"tool_version"`
	ExecutionManagerID string            `json:"execution_manager_id"`
	CommandLine        string            `json:"command_line,omitempty"`
	Parameters         map[string]string `json:"parameters"`
	CreatedAt          time.Time         `json:"created_at"`
	PreviousSteps      []ID              `json:"previous_steps"`
}

// Records flattens the graph in creation order.
func (g *Graph) Records() []Record {
	out := make([]Record, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = Record{
			ID:                 n.id,
			ToolName:           n.toolName,
			ToolVersion:        n.toolVersion,
			ExecutionManagerID: n.executionManagerID,
			CommandLine:        n.commandLine,
			Parameters:         maps.Clone(n.params),
			CreatedAt:          n.createdAt,
			PreviousSteps:      slices.Clone(n.prev),
		}
	}
	return out
}

// FromRecords rebuilds a graph. Records must be ordered by ID starting at
// zero and only reference earlier records.
func FromRecords(records []Record) (*Graph, error) {
	g := NewGraph()
	for i, r := range records {
		if r.ID != ID(i) {
			return nil, fmt.Errorf("record %d out of order (id %d)", i, r.ID)
		}
		spec := Spec{
			ToolName:           r.ToolName,
			ToolVersion:        r.ToolVersion,
			ExecutionManagerID: r.ExecutionManagerID,
			CommandLine:        r.CommandLine,
		}
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		t := &ToolExecution{
			graph:              g,
			id:                 r.ID,
			toolName:           r.ToolName,
			toolVersion:        r.ToolVersion,
			executionManagerID: r.ExecutionManagerID,
			commandLine:        r.CommandLine,
			params:             maps.Clone(r.Parameters),
			createdAt:          r.CreatedAt,
		}
		if t.params == nil {
			t.params = map[string]string{}
		}
		g.nodes = append(g.nodes, t)
		for _, p := range r.PreviousSteps {
			if !g.valid(p) {
				return nil, fmt.Errorf("record %d: %w: %d", i, ErrUnknownStep, p)
			}
			if err := t.AddPreviousStep(g.nodes[p]); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
	}
	return g, nil
}

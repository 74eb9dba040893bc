package provenance

import (
	"errors"
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"time"
)

var (
	// ErrImmutable is returned by every attempt to change a record's timestamps.
	ErrImmutable = errors.New("tool execution cannot be modified")

	ErrForeignStep  = errors.New("previous step belongs to another graph")
	ErrInvalidOrder = errors.New("previous step must be created before the step that consumes it")
	ErrUnknownStep  = errors.New("unknown tool execution")
	ErrInvalidSpec  = errors.New("invalid tool execution")
)

// ID indexes a ToolExecution within its Graph. IDs grow in creation order.
type ID int

// Spec holds the constructor arguments of a ToolExecution.
type Spec struct {
	ToolName    string
	ToolVersion string
	// ExecutionManagerID is the engine's own identifier for the step.
	ExecutionManagerID string
	CommandLine        string
	Parameters         map[string]string
}

func (s Spec) validate() error {
	switch {
	case s.ToolName == "":
		return fmt.Errorf("%w: tool name is required", ErrInvalidSpec)
	case s.ToolVersion == "":
		return fmt.Errorf("%w: tool version is required", ErrInvalidSpec)
	case s.ExecutionManagerID == "":
		return fmt.Errorf("%w: execution manager id is required", ErrInvalidSpec)
	}
	return nil
}

// ToolExecution records one invocation of a tool and the steps that fed it.
type ToolExecution struct {
	graph *Graph
	id    ID

	toolName           string
	toolVersion        string
	executionManagerID string
	commandLine        string
	params             map[string]string // escaped keys
	createdAt          time.Time
	prev               []ID // sorted, unique
}

func (t *ToolExecution) ID() ID                     { return t.id }
func (t *ToolExecution) ToolName() string           { return t.toolName }
func (t *ToolExecution) ToolVersion() string        { return t.toolVersion }
func (t *ToolExecution) ExecutionManagerID() string { return t.executionManagerID }
func (t *ToolExecution) CommandLine() string        { return t.commandLine }
func (t *ToolExecution) Label() string              { return t.toolName }
func (t *ToolExecution) CreatedAt() time.Time       { return t.createdAt }

// ModifiedAt always equals CreatedAt.
func (t *ToolExecution) ModifiedAt() time.Time { return t.createdAt }

func (t *ToolExecution) SetModifiedAt(time.Time) error { return ErrImmutable }

func (t *ToolExecution) String() string {
	return fmt.Sprintf("ToolExecution[tool=%s, version=%s]", t.toolName, t.toolVersion)
}

// AddExecutionTimeParameter stores value under key, replacing any previous value.
func (t *ToolExecution) AddExecutionTimeParameter(key, value string) {
	t.params[escapeKey(key)] = value
}

func (t *ToolExecution) AddExecutionTimeParameters(params map[string]string) {
	for k, v := range params {
		t.AddExecutionTimeParameter(k, v)
	}
}

// ExecutionTimeParameters returns a copy of the parameters with their
// original keys.
func (t *ToolExecution) ExecutionTimeParameters() map[string]string {
	out := make(map[string]string, len(t.params))
	for k, v := range t.params {
		out[unescapeKey(k)] = v
	}
	return out
}

// AddPreviousStep records prev as an input of t. Adding the same step twice
// has no effect.
func (t *ToolExecution) AddPreviousStep(prev *ToolExecution) error {
	if prev == nil {
		return fmt.Errorf("%w: nil previous step", ErrUnknownStep)
	}
	if prev.graph != t.graph {
		return ErrForeignStep
	}
	if prev.id >= t.id {
		return fmt.Errorf("%w: %d cannot precede %d", ErrInvalidOrder, prev.id, t.id)
	}
	i, found := slices.BinarySearch(t.prev, prev.id)
	if !found {
		t.prev = slices.Insert(t.prev, i, prev.id)
	}
	return nil
}

// PreviousSteps returns the direct predecessors of t in creation order.
func (t *ToolExecution) PreviousSteps() []*ToolExecution {
	out := make([]*ToolExecution, len(t.prev))
	for i, id := range t.prev {
		out[i] = t.graph.nodes[id]
	}
	return out
}

// IsInputTool reports whether t has no predecessors, i.e. it brought data
// into the analysis.
func (t *ToolExecution) IsInputTool() bool { return len(t.prev) == 0 }

// Equal compares tool name, version and parameters. Identity, timestamps,
// manager id and predecessors are not considered.
func (t *ToolExecution) Equal(o *ToolExecution) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.toolName == o.toolName &&
		t.toolVersion == o.toolVersion &&
		maps.Equal(t.params, o.params)
}

// Hash is consistent with Equal.
func (t *ToolExecution) Hash() uint64 {
	h := fnv.New64a()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(t.toolName)
	write(t.toolVersion)
	for _, k := range slices.Sorted(maps.Keys(t.params)) {
		write(k)
		write(t.params[k])
	}
	return h.Sum64()
}

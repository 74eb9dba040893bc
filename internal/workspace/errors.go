package workspace

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindInvalidSubmission Kind = "invalid_submission"
	KindDuplicateSample   Kind = "duplicate_sample"
)

// Error reports a submission that cannot be prepared. WorkspaceID is set
// when the failure happened after the workspace was created; the workspace
// is left in place for the caller to discard.
type Error struct {
	Kind        Kind
	WorkspaceID string
	Samples     []string
	Msg         string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("workspace preparation failed: ")
	b.WriteString(e.Msg)
	if len(e.Samples) > 0 {
		fmt.Fprintf(&b, " (samples: %s)", strings.Join(e.Samples, ", "))
	}
	if e.WorkspaceID != "" {
		fmt.Fprintf(&b, " [workspace %s]", e.WorkspaceID)
	}
	return b.String()
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidSubmission = &Error{Kind: KindInvalidSubmission, Msg: "invalid submission"}
	ErrDuplicateSample   = &Error{Kind: KindDuplicateSample, Msg: "more than one input file per sample"}
)

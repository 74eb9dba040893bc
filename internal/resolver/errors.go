package resolver

import "fmt"

// Kind classifies a resolver failure.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNoRoleFound     Kind = "no_role_found"
	KindUserNotFound    Kind = "user_not_found"
	KindNoLibraryFound  Kind = "no_library_found"
	KindNoContentFound  Kind = "no_content_found"
)

// Error is returned for every lookup miss and contract violation. Use
// errors.Is with the sentinels below to match on kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Msg: "invalid argument"}
	ErrNoRoleFound     = &Error{Kind: KindNoRoleFound, Msg: "no role found"}
	ErrUserNotFound    = &Error{Kind: KindUserNotFound, Msg: "user not found"}
	ErrNoLibraryFound  = &Error{Kind: KindNoLibraryFound, Msg: "no library found"}
	ErrNoContentFound  = &Error{Kind: KindNoContentFound, Msg: "no library content found"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

package dispatch

import (
	"errors"

	"github.com/entrhq/browserbase-mcp/pkg/session"
)

// ErrToolExecution marks failures raised by a tool's handler or action.
var ErrToolExecution = errors.New("tool execution failed")

// toolError tags an error as ErrToolExecution without changing its message.
type toolError struct {
	err error
}

func (e *toolError) Error() string { return e.err.Error() }
func (e *toolError) Unwrap() error { return e.err }

func (e *toolError) Is(target error) bool { return target == ErrToolExecution }

// classify leaves session errors as they are and tags everything else.
func classify(err error) error {
	switch {
	case errors.Is(err, session.ErrConfiguration),
		errors.Is(err, session.ErrLaunch),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionLimit),
		errors.Is(err, ErrToolExecution):
		return err
	}
	return &toolError{err: err}
}

// ErrorKind names the class of err for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, session.ErrConfiguration):
		return "configuration"
	case errors.Is(err, session.ErrLaunch):
		return "launch"
	case errors.Is(err, session.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, session.ErrSessionLimit):
		return "session_limit"
	default:
		return "tool"
	}
}

package handler

import "github.com/pkg/errors"

// ErrMissingEngine indicates that no ranking engine was configured.
var ErrMissingEngine = errors.New("missing ranking engine")

// Error is a terminal session failure tagged with the step that failed.
// Reason is one of the metrics.Reason* values.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

package store

import "errors"

var (
	// ErrStorage marks any failure to reach or use the backing store,
	// including timeouts.
	ErrStorage = errors.New("storage unavailable")

	// ErrConflict is returned when a compare-and-swap write lost against a
	// concurrent writer.
	ErrConflict = errors.New("record was modified concurrently")
)

// OpError wraps a driver error with the operation that failed. It matches
// both ErrStorage and the underlying error under errors.Is.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Wrap returns nil for a nil err, otherwise an *OpError.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

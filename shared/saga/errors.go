package saga

import (
	"github.com/pkg/errors"
)

// ErrRedeliver is returned to the subscriber when a message must stay on the
// broker for another delivery.
var ErrRedeliver = errors.New("message left for redelivery")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error as non retriable. The runtime dead-letters
// the message instead of asking for redelivery.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

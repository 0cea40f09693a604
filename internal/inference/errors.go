package inference

import "errors"

// TransientError is a failure that may clear on its own: network faults, a model that is
// still loading, provider rate limits. Callers decide whether to retry; this package never does.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError is a failure that will repeat for the same input or credentials.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// Kind names the failure class of err for logs and metrics: "transient", "fatal", or
// "error" when the generator did not classify it.
func Kind(err error) string {
	switch {
	case IsTransient(err):
		return "transient"
	case IsFatal(err):
		return "fatal"
	default:
		return "error"
	}
}

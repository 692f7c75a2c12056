package usecase

import "fmt"

// Kind classifies why an operation failed.
type Kind string

const (
	KindMissingInput           Kind = "MISSING_INPUT"
	KindMissingCredential      Kind = "MISSING_CREDENTIAL"
	KindUpstreamRejected       Kind = "UPSTREAM_REJECTED"
	KindUpstreamUnreachable    Kind = "UPSTREAM_UNREACHABLE"
	KindLocalDispatchFailure   Kind = "LOCAL_DISPATCH_FAILURE"
	KindInvalidUpstreamContent Kind = "INVALID_UPSTREAM_CONTENT"
)

// Error is a failed gateway operation. Status, Message and Details are what
// the caller sees; Err is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%d %s)", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("usecase: %s (%d %s): %v", e.Kind, e.Status, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind Kind, status int, msg string, details any, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: msg, Details: details, Err: err}
}

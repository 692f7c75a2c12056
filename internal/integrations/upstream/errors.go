package upstream

import (
	"errors"
	"fmt"
	"net"
)

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("upstream: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// NoResponseError reports a request that was handed to the transport but
// never produced a usable response: timeouts, resets, DNS failures.
type NoResponseError struct {
	URL string
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("upstream: no response from %s: %v", e.URL, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying failure was a timeout.
func (e *NoResponseError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// DispatchError reports a request that could not be built or sent at all.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Class is the coarse failure class of an upstream call.
type Class int

const (
	ClassNone Class = iota
	ClassRejected
	ClassNoResponse
	ClassDispatch
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "ok"
	case ClassRejected:
		return "rejected"
	case ClassNoResponse:
		return "no_response"
	default:
		return "dispatch"
	}
}

// Classify sorts err into "server said no", "server never answered" and
// "we never managed to ask". Unrecognised errors count as dispatch failures.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return ClassRejected
	}
	var noResp *NoResponseError
	if errors.As(err, &noResp) {
		return ClassNoResponse
	}
	return ClassDispatch
}

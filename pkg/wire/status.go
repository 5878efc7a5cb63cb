package wire

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/industrial-io/iio-go/pkg/backend"
)

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusNotFound indicates an unknown device, channel, attribute or buffer.
	StatusNotFound Status = 1

	// StatusUnsupported indicates the backend cannot perform the operation.
	StatusUnsupported Status = 2

	// StatusClosed indicates the connection or buffer was closed.
	StatusClosed Status = 3

	// StatusCancelled indicates a transfer aborted by cancel.
	StatusCancelled Status = 4

	// StatusInvalidRequest indicates a malformed request.
	StatusInvalidRequest Status = 5

	// StatusFailed indicates any other backend failure. Code carries the
	// errno when the backend reported one.
	StatusFailed Status = 6
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusClosed:
		return "CLOSED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusInvalidRequest:
		return "INVALID_REQUEST"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// ErrInvalidRequest marks errors caused by a malformed request.
var ErrInvalidRequest = errors.New("invalid request")

var statusSentinels = []struct {
	status Status
	err    error
}{
	{StatusCancelled, backend.ErrCancelled},
	{StatusClosed, backend.ErrClosed},
	{StatusNotFound, backend.ErrNotFound},
	{StatusUnsupported, backend.ErrUnsupported},
	{StatusInvalidRequest, ErrInvalidRequest},
}

// StatusFromError classifies err for a response.
func StatusFromError(err error) (Status, syscall.Errno) {
	var code syscall.Errno
	errors.As(err, &code)
	for _, s := range statusSentinels {
		if errors.Is(err, s.err) {
			return s.status, code
		}
	}
	return StatusFailed, code
}

// RemoteError is a failure reported by the bridge. It unwraps to the
// backend sentinel matching its status and to its errno, so callers can
// keep using errors.Is against backend errors.
type RemoteError struct {
	Status  Status
	Code    syscall.Errno
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s", e.Message)
}

// Unwrap returns the status sentinel and the errno.
func (e *RemoteError) Unwrap() []error {
	var errs []error
	for _, s := range statusSentinels {
		if s.status == e.Status {
			errs = append(errs, s.err)
		}
	}
	if e.Code != 0 {
		errs = append(errs, e.Code)
	}
	return errs
}

// Err returns nil for a success response, else a *RemoteError.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &RemoteError{Status: r.Status, Code: syscall.Errno(r.Code), Message: r.Message}
}

package iio

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/sample"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	// ErrConnection indicates the backend could not be reached or opened.
	ErrConnection = errors.New("connection failed")

	// ErrScan indicates the backend was reached but enumeration failed.
	ErrScan = errors.New("scan failed")

	// ErrNotFound indicates an unknown device, channel or attribute.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported indicates an operation the entity cannot perform.
	ErrUnsupported = errors.New("unsupported")

	// ErrWrongDataType indicates an attribute value that does not parse as
	// the requested type.
	ErrWrongDataType = errors.New("wrong data type")

	// ErrBadReturnSize indicates an attribute write acknowledged with a
	// byte count other than the length of the value.
	ErrBadReturnSize = errors.New("bad return size")

	// ErrRange indicates a sample value that does not fit its format.
	ErrRange = sample.ErrRange

	// ErrTransfer indicates a failed buffer refill or push.
	ErrTransfer = errors.New("transfer failed")

	// ErrStillShared indicates TryReleaseInner on a shared InnerContext, or
	// FromInner on one that is already wrapped.
	ErrStillShared = errors.New("inner context still shared")

	// ErrBuild indicates a buffer that could not be created.
	ErrBuild = errors.New("buffer build failed")

	// ErrNotEnabled indicates iteration over a channel outside the
	// buffer's channel set.
	ErrNotEnabled = errors.New("channel not enabled in buffer")

	// ErrClosed indicates use of a closed context, device, channel or
	// buffer.
	ErrClosed = errors.New("closed")

	// ErrConcurrentUse indicates a transfer started while another one on
	// the same buffer was in flight.
	ErrConcurrentUse = errors.New("buffer in use")

	// ErrInvalidIndex indicates a device or channel index out of range.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrIO indicates a backend failure not covered by another kind.
	ErrIO = errors.New("backend I/O error")
)

// Error carries the kind, the failed operation and, when the backend
// reported one, the error code.
type Error struct {
	// Kind is one of the Err* sentinels.
	Kind error

	// Op names the operation, e.g. "device.read_attr".
	Op string

	// Code is the backend error code, or 0.
	Code syscall.Errno

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("iio: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, cause error) *Error {
	e := &Error{Kind: kind, Op: op, Err: cause}
	var errno syscall.Errno
	if errors.As(cause, &errno) {
		e.Code = errno
	}
	return e
}

func errorf(kind error, op, format string, args ...any) *Error {
	return newError(kind, op, fmt.Errorf(format, args...))
}

// backendError classifies a backend failure. Sentinels the backend wraps
// take precedence over fallback.
func backendError(op string, fallback error, cause error) *Error {
	kind := fallback
	switch {
	case errors.Is(cause, backend.ErrNotFound):
		kind = ErrNotFound
	case errors.Is(cause, backend.ErrUnsupported):
		kind = ErrUnsupported
	case errors.Is(cause, backend.ErrClosed):
		kind = ErrClosed
	}
	return newError(kind, op, cause)
}

func closedError(op string) *Error {
	return &Error{Kind: ErrClosed, Op: op}
}

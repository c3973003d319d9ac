package knorry

import (
	"errors"
	"fmt"
	"time"

	goerrors "github.com/go-errors/errors"
)

// Error types reported in ClientError.Type.
const (
	ErrorTypeAborted    = "Aborted"
	ErrorTypeNetwork    = "Network"
	ErrorTypeTimeout    = "Timeout"
	ErrorTypePayload    = "Payload"
	ErrorTypeTransport  = "Transport"
	ErrorTypeMethod     = "Method"
	ErrorTypeValidation = "Validation"
)

// Sentinel errors for common failure scenarios
var (
	// ErrAborted is returned when the transport was aborted before completion.
	ErrAborted = errors.New("knorry: request aborted")

	// ErrRequestFailed is returned when the transport reports a network error.
	ErrRequestFailed = errors.New("knorry: request failed")

	// ErrTimeout is returned when the transport's timeout elapsed.
	ErrTimeout = errors.New("knorry: timeout")

	// ErrInvalidPayload is returned when a payload cannot take the requested wire form.
	ErrInvalidPayload = errors.New("knorry: invalid payload")

	// ErrInvalidMethod is returned by Request for an unknown HTTP method token.
	ErrInvalidMethod = errors.New("knorry: method must be a valid HTTP method")

	// ErrInvalidState is returned by a Transport used out of order.
	ErrInvalidState = errors.New("knorry: invalid transport state")
)

var sentinelByType = map[string]error{
	ErrorTypeAborted:   ErrAborted,
	ErrorTypeNetwork:   ErrRequestFailed,
	ErrorTypeTimeout:   ErrTimeout,
	ErrorTypePayload:   ErrInvalidPayload,
	ErrorTypeMethod:    ErrInvalidMethod,
	ErrorTypeTransport: ErrInvalidState,
}

// IsTransportFailure reports whether err is an abort, network error or timeout
// raised by the transport, as opposed to a local construction failure.
func IsTransportFailure(err error) bool {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type {
	case ErrorTypeAborted, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// payloadError builds a type-mismatch failure carrying the caller's stack.
func payloadError(format string, args ...interface{}) error {
	return goerrors.Wrap(fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidPayload}, args...)...), 1)
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another ClientError of the same Type, or the sentinel of e's Type.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	if sentinel, ok := sentinelByType[e.Type]; ok {
		return target == sentinel
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
		var stacked *goerrors.Error
		if errors.As(e.Cause, &stacked) {
			info += fmt.Sprintf("Stack:\n%s", stacked.Stack())
		}
	}
	return info
}

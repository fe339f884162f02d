package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	ValidationError Kind = "validation"
	TransportError  Kind = "transport"
	UpstreamError   Kind = "upstream"
	InternalError   Kind = "internal"
)

func (k Kind) String() string {
	return string(k)
}

// Error is the single error type returned by Gateway.Generate.
type Error struct {
	Kind    Kind
	Message string
	// Details is a bounded excerpt of the upstream body. Set for UpstreamError.
	Details string
	// StatusCode is the upstream status. Set for UpstreamError.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Err != nil && e.Details == "" {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err. Errors that did not come from the gateway
// are InternalError; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return InternalError
}

func newValidationError(err error) *Error {
	return &Error{Kind: ValidationError, Message: "Invalid prompt", Err: err}
}

func newInternalError(err error) *Error {
	return &Error{Kind: InternalError, Message: "Internal server error", Err: err}
}

package predict

import (
	"context"
	"errors"
	"fmt"
)

// Category is the closed set of failure classes a submission can end in.
type Category string

const (
	CategoryNone             Category = ""
	CategoryNoResponse       Category = "no-response"
	CategoryClientError      Category = "client-error"
	CategoryServerError      Category = "server-error"
	CategoryUnexpectedStatus Category = "unexpected-status"
	CategoryTransport        Category = "transport"
	CategoryDecode           Category = "decode"
	CategoryContract         Category = "contract"
)

// ResponseError is a structured failure: either a non-2xx response or a
// connection the server accepted and then closed before sending a status line
// (Status 0).
type ResponseError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("predict: no response from server: %v", e.Err)
		}
		return "predict: no response from server"
	}
	return fmt.Sprintf("predict: unexpected status %d", e.Status)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// TransportError is a dispatch failure with no structured response: DNS,
// refused connections, TLS, proxy or cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("predict: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is a 2xx response whose body is not JSON.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("predict: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ContractError is a payload the service contract rejected before sending.
type ContractError struct {
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("predict: contract: %v", e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// Classify maps err onto a Category. A nil error is CategoryNone; errors
// not produced by this package count as transport failures.
func Classify(err error) Category {
	if err == nil {
		return CategoryNone
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		switch {
		case respErr.Status == 0:
			return CategoryNoResponse
		case respErr.Status >= 400 && respErr.Status < 500:
			return CategoryClientError
		case respErr.Status >= 500 && respErr.Status < 600:
			return CategoryServerError
		default:
			return CategoryUnexpectedStatus
		}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return CategoryDecode
	}
	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return CategoryContract
	}
	return CategoryTransport
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	return 0
}

// Canceled reports whether err stems from a cancelled or expired context.
func Canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

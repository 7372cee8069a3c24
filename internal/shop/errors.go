package shop

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Status codes the client assigns itself.
const (
	StatusNetwork = 0
	StatusTimeout = http.StatusRequestTimeout
)

// Kind groups client errors by how callers should react.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindRateLimited
	KindServerFault
	KindClientRejection
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate-limited"
	case KindServerFault:
		return "server-fault"
	case KindClientRejection:
		return "client-rejection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the classified outcome of any failed request.
type Error struct {
	Status  int
	Message string
	// Detail holds the decoded error body when the server sent JSON.
	Detail json.RawMessage
	// Err is the underlying transport error for status 0 and 408.
	Err error
}

func (e *Error) Error() string {
	if e.Status == StatusNetwork {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind classifies the error by status.
func (e *Error) Kind() Kind {
	switch {
	case e.Status == StatusNetwork:
		return KindNetwork
	case e.Status == StatusTimeout:
		return KindTimeout
	case e.Status == http.StatusTooManyRequests:
		return KindRateLimited
	case e.Status >= 500:
		return KindServerFault
	default:
		return KindClientRejection
	}
}

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind() != KindClientRejection
}

// StatusOf returns the status of a client error anywhere in err's chain, or
// -1 when err is not a client error.
func StatusOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Status
	}
	return -1
}

// IsRetryable reports whether err is a client error worth retrying.
// Errors that are not client errors are never retried.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return false
}

// errorBody is the structured error shape the storefront returns.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeErrorBody(status int, statusText string, body []byte) *Error {
	ce := &Error{Status: status, Message: statusText}
	if len(body) == 0 {
		return ce
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ce
	}
	ce.Detail = json.RawMessage(body)
	switch {
	case eb.Message != "":
		ce.Message = eb.Message
	case eb.Error != "":
		ce.Message = eb.Error
	}
	return ce
}

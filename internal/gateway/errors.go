package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnreachable marks a connectivity failure: the dispatch never produced a
// response, so nothing was attempted server-side and the operation is safe
// to replay later.
var ErrUnreachable = errors.New("gateway unreachable")

// RejectionError is an explicit refusal: the server received the request,
// processed it, and answered with an error status.
type RejectionError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("gateway rejected request (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("gateway rejected request (status %d)", e.StatusCode)
}

// Message extracts a human-readable message from the rejection body, if the
// server sent one.
func (e *RejectionError) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// IsUnreachable reports whether an error is a connectivity failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// AsRejection extracts a RejectionError, if the error is one.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

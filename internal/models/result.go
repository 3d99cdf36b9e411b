package models

import "encoding/json"

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindUnauthorized ErrorKind = "unauthorized"
	KindUpstream     ErrorKind = "upstream"
	KindInvalid      ErrorKind = "invalid"
)

// Result is a tagged outcome: either Ok with data or Err with a kind and message.
type Result[T any] struct {
	Success bool
	Data    T
	Kind    ErrorKind
	Message string
}

// Ok wraps a successful value.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Err builds a failed result. The data argument lets callers carry a zero
// value that still serialises sensibly, e.g. an empty list.
func Err[T any](kind ErrorKind, message string, data T) Result[T] {
	return Result[T]{Kind: kind, Message: message, Data: data}
}

// MarshalJSON renders {"success":true,"data":...} or {"success":false,"message":...}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success bool      `json:"success"`
		Kind    ErrorKind `json:"kind,omitempty"`
		Message string    `json:"message"`
	}{false, r.Kind, r.Message})
}

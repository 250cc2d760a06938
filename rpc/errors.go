package rpc

import (
	"errors"
)

// Error is the structured error object of a JSON-RPC response.
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error with the same code, so that errors decoded from the
// wire compare equal to the package sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// toWireError converts a handler error into the object sent to the peer. The
// code comes from the first *Error in the chain; the message keeps the full
// text.
func toWireError(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return &Error{Code: coded.Code, Message: err.Error()}
	}
	return &Error{Code: ErrUnknown.Code, Message: err.Error()}
}

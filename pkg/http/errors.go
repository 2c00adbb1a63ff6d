package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that carries a logical status for the envelope.
type AppError struct {
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFoundError builds a not-found AppError with the given message.
func NotFoundError(message string) *AppError {
	return &AppError{
		Code:    "ERR_NOT_FOUND",
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NotFoundErrorf builds a not-found AppError from a format string.
func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

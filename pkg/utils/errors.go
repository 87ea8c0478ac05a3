package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// CustomError is the error shape surfaced to API and CLI callers
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	cause   error
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.cause
}

// Wrap attaches an underlying cause, keeping errors.Is/As working through it
func (e *CustomError) Wrap(cause error) *CustomError {
	e.cause = cause
	if e.Detail == "" && cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// AsCustomError returns the CustomError inside err, or wraps err as an
// internal server error
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return NewInternalServerError("Internal server error").Wrap(err)
}

func NewBadRequestError(message string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: message}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{Code: http.StatusInternalServerError, Message: message}
}

func NewTimeoutError(message string) *CustomError {
	return &CustomError{Code: http.StatusRequestTimeout, Message: message}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: "Validation failed", Detail: detail}
}

func NewNotFoundError(detail string) *CustomError {
	return &CustomError{Code: http.StatusNotFound, Message: "Not found", Detail: detail}
}

// Scraping specific errors

func NewScrapingError(detail string) *CustomError {
	return &CustomError{Code: http.StatusUnprocessableEntity, Message: "Scraping failed", Detail: detail}
}

func NewBrowserError(detail string) *CustomError {
	return &CustomError{Code: http.StatusServiceUnavailable, Message: "Browser unavailable", Detail: detail}
}

func NewLLMError(detail string) *CustomError {
	return &CustomError{Code: http.StatusBadGateway, Message: "LLM processing failed", Detail: detail}
}

func NewStorageError(detail string) *CustomError {
	return &CustomError{Code: http.StatusInternalServerError, Message: "Storage operation failed", Detail: detail}
}

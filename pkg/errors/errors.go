package errors

import (
	"errors"
	"fmt"
	"net/http"

	"gridcast/internal/core/domain"
)

// ErrorCode represents application error codes surfaced at the HTTP boundary.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodeIndexOutOfRange  ErrorCode = "INDEX_OUT_OF_RANGE"
	ErrCodeNoActiveStreams  ErrorCode = "NO_ACTIVE_STREAMS"
	ErrCodeStorageExceeded  ErrorCode = "STORAGE_EXCEEDED"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimit        ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a code, user-facing message and HTTP status.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Cause: err}
}

func NewInvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewUnauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewRateLimit() *AppError {
	return New(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternal(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

// FromDomain maps domain sentinel errors onto HTTP-facing AppErrors.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return Wrap(err, ErrCodeInvalidInput, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrStreamNotFound), errors.Is(err, domain.ErrSegmentNotFound):
		return Wrap(err, ErrCodeNotFound, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrCapacityExceeded):
		return Wrap(err, ErrCodeCapacityExceeded, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return Wrap(err, ErrCodeIndexOutOfRange, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoActiveStreams):
		return Wrap(err, ErrCodeNoActiveStreams, err.Error(), http.StatusPreconditionFailed)
	case errors.Is(err, domain.ErrStorageExceeded):
		return Wrap(err, ErrCodeStorageExceeded, err.Error(), http.StatusInsufficientStorage)
	case errors.Is(err, domain.ErrRecorderBusy), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrSourceUnavailable):
		return Wrap(err, ErrCodeConflict, err.Error(), http.StatusConflict)
	}
	return Wrap(err, ErrCodeInternal, "internal error", http.StatusInternalServerError)
}

// GetAppError extracts an AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

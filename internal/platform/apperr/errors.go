package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedMedia     = errors.New("unsupported media type")
	ErrTooLarge             = errors.New("payload too large")
	ErrUnrecognizedDocument = errors.New("unrecognized document")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrUnavailable          = errors.New("service unavailable")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
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

func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation creates a validation error with field details
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

func UnsupportedMedia(got string) *AppError {
	return &AppError{
		Err:        ErrUnsupportedMedia,
		Message:    "only PDF documents are accepted",
		Code:       "UNSUPPORTED_MEDIA",
		HTTPStatus: http.StatusUnsupportedMediaType,
		Details:    map[string]string{"contentType": got},
	}
}

func TooLarge(limit int64) *AppError {
	return &AppError{
		Err:        ErrTooLarge,
		Message:    fmt.Sprintf("file exceeds %d MB", limit>>20),
		Code:       "PAYLOAD_TOO_LARGE",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// UnrecognizedDocument is returned when extraction succeeds but the file is
// not a lab report.
func UnrecognizedDocument(fileName string) *AppError {
	return &AppError{
		Err:        ErrUnrecognizedDocument,
		Message:    "the uploaded file does not look like a lab report",
		Code:       "UNRECOGNIZED_DOCUMENT",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]string{"file": fileName},
	}
}

// ExtractionFailed covers transport, status and decoding failures of the
// extraction call.
func ExtractionFailed(err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrExtractionFailed, err),
		Message:    "analysis failed",
		Code:       "EXTRACTION_FAILED",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]string{"reason": err.Error()},
	}
}

func Unavailable(message string) *AppError {
	return &AppError{
		Err:        ErrUnavailable,
		Message:    message,
		Code:       "UNAVAILABLE",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Err:        appErr.Err,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			Code:       appErr.Code,
			HTTPStatus: appErr.HTTPStatus,
			Details:    appErr.Details,
		}
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// As returns err as an *AppError, mapping anything else to Internal.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

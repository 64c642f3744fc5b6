package domain

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
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

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Is matches on Code so that errors produced by WithError still satisfy
// errors.Is against the predefined value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrEnrollmentNotFound = &AppError{
		Code:       "ENROLLMENT_NOT_FOUND",
		Message:    "Enrollment not found",
		StatusCode: 404,
	}

	ErrInvalidLabel = &AppError{
		Code:       "INVALID_LABEL",
		Message:    "Identity label must be non-empty and at most 255 characters",
		StatusCode: 422,
	}

	ErrNoEmbeddings = &AppError{
		Code:       "NO_EMBEDDINGS",
		Message:    "At least one embedding is required",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Comparison errors
	ErrDimensionMismatch = &AppError{
		Code:       "DIMENSION_MISMATCH",
		Message:    "Embeddings must have the same number of dimensions",
		StatusCode: 422,
	}

	ErrDegenerateVector = &AppError{
		Code:       "DEGENERATE_VECTOR",
		Message:    "Embedding has no direction (zero or non-finite values)",
		StatusCode: 422,
	}

	ErrInvalidThreshold = &AppError{
		Code:       "INVALID_THRESHOLD",
		Message:    "Threshold must be between 0 and 1",
		StatusCode: 422,
	}

	ErrInvalidMaxResults = &AppError{
		Code:       "INVALID_MAX_RESULTS",
		Message:    "Max results must be between 1 and 50",
		StatusCode: 422,
	}
)

// FromSimilarityError maps engine errors onto their API counterparts.
// Errors the engine did not produce are returned unchanged.
func FromSimilarityError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, similarity.ErrDimensionMismatch):
		return ErrDimensionMismatch.WithError(err)
	case errors.Is(err, similarity.ErrDegenerateVector):
		return ErrDegenerateVector.WithError(err)
	case errors.Is(err, similarity.ErrInvalidThreshold):
		return ErrInvalidThreshold.WithError(err)
	default:
		return err
	}
}

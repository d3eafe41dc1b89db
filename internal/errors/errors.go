package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fraud-signal-engine/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategorySourceUnavailable is a named upstream that timed out, returned non-200 or a malformed body
	CategorySourceUnavailable ErrorCategory = "source_unavailable"
	// CategoryNoData is raised when every fallback was exhausted
	CategoryNoData ErrorCategory = "no_data"
	// CategoryDetectorFault is an unexpected failure inside a detector
	CategoryDetectorFault ErrorCategory = "detector_fault"
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategoryValidation represents validation errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryCache represents cache errors
	CategoryCache ErrorCategory = "cache"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Acquisition errors

// NewSourceUnavailableError wraps a transport or protocol failure of a named source
func NewSourceUnavailableError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySourceUnavailable,
		StatusCode: http.StatusBadGateway,
		Code:       "SOURCE_UNAVAILABLE",
		Message:    fmt.Sprintf("transaction source unavailable: %s", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewSourceTimeoutError is returned when a source does not answer within the attempt timeout
func NewSourceTimeoutError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySourceUnavailable,
		StatusCode: http.StatusGatewayTimeout,
		Code:       "SOURCE_TIMEOUT",
		Message:    fmt.Sprintf("transaction source timed out: %s", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewSourceStatusError is returned when a source answers with a non-200 status
func NewSourceStatusError(source string, status int) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySourceUnavailable,
		StatusCode: http.StatusBadGateway,
		Code:       "SOURCE_BAD_STATUS",
		Message:    fmt.Sprintf("transaction source %s returned status %d", source, status),
		Details: map[string]interface{}{
			"source": source,
			"status": status,
		},
	}
}

// NewMalformedBodyError is returned when a source body is not a JSON array of records
func NewMalformedBodyError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySourceUnavailable,
		StatusCode: http.StatusBadGateway,
		Code:       "SOURCE_MALFORMED_BODY",
		Message:    fmt.Sprintf("transaction source %s returned a malformed body", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewNoDataAvailableError signals that every fallback was exhausted
func NewNoDataAvailableError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNoData,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "NO_DATA_AVAILABLE",
		Message:    "no transaction data available from any source",
	}
}

// Analysis errors

// NewDetectorFaultError wraps an unexpected failure raised by a detector
func NewDetectorFaultError(signal types.Signal, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDetectorFault,
		StatusCode: http.StatusInternalServerError,
		Code:       "DETECTOR_FAULT",
		Message:    fmt.Sprintf("detector %s failed", signal),
		Cause:      cause,
		Details: map[string]interface{}{
			"signal": string(signal),
		},
	}
}

// User input errors (4xx)

// NewInvalidAddressError creates an invalid address error
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ADDRESS",
		Message:    fmt.Sprintf("invalid address format: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit float64) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"limit": limit,
		},
	}
}

// System errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache error
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	return NewInternalError("unexpected error", err)
}

// HasCategory reports whether err is a categorized error of the given category
func HasCategory(err error, category ErrorCategory) bool {
	var catErr *CategorizedError
	if !errors.As(err, &catErr) {
		return false
	}
	return catErr.Category == category
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 500
}

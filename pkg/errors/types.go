package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// Caller input errors
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeStaleMapping ErrorCode = "STALE_MAPPING"

	// Remote scraping service errors
	ErrCodeQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeAuth             ErrorCode = "AUTH"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE"
	ErrCodeNoData           ErrorCode = "NO_DATA"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Database errors
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"

	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(cause, code, fmt.Sprintf(format, args...))
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeStaleMapping:
		return http.StatusGone
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeQuotaExceeded:
		return http.StatusPaymentRequired
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTransientNetwork:
		return http.StatusServiceUnavailable
	case ErrCodeNoData:
		return http.StatusUnprocessableEntity
	case ErrCodeAuth, ErrCodeExternalService:
		// AUTH refers to our credentials at the remote service, not the caller's
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// ConfigurationError reports a missing or invalid setting. Callers cannot fix it themselves.
func ConfigurationError(key string, reason string) *AppError {
	return Newf(ErrCodeConfiguration, "configuration error for '%s': %s. Please contact the administrator", key, reason).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return Newf(ErrCodeValidation, "validation failed for field '%s': %s", field, reason).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// QuotaExceededError reports exhausted credit at the scraping provider
func QuotaExceededError(service string, cause error) *AppError {
	return Wrapf(cause, ErrCodeQuotaExceeded,
		"%s credit or usage quota is exhausted. Please contact the administrator to top up the account", service).
		WithDetail("service", service)
}

// AuthError reports rejected credentials at the scraping provider
func AuthError(service string, cause error) *AppError {
	return Wrapf(cause, ErrCodeAuth,
		"%s rejected the configured API token. Please contact the administrator to verify it", service).
		WithDetail("service", service)
}

// RateLimitedError reports throttling by the scraping provider
func RateLimitedError(service string, cause error) *AppError {
	return Wrapf(cause, ErrCodeRateLimited, "%s is rate limiting requests, please try again in a moment", service).
		WithDetail("service", service)
}

// TransientNetworkError reports a timeout or connection failure
func TransientNetworkError(service string, cause error) *AppError {
	return Wrapf(cause, ErrCodeTransientNetwork, "could not reach %s, please try again later", service).
		WithDetail("service", service)
}

// StaleMappingError reports an expired or already consumed pending token
func StaleMappingError(token string) *AppError {
	return New(ErrCodeStaleMapping, "scrape results have expired or were already saved, please start the scrape again").
		WithDetail("token", token)
}

// NoDataError reports a successful run that produced zero records
func NoDataError(platform, keyword string) *AppError {
	return Newf(ErrCodeNoData, "no data found on %s for keyword '%s', try another keyword or date range", platform, keyword).
		WithDetail("platform", platform).
		WithDetail("keyword", keyword)
}

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return Newf(ErrCodeNotFound, "%s not found", resource).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// Conflict creates a conflict error
func Conflict(resource string, reason string) *AppError {
	return Newf(ErrCodeConflict, "%s: %s", resource, reason).
		WithDetail("resource", resource)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *AppError {
	return Wrapf(cause, ErrCodeDatabaseQuery, "database %s failed", operation).
		WithDetail("operation", operation)
}

// ExternalServiceError creates an external service error
func ExternalServiceError(service string, cause error) *AppError {
	return Wrapf(cause, ErrCodeExternalService, "external service '%s' error", service).
		WithDetail("service", service)
}

// As returns the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether the operation that produced err may be retried
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeRateLimited, ErrCodeTransientNetwork:
		return true
	}
	return false
}

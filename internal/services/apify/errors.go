package apify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

var (
	// ErrWaitTimeout indicates the run did not reach a terminal status within MaxWait
	ErrWaitTimeout = errors.New("run did not finish in time")

	// ErrRunCancelled indicates the caller cancelled the job while waiting
	ErrRunCancelled = errors.New("run cancelled")
)

// APIError is the raw non-2xx response from the scraping service
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Endpoint, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// The remote API reports billing and auth problems as free text, so these lists are matched
// against the lowercased type and message.
var (
	quotaMarkers = []string{
		"insufficient credit",
		"not enough usage",
		"usage hard limit",
		"monthly usage",
		"payment required",
		"quota",
		"credit",
		"billing",
	}
	authMarkers = []string{
		"unauthorized",
		"invalid token",
		"token-not-valid",
		"token is not valid",
		"user-or-token-not-found",
		"authentication",
	}
	rateMarkers = []string{
		"rate limit",
		"rate-limit",
		"too many requests",
	}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// newAPIError reads the error type and message from a response body
func newAPIError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Endpoint: endpoint}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Type = parsed.Error.Type
		apiErr.Message = parsed.Error.Message
	} else {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 500 {
			msg = msg[:500]
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		apiErr.Message = msg
	}
	return apiErr
}

// classifyAPIError maps a non-2xx response onto the application error taxonomy
func classifyAPIError(apiErr *APIError) error {
	text := strings.ToLower(apiErr.Type + " " + apiErr.Message)

	switch {
	case apiErr.StatusCode == http.StatusPaymentRequired || containsAny(text, quotaMarkers):
		return apperrors.QuotaExceededError(ServiceName, apiErr)
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden || containsAny(text, authMarkers):
		return apperrors.AuthError(ServiceName, apiErr)
	case apiErr.StatusCode == http.StatusTooManyRequests || containsAny(text, rateMarkers):
		return apperrors.RateLimitedError(ServiceName, apiErr)
	case apiErr.StatusCode >= 500:
		return apperrors.TransientNetworkError(ServiceName, apiErr)
	default:
		return apperrors.ExternalServiceError(ServiceName, apiErr).
			WithDetail("status_code", apiErr.StatusCode)
	}
}

// classifyTransportError maps a failed round trip onto the taxonomy
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.TransientNetworkError(ServiceName, err)
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return apperrors.TransientNetworkError(ServiceName, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "eof") {
		return apperrors.TransientNetworkError(ServiceName, err)
	}
	return apperrors.ExternalServiceError(ServiceName, err)
}

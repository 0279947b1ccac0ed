package convert

import (
	"strings"
)

// ErrorClass represents whether a catalog error should be retried or not.
type ErrorClass int

const (
	// ErrorClassRetryable indicates the lookup should be retried (transient errors).
	ErrorClassRetryable ErrorClass = iota
	// ErrorClassFatal indicates the lookup should not be retried (permanent errors).
	ErrorClassFatal
	// ErrorClassUnknown indicates the error type cannot be determined.
	ErrorClassUnknown
)

// String returns a human-readable name for the error class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassRetryable:
		return "retryable"
	case ErrorClassFatal:
		return "fatal"
	case ErrorClassUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ClassifyCatalogError classifies catalog API errors into retryable vs fatal.
// Catalog clients surface HTTP failures as flat error strings, so the
// classification works on message patterns.
//
// Fatal (non-retryable):
//   - auth failures (401/403, invalid client, bad API key)
//   - track not found (404, deleted, unavailable)
//   - invalid input (malformed ids or queries)
//
// Retryable (transient):
//   - server errors (500/502/503/504)
//   - network errors (resets, timeouts, DNS)
//   - rate limiting (429)
//
// Unknown-pattern errors are treated as retryable so one transient blip
// doesn't kill a conversion.
func ClassifyCatalogError(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}
	lower := strings.ToLower(err.Error())

	// Server errors first; "service unavailable" must not fall through to the
	// not-found patterns below.
	serverPatterns := []string{
		"500", "502", "503", "504",
		"internal server error",
		"bad gateway",
		"service unavailable",
		"gateway timeout",
	}
	for _, p := range serverPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassRetryable
		}
	}

	// Rate limiting before auth; YouTube reports quota exhaustion as a 403.
	rateLimitPatterns := []string{
		"429",
		"too many requests",
		"rate limit",
		"quotaexceeded",
		"quota exceeded",
		"throttled",
	}
	for _, p := range rateLimitPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassRetryable
		}
	}

	authPatterns := []string{
		"401", "403",
		"unauthorized",
		"access denied",
		"invalid_client",
		"invalid client",
		"api key not valid",
		"keyinvalid",
	}
	for _, p := range authPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassFatal
		}
	}

	notFoundPatterns := []string{
		"404",
		"not found",
		"deleted",
		"no longer available",
		"does not exist",
	}
	for _, p := range notFoundPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassFatal
		}
	}

	invalidInputPatterns := []string{
		"invalid id",
		"track id empty",
		"video id empty",
		"invalid url",
		"malformed url",
	}
	for _, p := range invalidInputPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassFatal
		}
	}

	networkPatterns := []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"timeout",
		"temporary failure in name resolution",
		"no route to host",
		"network unreachable",
		"dns",
		"eof",
		"broken pipe",
	}
	for _, p := range networkPatterns {
		if strings.Contains(lower, p) {
			return ErrorClassRetryable
		}
	}

	return ErrorClassRetryable
}

// IsRetryableError checks if an error should trigger a retry.
func IsRetryableError(err error) bool {
	return ClassifyCatalogError(err) == ErrorClassRetryable
}

// IsFatalError checks if an error should not be retried.
func IsFatalError(err error) bool {
	return ClassifyCatalogError(err) == ErrorClassFatal
}

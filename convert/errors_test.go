package convert

import (
	"errors"
	"testing"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorClassRetryable, "retryable"},
		{ErrorClassFatal, "fatal"},
		{ErrorClassUnknown, "unknown"},
		{ErrorClass(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.class.String()
			if got != tt.want {
				t.Errorf("ErrorClass.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyCatalogError_Fatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		// Authentication/Authorization errors
		{"401 unauthorized", errors.New("spotify api status 401: unauthorized")},
		{"403 forbidden", errors.New("itunes api status 403")},
		{"invalid client", errors.New("oauth2: \"invalid_client\" \"Invalid client secret\"")},
		{"bad api key", errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key., badRequest")},
		{"key invalid", errors.New("googleapi: Error 400: keyInvalid")},

		// Not found errors
		{"404 not found", errors.New("spotify api status 404: non existing id")},
		{"track not found", errors.New("track 123 not found")},
		{"deleted", errors.New("this track has been deleted")},
		{"no longer available", errors.New("content is no longer available")},

		// Invalid input
		{"empty track id", errors.New("track id empty")},
		{"empty video id", errors.New("video id empty")},
		{"invalid url", errors.New("invalid url supplied")},

		// Case insensitive matching
		{"uppercase NOT FOUND", errors.New("Track NOT FOUND")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCatalogError(tt.err)
			if got != ErrorClassFatal {
				t.Errorf("ClassifyCatalogError(%q) = %v, want %v", tt.err, got, ErrorClassFatal)
			}
		})
	}
}

func TestClassifyCatalogError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		// Server errors
		{"500 internal", errors.New("spotify api status 500: internal server error")},
		{"502 bad gateway", errors.New("itunes api status 502: bad gateway")},
		{"503 unavailable", errors.New("itunes api status 503: service unavailable")},
		{"504 gateway timeout", errors.New("gateway timeout")},

		// Network errors
		{"connection reset", errors.New("read tcp: connection reset by peer")},
		{"connection refused", errors.New("dial tcp: connection refused")},
		{"timeout", errors.New("context deadline exceeded (Client.Timeout exceeded)")},
		{"dns failure", errors.New("lookup api.spotify.com: temporary failure in name resolution")},
		{"eof", errors.New("unexpected EOF")},

		// Rate limiting
		{"429", errors.New("spotify api status 429: too many requests")},
		{"rate limit", errors.New("rate limit exceeded")},
		{"youtube quota", errors.New("googleapi: Error 403 quotaExceeded: quota exceeded")},

		// Unknown patterns default to retryable
		{"unknown error", errors.New("something odd happened")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCatalogError(tt.err)
			if got != ErrorClassRetryable {
				t.Errorf("ClassifyCatalogError(%q) = %v, want %v", tt.err, got, ErrorClassRetryable)
			}
		})
	}
}

func TestClassifyCatalogError_ServerBeatsNotFound(t *testing.T) {
	// "service unavailable" contains "unavailable"-adjacent wording but must
	// classify as retryable, not fatal.
	err := errors.New("itunes api status 503: service unavailable")
	if got := ClassifyCatalogError(err); got != ErrorClassRetryable {
		t.Errorf("ClassifyCatalogError(%q) = %v, want retryable", err, got)
	}
}

func TestClassifyCatalogError_Nil(t *testing.T) {
	if got := ClassifyCatalogError(nil); got != ErrorClassUnknown {
		t.Errorf("ClassifyCatalogError(nil) = %v, want unknown", got)
	}
}

func TestIsRetryableAndFatalHelpers(t *testing.T) {
	retryable := errors.New("connection reset by peer")
	fatal := errors.New("404 not found")

	if !IsRetryableError(retryable) {
		t.Error("IsRetryableError(connection reset) = false, want true")
	}
	if IsFatalError(retryable) {
		t.Error("IsFatalError(connection reset) = true, want false")
	}
	if !IsFatalError(fatal) {
		t.Error("IsFatalError(404) = false, want true")
	}
	if IsRetryableError(fatal) {
		t.Error("IsRetryableError(404) = true, want false")
	}
}

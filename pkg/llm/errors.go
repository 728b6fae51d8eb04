package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited means the provider asked us to slow down.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrQuotaExhausted means the account has no credits or quota left.
	ErrQuotaExhausted = errors.New("llm: quota exhausted")
	// ErrUnavailable covers 5xx and other retryable provider failures.
	ErrUnavailable = errors.New("llm: provider unavailable")
)

var quotaMarkers = []string{
	"credit balance",
	"insufficient_quota",
	"quota exceeded",
	"billing",
	"payment required",
}

// StatusError wraps a non-2xx provider response with its classified sentinel.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	Kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// ClassifyStatus maps a provider HTTP status and body onto one of the sentinels.
// A nil Kind means the failure is not one the caller should treat specially.
func ClassifyStatus(provider string, status int, body string) error {
	lower := strings.ToLower(body)
	var kind error
	switch {
	case status == http.StatusPaymentRequired:
		kind = ErrQuotaExhausted
	case containsAny(lower, quotaMarkers):
		kind = ErrQuotaExhausted
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrUnavailable
	}
	return &StatusError{Provider: provider, StatusCode: status, Body: body, Kind: kind}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

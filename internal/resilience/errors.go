// Package resilience provides retry with backoff and error
// classification for the row pipeline.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/pkg/search"
)

// TransientError wraps an error that is safe to retry (429, 5xx,
// network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// BlockedError marks a response shaped like anti-bot protection.
// Surfaced as its own reason code, never treated as "not found".
type BlockedError struct {
	URL       string
	BlockType string
}

func (e *BlockedError) Error() string {
	return "blocked response from " + e.URL + " (" + e.BlockType + ")"
}

// IsTransient returns true if the error (or any error in its chain) is
// a TransientError or matches common transient network patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether the status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// IsDNSFailure reports whether the error chain contains a DNS
// resolution failure.
func IsDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// Classify maps a row-pipeline error to its decision status and reason
// code. Nothing escapes the row boundary unclassified.
func Classify(err error) (model.DecisionStatus, model.ReasonCode) {
	switch {
	case err == nil:
		return model.StatusErrorInternal, model.ReasonInternal
	case errors.Is(err, context.DeadlineExceeded):
		return model.StatusErrorTimeout, model.ReasonTransientFetch
	case errors.Is(err, search.ErrRateLimited):
		return model.StatusErrorFetch, model.ReasonProviderRateLimit
	case isBlocked(err):
		return model.StatusErrorBlocked, model.ReasonBlocked
	case IsDNSFailure(err):
		return model.StatusErrorDNS, model.ReasonDNSFailure
	case IsTransient(err):
		return model.StatusErrorFetch, model.ReasonTransientFetch
	default:
		return model.StatusErrorInternal, model.ReasonInternal
	}
}

func isBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be)
}

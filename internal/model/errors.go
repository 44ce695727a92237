package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four transport outcome classes.
// Use errors.Is() to check against these.
var (
	ErrTimeout        = errors.New("request timed out")
	ErrNetwork        = errors.New("network failure")
	ErrUpstreamStatus = errors.New("upstream status")
	ErrDecode         = errors.New("response decode failure")
)

// TransportError classifies one failed attempt against a candidate URL.
// Implements error interface and supports unwrapping to the sentinels above.
//
// Timeout, network, and status failures are retryable: a different template
// (or a later pass) may answer. Decode failures are not - the endpoint is
// reachable and replaying the request yields the same undecodable bytes.
type TransportError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"` // upstream HTTP status, if any
	URL     string `json:"-"`                // secret-redacted candidate URL
	Err     error  `json:"-"`                // wrapped sentinel chain
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *TransportError) Retryable() bool {
	return !errors.Is(e.Err, ErrDecode)
}

// NewTimeoutError classifies an attempt that exceeded its deadline.
func NewTimeoutError(url string, cause error) *TransportError {
	return &TransportError{
		Code:    "TIMEOUT",
		Message: fmt.Sprintf("no response within deadline from %s", url),
		URL:     url,
		Err:     fmt.Errorf("%w: %v", ErrTimeout, cause),
	}
}

// NewNetworkError classifies a transport-level fault (DNS, refused, TLS).
func NewNetworkError(url string, cause error) *TransportError {
	return &TransportError{
		Code:    "NETWORK_ERROR",
		Message: fmt.Sprintf("transport fault reaching %s", url),
		URL:     url,
		Err:     fmt.Errorf("%w: %v", ErrNetwork, cause),
	}
}

// NewStatusError classifies a non-2xx response.
func NewStatusError(url string, status int) *TransportError {
	return &TransportError{
		Code:    "UPSTREAM_STATUS",
		Message: fmt.Sprintf("unexpected response from %s", url),
		Status:  status,
		URL:     url,
		Err:     fmt.Errorf("%w: %d", ErrUpstreamStatus, status),
	}
}

// NewDecodeError classifies a 2xx response whose body is not valid JSON.
func NewDecodeError(url string, cause error) *TransportError {
	return &TransportError{
		Code:    "DECODE_ERROR",
		Message: fmt.Sprintf("undecodable response body from %s", url),
		URL:     url,
		Err:     fmt.Errorf("%w: %v", ErrDecode, cause),
	}
}

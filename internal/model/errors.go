package model

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCategory is the scheduling-relevant category an adapter error carries.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryRateLimited
	CategoryAuth
	CategoryParse
	CategoryNetwork
	CategoryServer
	CategoryClient
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryAuth:
		return "auth"
	case CategoryParse:
		return "parse"
	case CategoryNetwork:
		return "network"
	case CategoryServer:
		return "server"
	case CategoryClient:
		return "client"
	}
	return "unknown"
}

// Categorized is implemented by errors that know their category.
type Categorized interface {
	Category() ErrorCategory
}

// HTTPError wraps an HTTP status code so retry and classification logic can
// inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Category maps the status code onto an error category. Forbidden and
// service-unavailable are treated as throttling: career sites commonly
// answer a blocked crawler with either.
func (e *HTTPError) Category() ErrorCategory {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusForbidden, http.StatusServiceUnavailable:
		return CategoryRateLimited
	case http.StatusUnauthorized, http.StatusProxyAuthRequired:
		return CategoryAuth
	}
	switch {
	case e.StatusCode >= 500:
		return CategoryServer
	case e.StatusCode >= 400:
		return CategoryClient
	}
	return CategoryUnknown
}

// SourceError is a categorized adapter failure that is not tied to an HTTP
// status, e.g. a response body that could not be decoded.
type SourceError struct {
	Cat     ErrorCategory
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Cat, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Cat, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Category() ErrorCategory {
	return e.Cat
}

// ParseErrorf builds a parse-category SourceError.
func ParseErrorf(err error, format string, args ...any) *SourceError {
	return &SourceError{Cat: CategoryParse, Message: fmt.Sprintf(format, args...), Err: err}
}

// NetworkError builds a network-category SourceError.
func NetworkError(err error, msg string) *SourceError {
	return &SourceError{Cat: CategoryNetwork, Message: msg, Err: err}
}

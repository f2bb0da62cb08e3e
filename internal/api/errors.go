package api

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure so callers can branch on error class
// instead of string-matching messages. Transient failures are the only
// kind that is safe to retry.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication      // 401: invalid or missing API key
	KindAuthorization       // 403: valid key, insufficient permission or IP not whitelisted
	KindNotFound            // 404: content/media id does not exist
	KindTransient           // timeout, connection failure, 408/429, 5xx
	KindValidation          // malformed request, rejected client-side or by the server (other 4xx)
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not found"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is a typed API failure carrying enough context to diagnose without
// re-running with verbose logging: site, endpoint, HTTP status, and a body
// excerpt from the server's error response.
type Error struct {
	Kind       Kind
	Site       string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s %s", e.Kind, e.Site, e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrKind extracts the failure kind from err, or KindUnknown if err is not
// an API error.
func ErrKind(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsAuthentication reports whether err is a 401-class failure
func IsAuthentication(err error) bool { return ErrKind(err) == KindAuthentication }

// IsAuthorization reports whether err is a 403-class failure
func IsAuthorization(err error) bool { return ErrKind(err) == KindAuthorization }

// IsNotFound reports whether err is a 404-class failure
func IsNotFound(err error) bool { return ErrKind(err) == KindNotFound }

// IsTransient reports whether err is safe to retry with backoff
func IsTransient(err error) bool { return ErrKind(err) == KindTransient }

// IsValidation reports whether err is a malformed-request failure
func IsValidation(err error) bool { return ErrKind(err) == KindValidation }

// classifyStatus maps an HTTP status code to an error kind
func classifyStatus(code int) Kind {
	switch {
	case code == 401:
		return KindAuthentication
	case code == 403:
		return KindAuthorization
	case code == 404:
		return KindNotFound
	case code == 408 || code == 429 || code >= 500:
		return KindTransient
	case code >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

package catalog

import "fmt"

// ErrorKind tags every failure the catalog client can produce. Callers branch
// on the kind; no raw transport error ever crosses the package boundary.
type ErrorKind string

const (
	KindMissingCredentials ErrorKind = "MissingCredentials"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindBadRequest         ErrorKind = "BadRequest"
	KindUnauthorized       ErrorKind = "Unauthorized"
	KindForbidden          ErrorKind = "Forbidden"
	KindTooManyRequests    ErrorKind = "TooManyRequests"
	KindServerError        ErrorKind = "ServerError"
	KindNetworkError       ErrorKind = "NetworkError"
	KindTimeoutError       ErrorKind = "TimeoutError"
	KindInvalidResponse    ErrorKind = "InvalidResponse"
	KindUnknownError       ErrorKind = "UnknownError"
)

// Retryable reports whether the caller may retry the same request unchanged.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindServiceUnavailable, KindNetworkError, KindTimeoutError, KindServerError:
		return true
	}
	return false
}

// APIError is the uniform failure shape of the catalog client. It carries the
// remote error code when one was supplied and a synthesized HTTP status when
// the failure never reached the remote API.
type APIError struct {
	Kind       ErrorKind
	Message    string
	Code       string
	HTTPStatus int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("catalog %s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("catalog %s: %s", e.Kind, e.Message)
}

// KindForStatus classifies an HTTP status into an error kind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 400:
		return KindBadRequest
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 429:
		return KindTooManyRequests
	case status == 503:
		return KindServiceUnavailable
	case status >= 500:
		return KindServerError
	case status >= 400:
		return KindBadRequest
	default:
		return KindInvalidResponse
	}
}

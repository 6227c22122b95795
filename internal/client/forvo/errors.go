package forvo

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrResponseTooLarge indicates that the API response exceeded the size limit.
	ErrResponseTooLarge = errors.New("response is too large")
)

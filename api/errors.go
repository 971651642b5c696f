package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any *Error whose HTTP status is 404. Against this
// backend a 404 on the metadata routes means the server is not a
// meme-generator-rs instance, or one too old to expose them.
var ErrNotFound = errors.New("backend route not found")

// Error codes for failures that never produced an HTTP response.
const (
	CodeRequestFailed     = "REQUEST_FAILED"
	CodeTimeout           = "TIMEOUT"
	CodeConnectionRefused = "CONNECTION_REFUSED"
	CodeHostNotFound      = "HOST_NOT_FOUND"
	CodeBodyTooLarge      = "BODY_TOO_LARGE"
	CodeDecodeFailed      = "DECODE_FAILED"
	CodeHTTPStatus        = "HTTP_STATUS"
)

// Error is returned by every Client call. HTTPStatus is zero when the
// request failed before a response was received.
type Error struct {
	Err        error
	Method     string
	Path       string
	Code       string
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.HTTPStatus, http.StatusText(e.HTTPStatus), e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, api.ErrNotFound).
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.HTTPStatus == http.StatusNotFound
}

// IsNotFound reports whether err carries a 404 from the backend.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// HTTPStatus extracts the backend status code from err, or 0.
func HTTPStatus(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus
	}
	return 0
}

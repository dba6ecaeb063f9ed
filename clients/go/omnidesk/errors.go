package omnidesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTimeout is wrapped by every error caused by the gateway's fixed timeout.
	ErrTimeout = errors.New("omnidesk: request timed out")

	// ErrNotAuthenticated is returned by calls that need a session when none is held.
	ErrNotAuthenticated = errors.New("omnidesk: not authenticated")

	// ErrPlatformNotConfigured is returned when a platform has no adapter.
	ErrPlatformNotConfigured = errors.New("omnidesk: platform not configured")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("omnidesk error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("omnidesk error %d: %s", e.StatusCode, e.Message)
}

// newStatusError extracts a human message from the usual {"error": ...} or
// {"message": ...} bodies and keeps the raw body for callers that need more.
func newStatusError(status int, body []byte) *StatusError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = payload.Detail
	}
	if msg == "" && !json.Valid(body) {
		msg = truncateRunes(strings.TrimSpace(string(body)), maxErrorMessageRunes)
	}

	return &StatusError{StatusCode: status, Message: msg, Body: body}
}

const maxErrorMessageRunes = 200

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

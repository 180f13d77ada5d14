package qfc_http

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/davarch/qfc-sync/internal/domain"
)

const (
	codeProjectAlreadyExists = "project_already_exists"
	maxErrorBody             = 512
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Code       string
	Body       string // trimmed to maxErrorBody bytes

	alreadyExists bool
}

func newAPIError(method, url string, resp *http.Response, body []byte) *APIError {
	e := &APIError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
	}
	if v, err := domain.ParseValue(body); err == nil {
		e.Code = v.GetText("code")
	}
	e.alreadyExists = strings.Contains(string(body), codeProjectAlreadyExists)
	return e
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrAlreadyExists:
		return e.StatusCode == http.StatusConflict ||
			e.alreadyExists ||
			e.Code == codeProjectAlreadyExists ||
			strings.Contains(e.Body, codeProjectAlreadyExists)
	}
	return false
}

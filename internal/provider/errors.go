package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fragmede/passage/internal/render"
)

const maxErrorText = 200

// Error is a non-2xx answer from the auth service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth provider: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("auth provider: %s (%d)", e.Message, e.Status)
}

// errorBody covers the shapes GoTrue has used over time.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func parseError(status int, contentType string, raw []byte) *Error {
	e := &Error{Status: status}

	var b errorBody
	if err := json.Unmarshal(raw, &b); err != nil {
		if render.LooksLikeHTML(contentType, raw) {
			e.Message = render.HTMLToText(string(raw), maxErrorText)
		} else {
			e.Message = strings.TrimSpace(string(raw))
		}
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	e.Code = firstNonEmpty(b.ErrorCode, b.Error)
	if e.Code == "" {
		if code, ok := b.Code.(string); ok {
			e.Code = code
		}
	}
	e.Message = firstNonEmpty(b.Msg, b.Message, b.ErrorDescription, b.Error, http.StatusText(status))
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

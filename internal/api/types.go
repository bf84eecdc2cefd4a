package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the API response body exactly as received. Its shape belongs
// to the backend; callers pick out what they need with Decode.
type AuthResult json.RawMessage

// Decode unmarshals the result into v.
func (r AuthResult) Decode(v any) error {
	return json.Unmarshal(r, v)
}

// MarshalJSON keeps the body verbatim when the result is re-encoded.
func (r AuthResult) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return r, nil
}

// ErrorPayload is the error returned by Login and Register. Message mirrors
// the backend's "message" field when it is a string; every other field of the
// backend body, including a non-string "message", is kept in Fields. Status is
// the HTTP status, or 0 when no response arrived.
type ErrorPayload struct {
	Message string
	Fields  map[string]any
	Status  int

	// hasMessage records a string "message" key in the backend body, so an
	// empty message survives re-encoding.
	hasMessage bool
}

func (e *ErrorPayload) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return "request failed"
}

// MarshalJSON flattens the payload back into the backend's shape. A
// "message" key is written only when the backend sent one or Message is set.
func (e *ErrorPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.Message != "" || e.hasMessage {
		out["message"] = e.Message
	}
	return json.Marshal(out)
}

func (e *ErrorPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("error payload is not an object")
	}
	e.Message = ""
	e.Fields = nil
	e.hasMessage = false
	if msg, ok := raw["message"].(string); ok {
		e.Message = msg
		e.hasMessage = true
		delete(raw, "message")
	}
	if len(raw) > 0 {
		e.Fields = raw
	}
	return nil
}

// AsErrorPayload unwraps err into an *ErrorPayload.
func AsErrorPayload(err error) (*ErrorPayload, bool) {
	var p *ErrorPayload
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

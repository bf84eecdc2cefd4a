package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/fragmede/passage/internal/render"
)

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
)

// Client talks to the REST authentication API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// https://example.com/api/auth.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Client{
		http:    &http.Client{Jar: jar},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Login sends the credentials to {base}/login and returns the response body
// untouched. Any failure is reported as an *ErrorPayload.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.post(ctx, "/login", Credentials{Email: email, Password: password}, loginFallback)
}

// Register sends userData to {base}/register as JSON. The payload is not
// inspected.
func (c *Client) Register(ctx context.Context, userData any) (AuthResult, error) {
	return c.post(ctx, "/register", userData, registerFallback)
}

// post performs one JSON POST. Errors are always *ErrorPayload: the backend's
// JSON object body for non-2xx responses, otherwise the fallback message.
func (c *Client) post(ctx context.Context, path string, payload any, fallback string) (AuthResult, error) {
	start := time.Now()
	url := c.baseURL + path

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("api: POST %s: encoding body: %v", path, err)
		return nil, fallbackError(fallback, 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("api: POST %s: creating request: %v", path, err)
		return nil, fallbackError(fallback, 0)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "passage/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("api: POST %s: %v (%s)", path, err, time.Since(start))
		return nil, fallbackError(fallback, 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	log.Printf("api: POST %s: status=%d bytes=%d (%s)", path, resp.StatusCode, len(respBody), time.Since(start))
	if err != nil {
		return nil, fallbackError(fallback, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if payload, ok := parseErrorPayload(respBody); ok {
			payload.Status = resp.StatusCode
			return nil, payload
		}
		log.Printf("api: POST %s: unparseable error body: %q", path, excerpt(resp.Header.Get("Content-Type"), respBody))
		return nil, fallbackError(fallback, resp.StatusCode)
	}

	return AuthResult(respBody), nil
}

func excerpt(contentType string, body []byte) string {
	if render.LooksLikeHTML(contentType, body) {
		return render.HTMLToText(string(body), 120)
	}
	return render.Truncate(strings.TrimSpace(string(body)), 120)
}

func fallbackError(msg string, status int) *ErrorPayload {
	return &ErrorPayload{Message: msg, Status: status}
}

// parseErrorPayload accepts only a JSON object; anything else is treated as
// an unparseable body.
func parseErrorPayload(body []byte) (*ErrorPayload, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	var p ErrorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false
	}
	return &p, true
}


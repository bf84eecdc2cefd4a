// Package provider is a client for a GoTrue-compatible hosted auth service.
// It implements session.Provider and keeps the current session in memory.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fragmede/passage/internal/session"
)

const requestTimeout = 15 * time.Second

type listener struct {
	id uuid.UUID
	fn func(session.Event, *session.Session)
}

// Client is the auth provider client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string

	// emitMu orders event delivery: a listener's INITIAL_SESSION is
	// delivered before any later change. Listeners must not change the
	// session from inside a callback.
	emitMu sync.Mutex

	mu        sync.Mutex
	current   *session.Session
	listeners []listener
}

var _ session.Provider = (*Client)(nil)

// New creates a client for the auth service at baseURL (for Supabase,
// https://<project>.supabase.co/auth/v1) using the project's public API key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Session returns the in-memory session, or nil.
func (c *Client) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SignInWithPassword exchanges email and password for a session and
// announces it with SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	body := map[string]string{"email": email, "password": password}
	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &tr); err != nil {
		return nil, err
	}
	s := tr.session()
	c.setSession(session.EventSignedIn, s)
	return s, nil
}

// SignUp creates an account. When the service confirms the account right
// away it also returns a session, which is adopted like a sign in. Otherwise
// the returned session is nil.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]any) (*session.Session, error) {
	body := map[string]any{"email": email, "password": password}
	if len(data) > 0 {
		body["data"] = data
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &raw); err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("decoding signup response: %w", err)
	}
	if tr.AccessToken == "" {
		// Confirmation pending: the body is the bare user.
		return nil, nil
	}
	s := tr.session()
	c.setSession(session.EventSignedIn, s)
	return s, nil
}

// SignOut revokes the session remotely and always drops it locally.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	var err error
	if cur != nil {
		err = c.do(ctx, http.MethodPost, "/logout", cur.AccessToken, nil, nil)
		if err != nil {
			log.Printf("provider: remote sign out failed: %v", err)
		}
	}
	c.setSession(session.EventSignedOut, nil)
	return err
}

// SetSession adopts a session obtained elsewhere. A nil session signs out
// locally.
func (c *Client) SetSession(s *session.Session) {
	if s == nil {
		c.setSession(session.EventSignedOut, nil)
		return
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = expiryFromToken(s.AccessToken, s.ExpiresIn, time.Now())
	}
	c.setSession(session.EventSignedIn, s)
}

// GetUser returns the user behind the current session, or nil when there is
// no session.
func (c *Client) GetUser(ctx context.Context) (*session.User, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return nil, nil
	}

	var u session.User
	if err := c.do(ctx, http.MethodGet, "/user", cur.AccessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// OnSessionChange registers fn. It is called right away with
// INITIAL_SESSION and the current session, then for every change, on the
// goroutine that caused it.
func (c *Client) OnSessionChange(fn func(session.Event, *session.Session)) session.Subscription {
	id := uuid.New()

	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	cur := c.current
	c.mu.Unlock()

	fn(session.EventInitialSession, cur)

	var once sync.Once
	return session.SubscriptionFunc(func() {
		once.Do(func() { c.removeListener(id) })
	})
}

func (c *Client) removeListener(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Client) setSession(ev session.Event, s *session.Session) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.current = s
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	log.Printf("provider: %s (listeners=%d)", ev, len(ls))
	for _, l := range ls {
		l.fn(ev, s)
	}
}

// do sends a JSON request and decodes a JSON response into dst when dst is
// non-nil. Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path, token string, in, dst any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return parseError(resp.StatusCode, resp.Header.Get("Content-Type"), raw)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

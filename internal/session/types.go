package session

import (
	"context"
	"encoding/json"
	"time"
)

// Event names a session change pushed by the auth provider.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// User is the authenticated principal as reported by the provider. The store
// treats it as opaque and replaces it wholesale.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Role         string          `json:"role,omitempty"`
	Aud          string          `json:"aud,omitempty"`
	AppMetadata  map[string]any  `json:"app_metadata,omitempty"`
	UserMetadata map[string]any  `json:"user_metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	LastSignInAt *time.Time      `json:"last_sign_in_at,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the original document in Raw so fields this type does
// not model are still available.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	u.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Session is what the provider hands out on sign in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"-"`
	User         *User     `json:"user"`
}

// Provider is the hosted auth service the store mirrors.
type Provider interface {
	// GetUser returns the signed-in user, or nil when nobody is signed in.
	GetUser(ctx context.Context) (*User, error)
	// OnSessionChange registers fn for session-change events until the
	// returned subscription is cancelled.
	OnSessionChange(fn func(Event, *Session)) Subscription
}

// Subscription cancels a registration. Unsubscribe may be called repeatedly.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

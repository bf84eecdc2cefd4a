package provider

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fragmede/passage/internal/session"
)

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int           `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *session.User `json:"user"`
}

func (tr tokenResponse) session() *session.Session {
	s := &session.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
		User:         tr.User,
	}
	if tr.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	} else {
		s.ExpiresAt = expiryFromToken(tr.AccessToken, tr.ExpiresIn, time.Now())
	}
	return s
}

// expiryFromToken reads the exp claim without verifying the signature; the
// token is only ever sent back to the service that issued it. It falls back
// to now+expiresIn, then to the zero time.
func expiryFromToken(token string, expiresIn int, now time.Time) time.Time {
	if token != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				return exp.Time
			}
		}
	}
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}

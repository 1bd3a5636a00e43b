// internal/client/token.go

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token attached to presence requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns the same token forever. Used in tests and for
// long-lived service tokens.
type StaticTokenSource string

func (s StaticTokenSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// RefreshFunc obtains a fresh JWT from the auth flow owned elsewhere in
// the application.
type RefreshFunc func(ctx context.Context) (string, error)

// RefreshingTokenSource caches a JWT and asks the refresh func for a new
// one when the exp claim is within the refresh margin. The token is never
// verified here; signature validation is the server's job.
type RefreshingTokenSource struct {
	refresh RefreshFunc
	margin  time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewRefreshingTokenSource(refresh RefreshFunc, margin time.Duration) *RefreshingTokenSource {
	return &RefreshingTokenSource{
		refresh: refresh,
		margin:  margin,
	}
}

func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Add(s.margin).Before(s.expires) {
		return s.token, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		if s.token != "" {
			// Keep serving the old token; the server rejects it if it
			// really is dead.
			return s.token, nil
		}
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.token = token
	s.expires = tokenExpiry(token)
	return s.token, nil
}

func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

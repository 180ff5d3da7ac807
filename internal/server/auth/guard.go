package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultSessionTTL is how long an admin login stays valid.
const DefaultSessionTTL = 24 * time.Hour

// ErrUnauthorized is returned when a password or session is not accepted.
var ErrUnauthorized = errors.New("unauthorized")

// Guard is the single gate in front of every mutating gallery operation.
type Guard struct {
	verifier Verifier
	store    SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewGuard creates a guard issuing sessions valid for ttl.
// A non-positive ttl selects DefaultSessionTTL.
func NewGuard(verifier Verifier, store SessionStore, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Guard{
		verifier: verifier,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the lifetime of issued sessions.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}

// Login verifies password and issues a new session. There is no lockout or
// attempt counting here; throttling belongs to the transport.
func (g *Guard) Login(ctx context.Context, password string) (Session, error) {
	if !g.verifier.Verify(password) {
		return Session{}, ErrUnauthorized
	}

	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}
	s := Session{ID: id, ExpiresAt: g.now().Add(g.ttl)}
	if err := g.store.Create(ctx, s); err != nil {
		return Session{}, fmt.Errorf("auth: failed to store session: %w", err)
	}
	return s, nil
}

// Authenticate returns the live session for token, or ErrUnauthorized.
func (g *Guard) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	s, err := g.store.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to load session: %w", err)
	}
	if s == nil {
		return nil, ErrUnauthorized
	}
	if s.Expired(g.now()) {
		if err := g.store.Delete(ctx, token); err != nil {
			slog.Warn("failed to drop expired session", "error", err)
		}
		return nil, ErrUnauthorized
	}
	return s, nil
}

// Status reports whether token names a valid, unexpired session. Store
// failures count as unauthenticated.
func (g *Guard) Status(ctx context.Context, token string) bool {
	_, err := g.Authenticate(ctx, token)
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		slog.Error("session lookup failed", "error", err)
	}
	return err == nil
}

// Logout invalidates token. Unknown tokens are ignored.
func (g *Guard) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("auth: failed to delete session: %w", err)
	}
	return nil
}

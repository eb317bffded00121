package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
)

// Keys of the volatile store and names of the session cookies.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	CookieToken = "auth-token"
	CookieUser  = "auth-user"
)

// DefaultMaxAge is the lifetime of the session cookies.
const DefaultMaxAge = 7 * 24 * time.Hour

// Persister writes and clears the session in both locations. The KV copy is
// authoritative; the cookies are a derived copy for the route guard.
type Persister struct {
	kv      KV
	cookies Cookies
	maxAge  time.Duration
}

// NewPersister creates a Persister. maxAge <= 0 selects DefaultMaxAge.
func NewPersister(kv KV, cookies Cookies, maxAge time.Duration) *Persister {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Persister{kv: kv, cookies: cookies, maxAge: maxAge}
}

// Save stores token and user. Nothing reaches the cookies unless the KV
// write succeeded, and a failed cookie write rolls the KV back.
func (p *Persister) Save(ctx context.Context, token string, user domain.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session.Persister.Save: encode user: %w", err)
	}

	if err = p.kv.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("session.Persister.Save: %w", err)
	}
	if err = p.kv.Set(ctx, KeyUser, string(userJSON)); err != nil {
		p.rollback(ctx)
		return fmt.Errorf("session.Persister.Save: %w", err)
	}

	if err = p.cookies.Set(CookieToken, token, p.maxAge); err != nil {
		p.rollback(ctx)
		return fmt.Errorf("session.Persister.Save: %w", err)
	}
	if err = p.cookies.Set(CookieUser, url.QueryEscape(string(userJSON)), p.maxAge); err != nil {
		p.rollback(ctx)
		return fmt.Errorf("session.Persister.Save: %w", err)
	}

	log.Debug().Str("username", user.Username).Str("email", user.Email).Msg("session: saved")
	return nil
}

func (p *Persister) rollback(ctx context.Context) {
	if err := p.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("session: rollback after failed save")
	}
}

// Clear removes the session from the KV and expires both cookies. Every
// removal is attempted; failures are joined.
func (p *Persister) Clear(ctx context.Context) error {
	errs := []error{
		p.kv.Delete(ctx, KeyToken),
		p.kv.Delete(ctx, KeyUser),
		p.cookies.Expire(CookieToken),
		p.cookies.Expire(CookieUser),
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("session.Persister.Clear: %w", err)
	}
	return nil
}

// Load reads the session from the KV. It returns domain.ErrNoSession when
// either key is missing.
func (p *Persister) Load(ctx context.Context) (*domain.Session, error) {
	token, ok, err := p.kv.Get(ctx, KeyToken)
	if err != nil {
		return nil, fmt.Errorf("session.Persister.Load: %w", err)
	}
	if !ok || token == "" {
		return nil, fmt.Errorf("session.Persister.Load: %w", domain.ErrNoSession)
	}

	raw, ok, err := p.kv.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("session.Persister.Load: %w", err)
	}
	if !ok || raw == "" {
		return nil, fmt.Errorf("session.Persister.Load: %w", domain.ErrNoSession)
	}

	var user domain.User
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("session.Persister.Load: decode user: %w", err)
	}

	return &domain.Session{Token: token, User: user}, nil
}

// Token returns the bearer token, or "" when none is stored.
func (p *Persister) Token(ctx context.Context) (string, error) {
	token, _, err := p.kv.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("session.Persister.Token: %w", err)
	}
	return token, nil
}

// HasCookie reports whether the route guard would see a session cookie.
func (p *Persister) HasCookie() bool {
	v, ok := p.cookies.Get(CookieToken)
	return ok && v != ""
}

// UserFromCookie decodes the auth-user cookie value.
func UserFromCookie(value string) (domain.User, error) {
	var user domain.User
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return user, fmt.Errorf("session.UserFromCookie: %w", err)
	}
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		return user, fmt.Errorf("session.UserFromCookie: %w", err)
	}
	return user, nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
)

// AuthAPI is the part of the API client used by the auth store.
type AuthAPI interface {
	Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResponse, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResponse, error)
	ListStates(ctx context.Context) ([]domain.State, error)
}

// SessionStore persists the token and user across requests.
type SessionStore interface {
	Save(ctx context.Context, token string, user domain.User) error
	Load(ctx context.Context) (*domain.Session, error)
	Clear(ctx context.Context) error
}

// Revoker invalidates a token server-side on logout.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthState is the authentication snapshot. Token is non-empty exactly when
// IsAuthenticated is true.
type AuthState struct {
	User            *domain.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

func (s AuthState) clone() AuthState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (s AuthState) pending() AuthState {
	s.IsLoading = true
	s.Error = ""
	return s
}

func (s AuthState) authenticated(token string, user domain.User) AuthState {
	s.IsLoading = false
	s.IsAuthenticated = true
	s.Token = token
	s.User = &user
	s.Error = ""
	return s
}

func (s AuthState) anonymous(errMsg string) AuthState {
	s.IsLoading = false
	s.IsAuthenticated = false
	s.Token = ""
	s.User = nil
	s.Error = errMsg
	return s
}

// AuthDeps are the collaborators of an Auth store.
type AuthDeps struct {
	API      AuthAPI
	Sessions SessionStore
	Texts    messages.Texts
	// Revoker is optional. The remote API exposes no revocation endpoint.
	Revoker Revoker
}

// Auth is the authentication store.
type Auth struct {
	deps AuthDeps
	c    *container[AuthState]
}

func NewAuth(deps AuthDeps) *Auth {
	return &Auth{deps: deps, c: newContainer(AuthState{})}
}

func (a *Auth) State() AuthState { return a.c.snapshot() }

func (a *Auth) Subscribe(fn func(AuthState)) func() { return a.c.subscribe(fn) }

func (a *Auth) ClearError() {
	a.c.update(func(s AuthState) AuthState {
		s.Error = ""
		return s
	})
}

func (a *Auth) SetLoading(loading bool) {
	a.c.update(func(s AuthState) AuthState {
		s.IsLoading = loading
		return s
	})
}

// Login authenticates and persists the session. On failure nothing is
// persisted and the store stays anonymous.
func (a *Auth) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	a.c.update(AuthState.pending)

	resp, err := a.deps.API.Login(ctx, domain.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, a.reject(ctx, "Auth.Login", messages.LoginFailed, err)
	}
	return a.establish(ctx, "Auth.Login", messages.LoginFailed, resp)
}

// Register creates the account and authenticates directly.
func (a *Auth) Register(ctx context.Context, username, email, password string) (*domain.Session, error) {
	a.c.update(AuthState.pending)

	resp, err := a.deps.API.Register(ctx, domain.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, a.reject(ctx, "Auth.Register", messages.RegisterFailed, err)
	}
	return a.establish(ctx, "Auth.Register", messages.RegisterFailed, resp)
}

func (a *Auth) establish(ctx context.Context, op, fallbackID string, resp *domain.AuthResponse) (*domain.Session, error) {
	sess := resp.Session()
	if err := a.deps.Sessions.Save(ctx, sess.Token, sess.User); err != nil {
		return nil, a.reject(ctx, op, fallbackID, fmt.Errorf("persist session: %w", err))
	}
	a.c.update(func(s AuthState) AuthState { return s.authenticated(sess.Token, sess.User) })
	log.Debug().Str("op", op).Str("username", sess.User.Username).Msg("store: authenticated")
	return sess, nil
}

func (a *Auth) reject(ctx context.Context, op, fallbackID string, err error) error {
	opErr := failure(ctx, a.deps.Texts, op, fallbackID, err)
	a.c.update(func(s AuthState) AuthState { return s.anonymous(opErr.Message) })
	return opErr
}

// Logout clears both persistence locations and becomes anonymous regardless
// of any failure.
func (a *Auth) Logout(ctx context.Context) error {
	var errs []error

	if a.deps.Revoker != nil {
		if token := a.State().Token; token != "" {
			if err := a.deps.Revoker.Revoke(ctx, token); err != nil {
				log.Warn().Err(err).Msg("store: revoke token")
				errs = append(errs, err)
			}
		}
	}
	if err := a.deps.Sessions.Clear(ctx); err != nil {
		errs = append(errs, err)
	}

	a.c.update(func(s AuthState) AuthState { return s.anonymous("") })

	if len(errs) > 0 {
		return fmt.Errorf("store.Auth.Logout: %w", errors.Join(errs...))
	}
	return nil
}

// CheckStatus validates the persisted session with a lightweight
// authenticated call and refreshes the cookie expiry on success. The states
// fetched by the probe are returned so callers can seed the State store.
func (a *Auth) CheckStatus(ctx context.Context) ([]domain.State, error) {
	a.c.update(func(s AuthState) AuthState {
		s.IsLoading = true
		return s
	})

	sess, err := a.deps.Sessions.Load(ctx)
	if err != nil {
		a.clearQuietly(ctx)
		opErr := failure(ctx, a.deps.Texts, "Auth.CheckStatus", messages.NoSession, nil)
		opErr.Err = err
		if !errors.Is(err, domain.ErrNoSession) {
			opErr.Err = errors.Join(domain.ErrNoSession, err)
		}
		a.c.update(func(s AuthState) AuthState { return s.anonymous("") })
		return nil, opErr
	}

	states, err := a.deps.API.ListStates(ctx)
	if err != nil {
		a.clearQuietly(ctx)
		opErr := failure(ctx, a.deps.Texts, "Auth.CheckStatus", messages.InvalidToken, nil)
		opErr.Err = err
		a.c.update(func(s AuthState) AuthState { return s.anonymous("") })
		return nil, opErr
	}

	if err := a.deps.Sessions.Save(ctx, sess.Token, sess.User); err != nil {
		log.Warn().Err(err).Msg("store: refresh session cookies")
	}
	a.c.update(func(s AuthState) AuthState { return s.authenticated(sess.Token, sess.User) })
	return states, nil
}

func (a *Auth) clearQuietly(ctx context.Context) {
	if err := a.deps.Sessions.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("store: clear session")
	}
}

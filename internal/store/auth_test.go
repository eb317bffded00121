package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/session"
	"github.com/gosuda/taskboard/internal/store"
)

func authResponse() *domain.AuthResponse {
	return &domain.AuthResponse{Token: "jwt-1", Username: "admin", Email: "admin@example.com"}
}

type authFixture struct {
	auth    *store.Auth
	kv      *session.MemoryKV
	cookies *session.MemoryCookies
	api     *mockAuthAPI
}

func newAuthFixture(api *mockAuthAPI) *authFixture {
	kv := session.NewMemoryKV()
	cookies := session.NewMemoryCookies()
	return &authFixture{
		auth: store.NewAuth(store.AuthDeps{
			API:      api,
			Sessions: session.NewPersister(kv, cookies, 0),
			Texts:    catalog,
		}),
		kv:      kv,
		cookies: cookies,
		api:     api,
	}
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	t.Run("success persists and authenticates", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			loginFunc: func(_ context.Context, in domain.LoginInput) (*domain.AuthResponse, error) {
				assert.Equal(t, "admin@example.com", in.Email)
				return authResponse(), nil
			},
		})

		var seen []store.AuthState
		unsubscribe := f.auth.Subscribe(func(s store.AuthState) { seen = append(seen, s) })
		defer unsubscribe()

		sess, err := f.auth.Login(ctx, "admin@example.com", "admin57123@")
		require.NoError(t, err)
		assert.Equal(t, "jwt-1", sess.Token)

		st := f.auth.State()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, "jwt-1", st.Token)
		require.NotNil(t, st.User)
		assert.Equal(t, "admin", st.User.Username)
		assert.False(t, st.IsLoading)
		assert.Empty(t, st.Error)

		token, ok := f.cookies.Get(session.CookieToken)
		require.True(t, ok)
		assert.Equal(t, "jwt-1", token)
		assert.Equal(t, session.DefaultMaxAge, f.cookies.MaxAge(session.CookieToken))

		require.Len(t, seen, 2)
		assert.True(t, seen[0].IsLoading, "pending transition sets loading")
		assert.False(t, seen[0].IsAuthenticated)
	})

	t.Run("failure persists nothing and keeps api message", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
				return nil, &apiclient.Error{Kind: apiclient.KindAuthorization, StatusCode: 401, Message: "Email o contraseña incorrectos."}
			},
		})

		_, err := f.auth.Login(ctx, "x@y.z", "bad")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, "Email o contraseña incorrectos.", store.Message(err))

		st := f.auth.State()
		assert.False(t, st.IsAuthenticated)
		assert.Empty(t, st.Token)
		assert.Nil(t, st.User)
		assert.Equal(t, "Email o contraseña incorrectos.", st.Error)
		assert.Equal(t, 0, f.kv.Len())
		_, ok := f.cookies.Get(session.CookieToken)
		assert.False(t, ok)
	})

	t.Run("failure without api message uses fallback", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
				return nil, errors.New("boom")
			},
		})

		_, err := f.auth.Login(ctx, "x@y.z", "bad")
		require.Error(t, err)
		assert.Equal(t, text(messages.LoginFailed), f.auth.State().Error)
	})

	t.Run("persist failure is a login failure", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
				return authResponse(), nil
			},
		})
		f.cookies.FailSet = errors.New("cookie jar full")

		_, err := f.auth.Login(ctx, "admin@example.com", "pw")
		require.Error(t, err)
		assert.False(t, f.auth.State().IsAuthenticated)
		assert.Equal(t, 0, f.kv.Len())
	})
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	f := newAuthFixture(&mockAuthAPI{
		registerFunc: func(_ context.Context, in domain.RegisterInput) (*domain.AuthResponse, error) {
			assert.Equal(t, "neo", in.Username)
			return &domain.AuthResponse{Token: "jwt-2", Username: "neo", Email: "neo@example.com"}, nil
		},
	})

	_, err := f.auth.Register(ctx, "neo", "neo@example.com", "secret1")
	require.NoError(t, err)
	st := f.auth.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "neo", st.User.Username)
}

type mockRevoker struct {
	revokeFunc func(ctx context.Context, token string) error
}

func (m *mockRevoker) Revoke(ctx context.Context, token string) error {
	return m.revokeFunc(ctx, token)
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	t.Run("clears persistence and state", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
				return authResponse(), nil
			},
		})
		_, err := f.auth.Login(ctx, "admin@example.com", "pw")
		require.NoError(t, err)

		require.NoError(t, f.auth.Logout(ctx))
		st := f.auth.State()
		assert.False(t, st.IsAuthenticated)
		assert.Empty(t, st.Token)
		assert.Equal(t, 0, f.kv.Len())
		_, ok := f.cookies.Get(session.CookieUser)
		assert.False(t, ok)
	})

	t.Run("revoker failure still logs out", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		kv := session.NewMemoryKV()
		persister := session.NewPersister(kv, session.NewMemoryCookies(), 0)
		var revoked string
		auth := store.NewAuth(store.AuthDeps{
			API: &mockAuthAPI{loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
				return authResponse(), nil
			}},
			Sessions: persister,
			Texts:    catalog,
			Revoker: &mockRevoker{revokeFunc: func(_ context.Context, token string) error {
				revoked = token
				return errors.New("revocation unavailable")
			}},
		})
		_, err := auth.Login(ctx, "admin@example.com", "pw")
		require.NoError(t, err)

		err = auth.Logout(ctx)
		require.Error(t, err)
		assert.Equal(t, "jwt-1", revoked)
		assert.False(t, auth.State().IsAuthenticated)
		assert.Equal(t, 0, kv.Len())
	})
}

func TestAuth_CheckStatus(t *testing.T) {
	t.Parallel()

	t.Run("no session rejects and stays anonymous", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		called := false
		f := newAuthFixture(&mockAuthAPI{
			listStatesFunc: func(context.Context) ([]domain.State, error) {
				called = true
				return nil, nil
			},
		})

		_, err := f.auth.CheckStatus(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoSession)
		assert.Equal(t, text(messages.NoSession), store.Message(err))
		assert.False(t, called, "no probe without a session")
		assert.False(t, f.auth.State().IsAuthenticated)
		assert.False(t, f.auth.State().IsLoading)
	})

	t.Run("valid session refreshes cookies and returns states", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			listStatesFunc: func(context.Context) ([]domain.State, error) {
				return []domain.State{{ID: 1, Name: "Pendiente"}}, nil
			},
		})
		p := session.NewPersister(f.kv, f.cookies, 0)
		require.NoError(t, p.Save(ctx, "jwt-9", domain.User{Username: "admin", Email: "admin@example.com"}))
		require.NoError(t, f.cookies.Expire(session.CookieToken))

		states, err := f.auth.CheckStatus(ctx)
		require.NoError(t, err)
		require.Len(t, states, 1)

		st := f.auth.State()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, "jwt-9", st.Token)
		token, ok := f.cookies.Get(session.CookieToken)
		require.True(t, ok, "cookie re-persisted")
		assert.Equal(t, "jwt-9", token)
	})

	t.Run("rejected probe clears everything", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		f := newAuthFixture(&mockAuthAPI{
			listStatesFunc: func(context.Context) ([]domain.State, error) {
				return nil, &apiclient.Error{Kind: apiclient.KindAuthorization, StatusCode: 401, Message: "expired"}
			},
		})
		p := session.NewPersister(f.kv, f.cookies, 0)
		require.NoError(t, p.Save(ctx, "jwt-9", domain.User{Username: "admin"}))

		_, err := f.auth.CheckStatus(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, text(messages.InvalidToken), store.Message(err))
		assert.False(t, f.auth.State().IsAuthenticated)
		assert.Equal(t, 0, f.kv.Len())
		assert.False(t, p.HasCookie())
	})
}

func TestAuth_LocalReducers(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(&mockAuthAPI{
		loginFunc: func(context.Context, domain.LoginInput) (*domain.AuthResponse, error) {
			return nil, errors.New("nope")
		},
	})
	_, _ = f.auth.Login(t.Context(), "a@b.c", "x")
	require.NotEmpty(t, f.auth.State().Error)

	f.auth.ClearError()
	assert.Empty(t, f.auth.State().Error)

	f.auth.SetLoading(true)
	assert.True(t, f.auth.State().IsLoading)
}

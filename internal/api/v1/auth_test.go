package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskboard/internal/api/v1"
	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/domain"
)

func fixtureAuth() *domain.AuthResponse {
	return &domain.AuthResponse{
		Token:     "jwt-token",
		Username:  "alice",
		Email:     "alice@example.com",
		ExpiresAt: domain.NewTimestamp(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

// ---------------------------------------------------------------------------
// POST /api/Auth/register
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			registerFunc: func(_ context.Context, username, email, password string) (*domain.AuthResponse, error) {
				assert.Equal(t, "alice", username)
				assert.Equal(t, "alice@example.com", email)
				assert.Equal(t, "secretpw", password)
				return fixtureAuth(), nil
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/api/Auth/register", map[string]any{
			"username": " alice ",
			"email":    "alice@example.com",
			"password": "secretpw",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.AuthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "jwt-token", body.Token)
		assert.Equal(t, "alice", body.Username)
		assert.Equal(t, "alice@example.com", body.Email)
		assert.Equal(t, 2030, body.ExpiresAt.Year())
	})

	t.Run("validation_errors_per_field", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuthRoutes(api, &mockAuthService{})

		resp := api.Post("/api/Auth/register", map[string]any{
			"username": "al",
			"email":    "not-an-email",
			"password": "123",
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		body := decodeError(t, resp)
		assert.Equal(t, http.StatusBadRequest, body.StatusCode)
		assert.NotEmpty(t, body.Message)
		assert.Equal(t, []string{"El nombre de usuario debe tener al menos 3 caracteres"}, body.Errors["Username"])
		assert.Equal(t, []string{"El formato del email no es válido"}, body.Errors["Email"])
		assert.Equal(t, []string{"La contraseña debe tener al menos 6 caracteres"}, body.Errors["Password"])
	})

	t.Run("bounds_in_schema", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuthRoutes(api, &mockAuthService{})

		var body *huma.Schema
		for name, schema := range api.OpenAPI().Components.Schemas.Map() {
			if strings.HasPrefix(name, "RegisterInputBody") {
				body = schema
			}
		}
		require.NotNil(t, body)
		require.NotNil(t, body.Properties["username"].MinLength)
		assert.Equal(t, 3, *body.Properties["username"].MinLength)
		require.NotNil(t, body.Properties["username"].MaxLength)
		assert.Equal(t, 50, *body.Properties["username"].MaxLength)
		require.NotNil(t, body.Properties["password"].MinLength)
		assert.Equal(t, 6, *body.Properties["password"].MinLength)
	})

	t.Run("user_already_exists", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			registerFunc: func(context.Context, string, string, string) (*domain.AuthResponse, error) {
				return nil, fmt.Errorf("auth.Register: %w", auth.ErrUserAlreadyExists)
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/api/Auth/register", map[string]any{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secretpw",
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		body := decodeError(t, resp)
		assert.Equal(t, "El email ya está registrado", body.Message)
		assert.Empty(t, body.Errors)
	})

	t.Run("internal_error_hides_cause", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			registerFunc: func(context.Context, string, string, string) (*domain.AuthResponse, error) {
				return nil, errors.New("disk full")
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/api/Auth/register", map[string]any{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "secretpw",
		})

		require.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.NotContains(t, resp.Body.String(), "disk full")
	})
}

// ---------------------------------------------------------------------------
// POST /api/Auth/login
// ---------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			loginFunc: func(_ context.Context, email, password string) (*domain.AuthResponse, error) {
				assert.Equal(t, "alice@example.com", email)
				assert.Equal(t, "secretpw", password)
				return fixtureAuth(), nil
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/api/Auth/login", map[string]any{
			"email":    "alice@example.com",
			"password": "secretpw",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		var body domain.AuthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "jwt-token", body.Token)
	})

	t.Run("invalid_credentials", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			loginFunc: func(context.Context, string, string) (*domain.AuthResponse, error) {
				return nil, fmt.Errorf("auth.Login: %w", auth.ErrInvalidCredentials)
			},
		}
		v1.RegisterAuthRoutes(api, authSvc)

		resp := api.Post("/api/Auth/login", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		body := decodeError(t, resp)
		assert.Equal(t, "Credenciales inválidas", body.Message)
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	})

	t.Run("missing_fields", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuthRoutes(api, &mockAuthService{})

		resp := api.Post("/api/Auth/login", map[string]any{})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		body := decodeError(t, resp)
		assert.Equal(t, []string{"El email es requerido"}, body.Errors["Email"])
		assert.Equal(t, []string{"La contraseña es requerida"}, body.Errors["Password"])
	})
}

package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/api/ws"
	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/auth"
	"github.com/gosuda/taskboard/internal/config"
	"github.com/gosuda/taskboard/internal/devapi"
	"github.com/gosuda/taskboard/internal/guard"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/server"
	"github.com/gosuda/taskboard/internal/session"
	"github.com/gosuda/taskboard/internal/store/memory"
	"github.com/gosuda/taskboard/internal/web"
	webassets "github.com/gosuda/taskboard/web"
)

const testSecret = "server-test-secret-that-is-long-enough"

type stack struct {
	url    string
	client *http.Client
}

func newStack(t *testing.T, mutate func(*config.Config)) *stack {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.New()
	require.NoError(t, store.Seed(ctx))
	authSvc := auth.NewService(store.Users(), testSecret, time.Hour)
	apiSrv := httptest.NewServer(devapi.New(ctx, store, authSvc, nil))
	t.Cleanup(apiSrv.Close)

	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: apiSrv.URL, Timeout: 5 * time.Second},
		Server:  config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Session: config.SessionConfig{TTL: time.Hour},
		Login:   config.LoginConfig{Rate: 100, Burst: 100},
		Lang:    messages.LanguageEs,
	}
	if mutate != nil {
		mutate(cfg)
	}

	api, err := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	require.NoError(t, err)

	bus := notify.NewLocalBus()
	pages, err := web.New(web.Deps{
		API:       api,
		KV:        session.NewMemoryKV(),
		Bus:       bus,
		Texts:     messages.MustNew(cfg.Lang),
		Templates: webassets.Templates,
		Config:    web.Config{SessionTTL: cfg.Session.TTL, RedirectDelay: time.Second},
	})
	require.NoError(t, err)

	srv := server.New(ctx, cfg, pages, ws.NewHub(bus, nil), webassets.Static())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &stack{url: ts.URL, client: client}
}

// get returns the status, the Location header and the body.
func (s *stack) get(t *testing.T, path string) (int, string, string) {
	t.Helper()

	resp, err := s.client.Get(s.url + path)
	require.NoError(t, err)
	return read(t, resp)
}

func (s *stack) post(t *testing.T, path string, form url.Values) (int, string, string) {
	t.Helper()

	resp, err := s.client.PostForm(s.url+path, form)
	require.NoError(t, err)
	return read(t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (s *stack) hasCookie(t *testing.T, name string) bool {
	t.Helper()

	u, err := url.Parse(s.url)
	require.NoError(t, err)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func (s *stack) login(t *testing.T) {
	t.Helper()

	status, _, body := s.post(t, "/login", url.Values{
		"email":    {memory.SeedEmail},
		"password": {memory.SeedPassword},
	})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `http-equiv="refresh"`)
	require.True(t, s.hasCookie(t, session.CookieToken))
}

// ---------------------------------------------------------------------------
// Infrastructure routes
// ---------------------------------------------------------------------------

func TestHealthzAndStatic(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)

	status, _, body := s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, _, _ = s.get(t, "/static/app.css")
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = s.get(t, "/static/")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = s.get(t, "/static/missing.js")
	assert.Equal(t, http.StatusNotFound, status)
}

// ---------------------------------------------------------------------------
// Route guard and authentication
// ---------------------------------------------------------------------------

func TestGuardRedirects(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)

	for _, path := range []string{"/dashboard", "/tasks", "/states/new", "/reports"} {
		status, loc, _ := s.get(t, path)
		assert.Equal(t, http.StatusFound, status, path)
		assert.Equal(t, guard.LoginURL(path), loc, path)
	}

	status, loc, _ := s.get(t, "/")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, guard.LoginPath, loc)

	status, _, body := s.get(t, "/login")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="email"`)
	assert.True(t, s.hasCookie(t, session.CookieID), "browser session id is assigned on first visit")
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.login(t)

	status, loc, _ := s.get(t, "/login")
	assert.Equal(t, http.StatusFound, status, "auth pages redirect once signed in")
	assert.Equal(t, "/dashboard", loc)

	status, _, body := s.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, memory.SeedUsername)

	status, loc, _ = s.post(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)
	assert.False(t, s.hasCookie(t, session.CookieToken))

	status, _, body = s.get(t, "/login")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Sesión cerrada correctamente")

	status, loc, _ = s.get(t, "/dashboard")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, guard.LoginURL("/dashboard"), loc)
}

func TestLoginRedirectTarget(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)

	status, _, body := s.post(t, "/login", url.Values{
		"email":    {memory.SeedEmail},
		"password": {memory.SeedPassword},
		"redirect": {"/states"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "url=/states")

	status, _, _ = s.post(t, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, status)

	_, _, body = s.post(t, "/login", url.Values{
		"email":    {memory.SeedEmail},
		"password": {memory.SeedPassword},
		"redirect": {"https://evil.example.com/"},
	})
	assert.Contains(t, body, "url=/dashboard", "external targets fall back to the dashboard")
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)

	t.Run("wrong password", func(t *testing.T) {
		status, location, body := s.post(t, "/login", url.Values{
			"email":    {memory.SeedEmail},
			"password": {"incorrecta"},
			"redirect": {"/tasks"},
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Empty(t, location, "a credential rejection does not navigate")
		assert.Contains(t, body, "Credenciales inválidas")
		assert.NotContains(t, body, "Sesión expirada")
		assert.Contains(t, body, `value="/tasks"`)
		assert.False(t, s.hasCookie(t, session.CookieToken))
	})

	t.Run("invalid form", func(t *testing.T) {
		status, _, _ := s.post(t, "/login", url.Values{"email": {"not-an-email"}})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.False(t, s.hasCookie(t, session.CookieToken))
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)

	status, loc, _ := s.post(t, "/register", url.Values{
		"username":        {"maria"},
		"email":           {"maria@example.com"},
		"password":        {"secreto1"},
		"confirmPassword": {"secreto1"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/dashboard", loc)
	assert.True(t, s.hasCookie(t, session.CookieToken))

	status, _, body := s.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "maria")
}

func TestLoginRateLimited(t *testing.T) {
	t.Parallel()

	s := newStack(t, func(c *config.Config) {
		c.Login.Rate = 0.001
		c.Login.Burst = 1
	})

	form := url.Values{"email": {memory.SeedEmail}, "password": {"incorrecta"}}
	status, _, _ := s.post(t, "/login", form)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, loc, _ := s.post(t, "/login", form)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", loc)

	_, _, body := s.get(t, "/login")
	assert.Contains(t, body, "Demasiados intentos")
}

// ---------------------------------------------------------------------------
// Tasks and states
// ---------------------------------------------------------------------------

func TestTaskCRUD(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.login(t)

	status, _, body := s.get(t, "/tasks/new")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Pendiente")

	status, loc, _ := s.post(t, "/tasks/new", url.Values{
		"title":       {"Preparar informe"},
		"description": {"Resumen trimestral"},
		"stateId":     {"1"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/tasks", loc)

	status, _, body = s.get(t, "/tasks")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Preparar informe")
	assert.Contains(t, body, "Tarea creada correctamente")

	status, _, body = s.get(t, "/tasks/1/edit")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Resumen trimestral")

	status, _, _ = s.post(t, "/tasks/1/edit", url.Values{
		"title":   {"Informe final"},
		"stateId": {"2"},
	})
	require.Equal(t, http.StatusSeeOther, status)

	_, _, body = s.get(t, "/tasks?stateId=2")
	assert.Contains(t, body, "Informe final")
	assert.NotContains(t, body, "Preparar informe")

	status, _, _ = s.post(t, "/tasks/new", url.Values{"stateId": {"1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "missing title is rejected before the API")

	status, loc, _ = s.post(t, "/tasks/1/delete", url.Values{"return": {"/tasks?page=1"}})
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/tasks?page=1", loc)

	status, loc, _ = s.get(t, "/tasks/1/edit")
	assert.Equal(t, http.StatusSeeOther, status, "a missing task sends the user back to the list")
	assert.Equal(t, "/tasks", loc)
}

func TestStateDeleteRule(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.login(t)

	status, _, _ := s.post(t, "/tasks/new", url.Values{"title": {"Bloqueante"}, "stateId": {"1"}})
	require.Equal(t, http.StatusSeeOther, status)

	status, loc, _ := s.post(t, "/states/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/states", loc)

	status, _, body := s.get(t, "/states")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "porque tiene 1 tareas asociadas")
	assert.Contains(t, body, "Pendiente", "a state in use survives the delete")

	status, _, _ = s.post(t, "/states/3/delete", nil)
	require.Equal(t, http.StatusSeeOther, status)
	_, _, body = s.get(t, "/states")
	assert.Contains(t, body, "Estado eliminado correctamente")
	assert.NotContains(t, body, "Completada")
}

func TestStateCreateAndEdit(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.login(t)

	status, loc, _ := s.post(t, "/states/new", url.Values{"name": {"Revisión"}, "description": {"En revisión"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/states", loc)

	status, _, body := s.post(t, "/states/new", url.Values{"name": {"revisión"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status, "duplicate names are refused by the API")
	assert.Contains(t, body, "Ya existe un estado con ese nombre")

	status, _, body = s.get(t, "/states/4/edit")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "En revisión")

	status, _, _ = s.post(t, "/states/4/edit", url.Values{"name": {"Revisada"}})
	require.Equal(t, http.StatusSeeOther, status)

	_, _, body = s.get(t, "/states")
	assert.True(t, strings.Contains(body, "Revisada"))
}

func TestReportsAndDashboard(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.login(t)

	for _, title := range []string{"Uno", "Dos"} {
		status, _, _ := s.post(t, "/tasks/new", url.Values{"title": {title}, "stateId": {"1"}})
		require.Equal(t, http.StatusSeeOther, status)
	}

	status, _, body := s.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Uno")
	assert.Contains(t, body, "Dos")

	status, _, body = s.get(t, "/reports")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Pendiente")
}

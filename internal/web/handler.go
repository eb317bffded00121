// Package web serves the server-rendered pages. Every request rebuilds the
// browser's client-side stack (API client hooks, stores, notifier) and
// renders the page from the store snapshots.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/guard"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/session"
)

// DefaultRedirectDelay is the visible pause between a successful login and
// the navigation to its target.
const DefaultRedirectDelay = time.Second

// Config holds the page-level settings.
type Config struct {
	CookieSecure  bool
	SessionTTL    time.Duration
	RedirectDelay time.Duration
	DefaultLang   string
}

// Deps are the process-wide collaborators of the handlers.
type Deps struct {
	// API is the base client; each request binds it with WithHooks.
	API   *apiclient.Client
	KV    session.KV
	Bus   notify.Bus
	Texts messages.Texts
	// Templates holds templates/*.html.
	Templates fs.FS
	Config    Config
}

// Handler renders the pages.
type Handler struct {
	deps     Deps
	renderer *Renderer
	now      func() time.Time
}

func New(deps Deps) (*Handler, error) {
	if deps.API == nil || deps.KV == nil || deps.Texts == nil || deps.Templates == nil {
		return nil, errors.New("web.New: api, kv, texts and templates are required")
	}
	if deps.Config.RedirectDelay <= 0 {
		deps.Config.RedirectDelay = DefaultRedirectDelay
	}
	if deps.Config.DefaultLang == "" {
		deps.Config.DefaultLang = messages.LanguageEs
	}

	renderer, err := NewRenderer(deps.Templates)
	if err != nil {
		return nil, fmt.Errorf("web.New: %w", err)
	}
	return &Handler{deps: deps, renderer: renderer, now: time.Now}, nil
}

// Routes registers the pages on r. The caller mounts the session middleware
// and the route guard in front.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.withBrowser)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, guard.DashboardPath, http.StatusFound)
		})
		r.Get("/login", h.loginPage)
		r.Get("/register", h.registerPage)
		r.Get("/logout", h.logout)
		r.Post("/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Get("/dashboard", h.dashboard)
			r.Get("/reports", h.reports)

			r.Get("/tasks", h.taskList)
			r.Get("/tasks/new", h.taskNew)
			r.Post("/tasks/new", h.taskCreate)
			r.Get("/tasks/{id}/edit", h.taskEdit)
			r.Post("/tasks/{id}/edit", h.taskUpdate)
			r.Post("/tasks/{id}/delete", h.taskDelete)

			r.Get("/states", h.stateList)
			r.Get("/states/new", h.stateNew)
			r.Post("/states/new", h.stateCreate)
			r.Get("/states/{id}/edit", h.stateEdit)
			r.Post("/states/{id}/edit", h.stateUpdate)
			r.Post("/states/{id}/delete", h.stateDelete)
		})
	})
}

// AuthRoutes registers the credential form posts. They are separate so the
// caller can rate-limit them.
func (h *Handler) AuthRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.withBrowser)
		r.Post("/login", h.login)
		r.Post("/register", h.register)
	})
}

// TooManyRequests answers a rate-limited form post with a toast and a
// redirect back to the form.
func (h *Handler) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	b := h.openBrowser(w, r)
	h.notify(r.Context(), b, notify.LevelError, messages.TooManyRequests, nil)
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) withBrowser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := h.openBrowser(w, r)
		next.ServeHTTP(w, r.WithContext(withBrowser(r.Context(), b)))
	})
}

// requireSession validates the persisted session before any protected page
// and seeds the state store with the states fetched by the probe.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		states, err := b.auth.CheckStatus(r.Context())
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("web: session check failed")
			http.Redirect(w, r, guard.LoginURL(r.URL.Path), http.StatusSeeOther)
			return
		}
		b.states.Seed(states)
		next.ServeHTTP(w, r)
	})
}

// navigated answers with the redirect requested by the API client, if any.
func navigated(w http.ResponseWriter, r *http.Request, b *browser) bool {
	loc := b.nav.Location()
	if loc == "" {
		return false
	}
	http.Redirect(w, r, loc, http.StatusSeeOther)
	return true
}

// page builds the template data and flushes the toast queue into it.
func (h *Handler) page(ctx context.Context, b *browser, titleID, nav string, data any) *Page {
	toasts, err := b.queue.Drain(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("web: drain toasts")
	}
	p := &Page{
		ctx:      ctx,
		texts:    h.deps.Texts,
		Lang:     h.lang(ctx),
		TitleID:  titleID,
		Nav:      nav,
		User:     b.auth.State().User,
		Toasts:   toasts,
		LiveFeed: h.deps.Bus != nil,
		Data:     data,
	}
	return p
}

// lang is the first supported language of the request, else the default.
func (h *Handler) lang(ctx context.Context) string {
	for _, l := range messages.LanguagesFromContext(ctx) {
		if l == messages.LanguageEs || l == messages.LanguageEn {
			return l
		}
	}
	return h.deps.Config.DefaultLang
}

func (h *Handler) translator(ctx context.Context) func(string) string {
	return func(id string) string { return h.deps.Texts.Text(ctx, id, nil) }
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, p *Page) {
	h.renderer.Render(w, status, name, p)
}

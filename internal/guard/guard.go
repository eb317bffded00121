// Package guard decides, from the request path and the presence of the
// session cookie alone, whether a navigation proceeds or is redirected.
// It never validates the token.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/session"
)

// Action is the outcome of a routing decision.
type Action int

const (
	Allow Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is the result of Decide. Location is set only for Redirect.
type Decision struct {
	Action   Action
	Location string
}

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Route prefixes, matched with strings.HasPrefix.
var (
	ProtectedPrefixes = []string{"/dashboard", "/tasks", "/states", "/reports"} //nolint:gochecknoglobals // route table
	AuthPrefixes      = []string{"/login", "/register"}                         //nolint:gochecknoglobals // route table
	// SkipPrefixes are never inspected by the middleware.
	SkipPrefixes = []string{"/api", "/static", "/healthz", "/ws", "/favicon.ico"} //nolint:gochecknoglobals // route table
)

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide applies the routing rules.
func Decide(path string, hasSession bool) Decision {
	switch {
	case hasAnyPrefix(path, ProtectedPrefixes) && !hasSession:
		return Decision{Action: Redirect, Location: LoginURL(path)}
	case hasAnyPrefix(path, AuthPrefixes) && hasSession:
		return Decision{Action: Redirect, Location: DashboardPath}
	case path == "/" && hasSession:
		return Decision{Action: Redirect, Location: DashboardPath}
	case path == "/":
		return Decision{Action: Redirect, Location: LoginPath}
	}
	return Decision{Action: Allow}
}

// LoginURL is the login page carrying the original path as redirect target.
func LoginURL(path string) string {
	return LoginPath + "?" + url.Values{"redirect": {path}}.Encode()
}

// HasSessionCookie reports whether r carries a non-empty auth-token cookie.
func HasSessionCookie(r *http.Request) bool {
	c, err := r.Cookie(session.CookieToken)
	return err == nil && c.Value != ""
}

// Middleware redirects with 302 Found according to Decide.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if hasAnyPrefix(path, SkipPrefixes) {
			next.ServeHTTP(w, r)
			return
		}

		d := Decide(path, HasSessionCookie(r))
		if d.Action == Redirect {
			log.Debug().Str("path", path).Str("location", d.Location).Msg("guard: redirect")
			http.Redirect(w, r, d.Location, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SafeRedirect returns target when it is a local absolute path, otherwise
// the dashboard.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.ContainsAny(target, "\\\r\n") {
		return DashboardPath
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DashboardPath
	}
	if hasAnyPrefix(u.Path, AuthPrefixes) {
		return DashboardPath
	}
	return target
}

package session

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Cookies is the cookie storage observed by the route guard.
type Cookies interface {
	Get(name string) (string, bool)
	Set(name, value string, maxAge time.Duration) error
	Expire(name string) error
}

// HTTPCookies reads cookies from a request and writes Set-Cookie headers on
// the paired response. Writes are visible to later Gets in the same request.
type HTTPCookies struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool

	mu      sync.Mutex
	pending map[string]*string // nil value marks an expired cookie
}

// NewHTTPCookies binds cookie storage to one request/response pair.
func NewHTTPCookies(w http.ResponseWriter, r *http.Request, secure bool) *HTTPCookies {
	return &HTTPCookies{r: r, w: w, secure: secure, pending: make(map[string]*string)}
}

func (c *HTTPCookies) Get(name string) (string, bool) {
	c.mu.Lock()
	if v, ok := c.pending[name]; ok {
		c.mu.Unlock()
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c.mu.Unlock()

	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (c *HTTPCookies) Set(name, value string, maxAge time.Duration) error {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}
	if err := ck.Valid(); err != nil {
		return fmt.Errorf("session.HTTPCookies.Set: %w", err)
	}
	http.SetCookie(c.w, ck)

	c.mu.Lock()
	c.pending[name] = &value
	c.mu.Unlock()
	return nil
}

func (c *HTTPCookies) Expire(name string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})

	c.mu.Lock()
	c.pending[name] = nil
	c.mu.Unlock()
	return nil
}

// MemoryCookies is an in-process cookie jar used outside HTTP handlers.
type MemoryCookies struct {
	mu     sync.Mutex
	values map[string]string
	maxAge map[string]time.Duration
	// FailSet makes Set return this error, for exercising rollback paths.
	FailSet error
}

// NewMemoryCookies creates an empty jar.
func NewMemoryCookies() *MemoryCookies {
	return &MemoryCookies{values: make(map[string]string), maxAge: make(map[string]time.Duration)}
}

func (m *MemoryCookies) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

func (m *MemoryCookies) Set(name, value string, maxAge time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	m.values[name] = value
	m.maxAge[name] = maxAge
	return nil
}

func (m *MemoryCookies) Expire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	delete(m.maxAge, name)
	return nil
}

// MaxAge returns the max-age the named cookie was last set with.
func (m *MemoryCookies) MaxAge(name string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxAge[name]
}

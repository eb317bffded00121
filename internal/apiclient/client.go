// Package apiclient is the HTTP client for the remote task API. Every request
// carries the session's bearer token, and every failure is classified,
// localized and notified exactly once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second

	// authPathMarker identifies credential endpoints, which never carry a token.
	authPathMarker = "/api/Auth/"

	maxBodyBytes = 4 << 20
)

// TokenSource returns the current bearer token, or "" when anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Navigator performs a forced full navigation.
type Navigator interface {
	Navigate(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Navigate(ctx context.Context, location string) { f(ctx, location) }

// Hooks are the per-session collaborators of a Client.
type Hooks struct {
	Tokens   TokenSource
	Notifier notify.Notifier
	Texts    messages.Texts
	// OnUnauthorized clears the persisted session after a 401.
	OnUnauthorized func(ctx context.Context) error
	Navigator      Navigator
}

// Config holds the transport settings shared by all sessions.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client issues JSON requests against the remote API.
type Client struct {
	baseURL string
	http    *http.Client
	hooks   Hooks
}

// New creates a Client without session hooks.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient.New: invalid base url %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}, nil
}

// WithHooks returns a copy of c bound to one browser session. The transport
// is shared.
func (c *Client) WithHooks(h Hooks) *Client {
	cp := *c
	cp.hooks = h
	return &cp
}

// Do sends a request and decodes a successful JSON response into out.
// body is encoded as JSON when non-nil. out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	req, err := c.newRequest(ctx, method, path, body, query)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("apiclient: request failed")
		return c.fail(ctx, &Error{
			Kind:    KindConnectivity,
			Message: c.text(ctx, messages.Connectivity, nil),
			Err:     err,
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(ctx, &Error{
			Kind:    KindConnectivity,
			Message: c.text(ctx, messages.Connectivity, nil),
			Err:     fmt.Errorf("read body: %w", err),
		})
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("apiclient: response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return c.fail(ctx, &Error{
				Kind:       KindUnexpected,
				StatusCode: resp.StatusCode,
				Message:    c.text(ctx, messages.Unexpected, nil),
				Err:        fmt.Errorf("decode response: %w", err),
			})
		}
		return nil
	}

	return c.fail(ctx, c.statusError(ctx, path, resp.StatusCode, raw))
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, query url.Values) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient.Client.Do: marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient.Client.Do: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if !isAuthPath(path) && c.hooks.Tokens != nil {
		token, err := c.hooks.Tokens.Token(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("apiclient: read token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) statusError(ctx context.Context, path string, status int, raw []byte) *Error {
	body := parseErrorBody(raw)
	e := &Error{Kind: kindForStatus(status), StatusCode: status, Fields: body.Fields}

	switch status {
	case http.StatusUnauthorized:
		// Auth endpoints reject credentials; there is no session to expire.
		if isAuthPath(path) {
			e.Message = c.orText(ctx, body.Message, messages.InvalidCredentials)
			return e
		}
		if c.hooks.OnUnauthorized != nil {
			if err := c.hooks.OnUnauthorized(ctx); err != nil {
				log.Warn().Err(err).Msg("apiclient: clear session after 401")
			}
		}
		e.Message = c.text(ctx, messages.SessionExpired, nil)
		e.expired = true
	case http.StatusForbidden:
		e.Message = c.text(ctx, messages.Forbidden, nil)
	case http.StatusNotFound:
		e.Message = c.text(ctx, messages.NotFound, nil)
	case http.StatusBadRequest:
		switch {
		case body.HasErrors:
			if msg, ok := body.firstMessage(); ok {
				e.Message = msg
			} else {
				e.Message = c.text(ctx, messages.Validation, nil)
			}
		default:
			e.Message = c.orText(ctx, body.Message, messages.InvalidData)
		}
	case http.StatusInternalServerError:
		e.Message = c.text(ctx, messages.ServerError, nil)
	default:
		e.Message = c.orText(ctx, body.Message, messages.Unexpected)
	}
	return e
}

// fail notifies e once and performs the forced navigation for an expired
// session.
func (c *Client) fail(ctx context.Context, e *Error) error {
	if e.Kind == KindConnectivity && errors.Is(e.Err, context.Canceled) {
		return e
	}

	if c.hooks.Notifier != nil {
		if err := c.hooks.Notifier.Notify(ctx, notify.Error(e.Message)); err != nil {
			log.Warn().Err(err).Msg("apiclient: notify")
		}
	}
	e.notified = true

	if e.expired && c.hooks.Navigator != nil {
		c.hooks.Navigator.Navigate(ctx, "/login")
	}
	return e
}

func (c *Client) text(ctx context.Context, id string, data map[string]any) string {
	if c.hooks.Texts == nil {
		return id
	}
	return c.hooks.Texts.Text(ctx, id, data)
}

func (c *Client) orText(ctx context.Context, msg, id string) string {
	if msg != "" {
		return msg
	}
	return c.text(ctx, id, nil)
}

func isAuthPath(path string) bool {
	return strings.Contains(path, authPathMarker)
}

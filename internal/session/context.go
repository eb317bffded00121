package session

import (
	"context"

	"github.com/google/uuid"
)

// CookieID names the opaque browser-session cookie that scopes the KV.
const CookieID = "sid"

type idKey struct{}

// WithID returns a context carrying the browser-session id.
func WithID(ctx context.Context, sid uuid.UUID) context.Context {
	return context.WithValue(ctx, idKey{}, sid)
}

// IDFromContext returns the browser-session id stored by WithID.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(idKey{}).(uuid.UUID)
	return v, ok
}

// Package session persists the client-side session: a volatile key/value
// store that the HTTP client reads the bearer token from, and the cookies
// that the route guard observes.
package session

import (
	"context"
	"sync"
	"time"
)

// KV is the volatile key/value store. Get reports ok=false for missing keys.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

const memorySweep = 10 * time.Minute

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// expired reports whether e has a deadline at or before now.
func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	ttl    time.Duration
}

// NewMemoryKV creates an empty MemoryKV whose keys never expire.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]memoryEntry)}
}

// NewExpiringMemoryKV creates an empty MemoryKV whose keys expire ttl after
// their last write, like the Redis KV. Expired keys are removed every
// min(ttl, 10m) until ctx is done. A ttl <= 0 never expires keys.
func NewExpiringMemoryKV(ctx context.Context, ttl time.Duration) *MemoryKV {
	m := &MemoryKV{values: make(map[string]memoryEntry), ttl: ttl}
	if ttl <= 0 {
		return m
	}

	go func() {
		ticker := time.NewTicker(min(ttl, memorySweep))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
	return m
}

func (m *MemoryKV) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.values {
		if e.expired(now) {
			delete(m.values, k)
		}
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.values[key]
	if !ok || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	e := memoryEntry{value: value}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = e
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys, including expired keys not yet
// swept.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

type prefixed struct {
	kv     KV
	prefix string
}

// Prefixed scopes kv to keys starting with prefix. The web server uses it to
// give every browser session its own token and user keys.
func Prefixed(kv KV, prefix string) KV {
	return &prefixed{kv: kv, prefix: prefix}
}

// BrowserScope returns kv scoped to one browser session id.
func BrowserScope(kv KV, sid string) KV {
	return Prefixed(kv, "session:"+sid+":")
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}

// Package store holds the client-side entity stores. Each store keeps a
// value-typed state, applies pure transitions to it under a mutex and
// notifies subscribers with a snapshot after every transition.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/messages"
)

type cloner[S any] interface {
	clone() S
}

// container is the shared state machinery of the stores.
type container[S cloner[S]] struct {
	mu      sync.Mutex
	state   S
	subs    map[int]func(S)
	nextSub int
}

func newContainer[S cloner[S]](initial S) *container[S] {
	return &container[S]{state: initial, subs: make(map[int]func(S))}
}

func (c *container[S]) snapshot() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// update applies fn to the state and notifies subscribers outside the lock.
func (c *container[S]) update(fn func(S) S) {
	c.mu.Lock()
	c.state = fn(c.state)
	snap := c.state.clone()
	subs := make([]func(S), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (c *container[S]) subscribe(fn func(S)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
		})
	}
}

// OpError is returned by store effects. Message is the user-facing text
// stored in the state's Error field.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return "store." + e.Op + ": " + e.Message
	}
	return "store." + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Message returns the user-facing text of a store error, or "".
func Message(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return ""
}

// failure builds an OpError whose message prefers the API's message and
// otherwise uses the localized fallback.
func failure(ctx context.Context, texts messages.Texts, op, fallbackID string, err error) *OpError {
	fallback := fallbackID
	if texts != nil {
		fallback = texts.Text(ctx, fallbackID, nil)
	}
	return &OpError{Op: op, Message: apiclient.MessageOf(err, fallback), Err: err}
}

// sequencer hands out increasing tickets per key. Only the latest ticket of
// a key is current.
type sequencer[K comparable] struct {
	latest map[K]uint64
	next   uint64
}

func newSequencer[K comparable]() *sequencer[K] {
	return &sequencer[K]{latest: make(map[K]uint64)}
}

// issue must be called with the owning container's lock held.
func (s *sequencer[K]) issue(key K) uint64 {
	s.next++
	s.latest[key] = s.next
	return s.next
}

// current must be called with the owning container's lock held.
func (s *sequencer[K]) current(key K, ticket uint64) bool {
	return s.latest[key] == ticket
}

// forget drops a key once its latest ticket completed.
func (s *sequencer[K]) forget(key K, ticket uint64) {
	if s.latest[key] == ticket {
		delete(s.latest, key)
	}
}

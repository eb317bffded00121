package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Fanout delivers every toast to all of its notifiers. A failing notifier
// does not stop delivery to the others.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout creates a Fanout over the given notifiers. Nil entries are skipped.
func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

func (f *Fanout) Notify(ctx context.Context, t Toast) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Warn().Err(err).Str("level", string(t.Level)).Msg("notify: delivery failed")
		return fmt.Errorf("notify.Fanout.Notify: %w", err)
	}
	return nil
}

// Dedupe forwards a toast only when no toast with the same level and
// message passed through it before. One Dedupe serves one request, so
// parallel failures of that request surface once. It is safe for concurrent
// use.
type Dedupe struct {
	next Notifier

	mu   sync.Mutex
	seen map[Toast]struct{}
}

func NewDedupe(next Notifier) *Dedupe {
	return &Dedupe{next: next, seen: map[Toast]struct{}{}}
}

func (d *Dedupe) Notify(ctx context.Context, t Toast) error {
	key := Toast{Level: t.Level, Message: t.Message}
	d.mu.Lock()
	if _, ok := d.seen[key]; ok {
		d.mu.Unlock()
		return nil
	}
	d.seen[key] = struct{}{}
	d.mu.Unlock()
	return d.next.Notify(ctx, t)
}

// Recorder keeps every toast in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(_ context.Context, t Toast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
	return nil
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	toasts := r.Toasts()
	out := make([]string, len(toasts))
	for i, t := range toasts {
		out[i] = t.Message
	}
	return out
}

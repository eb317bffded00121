package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gosuda/taskboard/internal/session"
)

// QueueKey is the browser-scoped KV key holding pending toasts.
const QueueKey = "toasts"

// maxQueued bounds the flash queue so a browser that never renders a page
// cannot grow it without limit.
const maxQueued = 20

// Queue is a flash queue of toasts stored in a browser-scoped KV.
type Queue struct {
	mu sync.Mutex
	kv session.KV
}

func NewQueue(kv session.KV) *Queue {
	return &Queue{kv: kv}
}

// Notify appends a toast to the queue.
func (q *Queue) Notify(ctx context.Context, t Toast) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	toasts, err := q.load(ctx)
	if err != nil {
		return fmt.Errorf("notify.Queue.Notify: %w", err)
	}
	toasts = append(toasts, t)
	if len(toasts) > maxQueued {
		toasts = toasts[len(toasts)-maxQueued:]
	}

	raw, err := json.Marshal(toasts)
	if err != nil {
		return fmt.Errorf("notify.Queue.Notify: marshal: %w", err)
	}
	if err := q.kv.Set(ctx, QueueKey, string(raw)); err != nil {
		return fmt.Errorf("notify.Queue.Notify: %w", err)
	}
	return nil
}

// Drain returns the queued toasts in order and empties the queue.
func (q *Queue) Drain(ctx context.Context) ([]Toast, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	toasts, err := q.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify.Queue.Drain: %w", err)
	}
	if len(toasts) == 0 {
		return nil, nil
	}
	if err := q.kv.Delete(ctx, QueueKey); err != nil {
		return nil, fmt.Errorf("notify.Queue.Drain: %w", err)
	}
	return toasts, nil
}

func (q *Queue) load(ctx context.Context) ([]Toast, error) {
	raw, ok, err := q.kv.Get(ctx, QueueKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var toasts []Toast
	if err := json.Unmarshal([]byte(raw), &toasts); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return toasts, nil
}

package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/session"
)

// ---------------------------------------------------------------------------
// Fanout
// ---------------------------------------------------------------------------

func TestFanout(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every notifier", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		a, b := &notify.Recorder{}, &notify.Recorder{}
		f := notify.NewFanout(a, nil, b)

		require.NoError(t, f.Notify(ctx, notify.Success("saved")))
		assert.Equal(t, []string{"saved"}, a.Messages())
		assert.Equal(t, []string{"saved"}, b.Messages())
	})

	t.Run("failure does not stop delivery", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		boom := errors.New("boom")
		failing := notify.NotifierFunc(func(context.Context, notify.Toast) error { return boom })
		rec := &notify.Recorder{}
		f := notify.NewFanout(failing, rec)

		err := f.Notify(ctx, notify.Error("nope"))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"nope"}, rec.Messages())
	})
}

// ---------------------------------------------------------------------------
// Dedupe
// ---------------------------------------------------------------------------

func TestDedupe(t *testing.T) {
	t.Parallel()

	t.Run("repeated toast delivered once", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		rec := &notify.Recorder{}
		d := notify.NewDedupe(rec)

		require.NoError(t, d.Notify(ctx, notify.Error("Sesión expirada")))
		require.NoError(t, d.Notify(ctx, notify.Error("Sesión expirada")))
		require.NoError(t, d.Notify(ctx, notify.Info("Sesión expirada")))
		require.NoError(t, d.Notify(ctx, notify.Error("otro")))

		assert.Equal(t, []string{"Sesión expirada", "Sesión expirada", "otro"}, rec.Messages())
	})

	t.Run("concurrent duplicates", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		rec := &notify.Recorder{}
		d := notify.NewDedupe(rec)

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				assert.NoError(t, d.Notify(ctx, notify.Error("Sesión expirada")))
			})
		}
		wg.Wait()

		assert.Len(t, rec.Toasts(), 1)
	})
}

// ---------------------------------------------------------------------------
// Queue
// ---------------------------------------------------------------------------

func TestQueue(t *testing.T) {
	t.Parallel()

	t.Run("drain returns toasts in order and empties", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		kv := session.NewMemoryKV()
		q := notify.NewQueue(kv)

		require.NoError(t, q.Notify(ctx, notify.Success("one")))
		require.NoError(t, q.Notify(ctx, notify.Error("two")))

		got, err := q.Drain(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "one", got[0].Message)
		assert.Equal(t, notify.LevelSuccess, got[0].Level)
		assert.Equal(t, "two", got[1].Message)
		assert.Equal(t, notify.LevelError, got[1].Level)

		again, err := q.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, again)
		assert.Equal(t, 0, kv.Len())
	})

	t.Run("queue is bounded", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		q := notify.NewQueue(session.NewMemoryKV())
		for range 30 {
			require.NoError(t, q.Notify(ctx, notify.Info("x")))
		}
		got, err := q.Drain(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 20)
	})

	t.Run("corrupt payload surfaces error", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		kv := session.NewMemoryKV()
		require.NoError(t, kv.Set(ctx, notify.QueueKey, "{not json"))
		_, err := notify.NewQueue(kv).Drain(ctx)
		assert.Error(t, err)
	})
}

// ---------------------------------------------------------------------------
// LocalBus + Publisher
// ---------------------------------------------------------------------------

func TestLocalBus(t *testing.T) {
	t.Parallel()

	t.Run("publisher reaches subscriber", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		bus := notify.NewLocalBus()
		msgs, cleanup, err := bus.Subscribe(ctx, "toasts:a")
		require.NoError(t, err)
		defer cleanup()

		require.NoError(t, notify.NewPublisher(bus, "toasts:a").Notify(ctx, notify.Success("hi")))
		require.NoError(t, notify.NewPublisher(bus, "toasts:b").Notify(ctx, notify.Success("other")))

		select {
		case msg := <-msgs:
			assert.Contains(t, string(msg), `"message":"hi"`)
		case <-time.After(time.Second):
			t.Fatal("no message received")
		}

		select {
		case msg := <-msgs:
			t.Fatalf("unexpected message %s", msg)
		default:
		}
	})

	t.Run("cleanup unsubscribes and closes", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		bus := notify.NewLocalBus()
		msgs, cleanup, err := bus.Subscribe(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, 1, bus.Subscribers("c"))

		cleanup()
		cleanup()
		assert.Equal(t, 0, bus.Subscribers("c"))
		_, open := <-msgs
		assert.False(t, open)
		require.NoError(t, bus.Publish(ctx, "c", []byte("late")))
	})

	t.Run("context cancel unsubscribes", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		bus := notify.NewLocalBus()
		msgs, _, err := bus.Subscribe(ctx, "c")
		require.NoError(t, err)

		cancel()
		select {
		case _, open := <-msgs:
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
		assert.Equal(t, 0, bus.Subscribers("c"))
	})
}

// Package notify delivers user-facing toast notifications. Toasts are queued
// per browser session and flushed into the next rendered page, and published
// on a bus for live delivery over websocket.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is a single transient notification. ID lets a page drop a toast it
// already received over the live stream.
type Toast struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// New creates a toast with a fresh ID.
func New(level Level, msg string) Toast {
	return Toast{ID: uuid.NewString(), Level: level, Message: msg, At: time.Now()}
}

func Success(msg string) Toast { return New(LevelSuccess, msg) }
func Error(msg string) Toast   { return New(LevelError, msg) }
func Info(msg string) Toast    { return New(LevelInfo, msg) }

// Notifier is the notification sink used by the API client, the stores and
// the web handlers.
type Notifier interface {
	Notify(ctx context.Context, t Toast) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, t Toast) error

func (f NotifierFunc) Notify(ctx context.Context, t Toast) error { return f(ctx, t) }

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(context.Context, Toast) error { return nil }) //nolint:gochecknoglobals // sink

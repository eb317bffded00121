package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/store"
)

// statusFor maps a failed API call to the status of the re-rendered page.
func statusFor(err error) int {
	e, ok := apiclient.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case apiclient.KindValidation:
		return http.StatusUnprocessableEntity
	case apiclient.KindAuthorization:
		return http.StatusUnauthorized
	case apiclient.KindPermission:
		return http.StatusForbidden
	case apiclient.KindNotFound:
		return http.StatusNotFound
	case apiclient.KindConnectivity, apiclient.KindServer:
		return http.StatusBadGateway
	default:
		if e.StatusCode >= 400 && e.StatusCode < 500 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	}
}

// apiFieldErrors returns the first server-side message per form field. The
// API names fields in PascalCase; the forms use camelCase.
func apiFieldErrors(err error) map[string]string {
	e, ok := apiclient.AsError(err)
	if !ok || len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		msgs := f.Messages()
		if len(msgs) == 0 {
			continue
		}
		key := lowerFirst(f.Field)
		if _, seen := out[key]; !seen {
			out[key] = msgs[0]
		}
	}
	return out
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// idParam parses the {id} route parameter. ok is false for anything but a
// positive integer.
func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// reportFailure notifies a store failure the API client did not already
// notify, such as a session that could not be persisted.
func (h *Handler) reportFailure(ctx context.Context, b *browser, err error) {
	if err == nil || apiclient.Notified(err) || errors.Is(err, context.Canceled) {
		return
	}
	msg := store.Message(err)
	if msg == "" {
		msg = h.deps.Texts.Text(ctx, messages.Unexpected, nil)
	}
	if nerr := b.notifier.Notify(ctx, notify.Error(msg)); nerr != nil {
		log.Warn().Err(nerr).Msg("web: notify failure")
	}
}

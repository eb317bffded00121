package middleware

import (
	"net/http"

	"github.com/gosuda/taskboard/internal/messages"
)

// Language stores the Accept-Language preferences in the request context.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		langs := messages.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if len(langs) > 0 {
			r = r.WithContext(messages.WithLanguage(r.Context(), langs...))
		}
		next.ServeHTTP(w, r)
	})
}

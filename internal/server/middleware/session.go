package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/session"
)

// Session reads the opaque browser-session cookie, assigning a fresh id when
// it is missing or malformed, and stores the id in the request context.
func Session(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, ok := readSID(r)
			if !ok {
				sid = uuid.New()
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieID,
					Value:    sid.String(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug().Str("sid", sid.String()).Msg("session: assigned browser id")
			}
			next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), sid)))
		})
	}
}

func readSID(r *http.Request) (uuid.UUID, bool) {
	c, err := r.Cookie(session.CookieID)
	if err != nil {
		return uuid.Nil, false
	}
	sid, err := uuid.Parse(c.Value)
	if err != nil || sid == uuid.Nil {
		return uuid.Nil, false
	}
	return sid, true
}

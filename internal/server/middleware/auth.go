package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/auth"
)

// TokenVerifier resolves a bearer token to its account.
// *auth.Service satisfies this interface.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Account, error)
}

const unauthorizedBody = `{"message":"No autorizado","statusCode":401}`

// Auth rejects requests without a valid bearer token and stores the caller
// in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				writeJSONError(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			account, err := verifier.Verify(r.Context(), tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("auth: token rejected")
				writeJSONError(w, http.StatusUnauthorized, unauthorizedBody)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, account.ID)
			ctx = context.WithValue(ctx, ContextKeyUsername, account.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

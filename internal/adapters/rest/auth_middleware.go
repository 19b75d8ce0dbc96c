package rest

import (
	"favorites-sync/internal/contextkeys"
	"net/http"
	"strings"
)

// SessionTracker запоминает пользователей, чьи очереди нужно воспроизводить.
type SessionTracker interface {
	SignIn(userID string)
}

// AuthMiddleware берет userID из X-User-ID (проставляется шлюзом после проверки токена).
func AuthMiddleware(sessions SessionTracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				WriteJSONError(w, http.StatusUnauthorized, "X-User-ID header is missing")
				return
			}
			if sessions != nil {
				sessions.SignIn(userID)
			}

			ctx := contextkeys.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

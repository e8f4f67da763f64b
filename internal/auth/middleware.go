package auth

import (
	"context"
	"net/http"
)

// contextKey keeps this package's context values private. context.WithValue
// keys are compared by type as well as value, so an unexported key type
// means no other package can read or shadow the user ID we store — a plain
// string key would collide with anyone else using "userID".
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth guards routes that only make sense for a signed-in user:
// publishing, editing, voting, the assist endpoints.
//
// It reads the JWT from the "token" HttpOnly cookie, validates the
// signature and expiry, and puts the user ID in the request context for the
// handler. Missing or invalid tokens end the request with 401 — the handler
// never runs.
//
// The token rides in an HttpOnly cookie rather than a header fed from
// localStorage: HttpOnly keeps the JWT out of reach of injected scripts, so
// an XSS bug can act as the user but cannot exfiltrate the session itself.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessionUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth identifies the viewer when a valid session is present but
// never rejects the request. The feed and search routes use it: anonymous
// visitors browse freely, signed-in visitors additionally get their own
// vote status on each row.
//
// An invalid or expired token is treated the same as no token at all — the
// request simply proceeds anonymously.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := sessionUserID(r, tokens); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the signed-in user's ID, or ("", false) for an
// anonymous request. Behind RequireAuth the ok result is always true;
// behind OptionalAuth handlers branch on it.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// sessionUserID extracts and validates the JWT cookie. Shared by both
// middlewares; only the failure handling differs between them.
func sessionUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie — the visitor has no session at all.
		return "", err
	}
	return tokens.Validate(cookie.Value)
}

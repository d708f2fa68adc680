package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/agentstation/venuemap/pkg/errors"
)

// Verifier checks operator bearer tokens.
type Verifier interface {
	// Enabled reports whether operator login is configured
	Enabled() bool

	// Verify returns the user a token was issued to
	Verify(token string) (string, error)
}

type userKey struct{}

// WithUser stores the authenticated operator in ctx.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User returns the authenticated operator, if any.
func User(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok && u != ""
}

// RequireAuth guards operator endpoints with a bearer token. An unconfigured
// verifier refuses every request with 503.
func RequireAuth(v Verifier, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil || !v.Enabled() {
				writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
					"Service unavailable", "operator login is not configured")
				return
			}

			user, err := v.Verify(r.Header.Get("Authorization"))
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Msg("Authentication failed")

				details := "Provide a valid bearer token in the Authorization header"
				var authErr *errors.AuthenticationError
				if errors.As(err, &authErr) {
					details = authErr.Message
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="venuemap"`)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing token", details)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by [RequireSession].
func ClaimsFromContext(ctx context.Context) (*reporterAuth.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*reporterAuth.SessionClaims)
	return claims, ok && claims != nil
}

// WithClaims stores claims in ctx. Handlers under test use it to skip the cookie.
func WithClaims(ctx context.Context, claims *reporterAuth.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// RequireSession authenticates the session cookie and injects the claims into
// the request context. Missing or invalid sessions get 401.
func RequireSession(engine *reporterAuth.Engine, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, r, logger, reporterAuth.ErrUnauthorized)
				return
			}

			c, err := r.Cookie(engine.SessionCookieName())
			if err != nil || c.Value == "" {
				WriteError(w, r, logger, reporterAuth.ErrUnauthorized)
				return
			}

			claims, err := engine.Authenticate(r.Context(), c.Value)
			if err != nil {
				WriteError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

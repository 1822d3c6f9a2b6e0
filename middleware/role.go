package middleware

import (
	"log/slog"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// RequireRole rejects callers whose role does not cover required. It must run
// inside [RequireSession].
func RequireRole(engine *reporterAuth.Engine, required reporterAuth.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, r, logger, reporterAuth.ErrUnauthorized)
				return
			}
			if err := engine.Authorize(claims, required); err != nil {
				WriteError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole with [reporterAuth.RoleAdmin].
func RequireAdmin(engine *reporterAuth.Engine, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(engine, reporterAuth.RoleAdmin, logger)
}

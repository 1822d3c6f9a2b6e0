package middleware

import (
	"context"
	"log/slog"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/MrEthical07/reporterAuth/csrf"
)

type csrfTokenContextKey struct{}

// CSRFTokenFromContext returns the token issued for the current response.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenContextKey{}).(string)
	return token
}

// CSRF issues a fresh secret/token pair on every response and, for
// state-changing methods, requires the X-XSRF-TOKEN header to match the
// request's secret cookie. A failed check answers 403 without calling next.
func CSRF(guard *csrf.Guard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := guard.Issue(w)
			if err != nil {
				WriteError(w, r, logger, err)
				return
			}

			if csrf.StateChanging(r.Method) {
				if err := guard.Verify(r); err != nil {
					if logger != nil {
						logger.DebugContext(r.Context(), "csrf rejected",
							slog.String("path", r.URL.Path),
							slog.Any("error", err))
					}
					WriteError(w, r, logger, reporterAuth.ErrCSRFValidation)
					return
				}
			}

			ctx := context.WithValue(r.Context(), csrfTokenContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package httpapi

import (
	"log/slog"
	"net/http"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/MrEthical07/reporterAuth/csrf"
	"github.com/MrEthical07/reporterAuth/middleware"
)

// Options tunes the router.
type Options struct {
	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy bool
	// MetricsPath mounts MetricsHandler when both are set.
	MetricsPath    string
	MetricsHandler http.Handler
	// OTelPath mounts OTelHandler when both are set.
	OTelPath    string
	OTelHandler http.Handler
}

// API holds the handler dependencies.
type API struct {
	engine *reporterAuth.Engine
	logger *slog.Logger
}

// NewRouter wires every route onto a ServeMux.
func NewRouter(engine *reporterAuth.Engine, guard *csrf.Guard, logger *slog.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &API{engine: engine, logger: logger}

	session := middleware.RequireSession(engine, logger)
	admin := func(h http.Handler) http.Handler {
		return session(middleware.RequireAdmin(engine, logger)(h))
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/auth/csrf-token", a.csrfToken)
	api.HandleFunc("POST /api/auth/register", a.register)
	api.HandleFunc("POST /api/auth/verify-email", a.verifyEmail)
	api.HandleFunc("POST /api/auth/resend-verification", a.resendVerification)
	api.HandleFunc("POST /api/auth/login", a.login)
	api.HandleFunc("POST /api/auth/verify-login-otp", a.verifyLoginOTP)
	api.Handle("GET /api/auth/me", session(http.HandlerFunc(a.me)))
	api.Handle("POST /api/auth/logout", session(http.HandlerFunc(a.logout)))
	api.Handle("PUT /api/auth/update-profile", session(http.HandlerFunc(a.updateProfile)))
	api.Handle("PUT /api/auth/change-password", session(http.HandlerFunc(a.changePassword)))
	api.Handle("GET /api/admin/users", admin(http.HandlerFunc(a.listUsers)))
	api.Handle("PUT /api/admin/users/{id}", admin(http.HandlerFunc(a.adminUpdateUser)))
	api.Handle("DELETE /api/admin/users/{id}", admin(http.HandlerFunc(a.adminDeleteUser)))

	root := http.NewServeMux()
	root.Handle("/api/", middleware.CSRF(guard, logger)(api))
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.MetricsPath != "" && opts.MetricsHandler != nil {
		root.Handle("GET "+opts.MetricsPath, opts.MetricsHandler)
	}
	if opts.OTelPath != "" && opts.OTelHandler != nil {
		root.Handle("GET "+opts.OTelPath, opts.OTelHandler)
	}

	return middleware.ClientContext(opts.TrustProxy)(root)
}

package reporterAuth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/reporterAuth/jwt"
)

// Authenticate verifies a session token and returns the caller's claims.
//
// An empty token yields [ErrUnauthorized]; a bad signature, expiry, unknown
// role or revoked token id yields [ErrInvalidToken]. The user store is not
// consulted.
func (e *Engine) Authenticate(ctx context.Context, token string) (*SessionClaims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthenticateLatency, time.Since(start)) }()
	}

	if token == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := e.jwtManager.Parse(token)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrInvalidToken
	}
	claims := sessionClaimsFrom(parsed)
	if !claims.Role.Valid() {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrInvalidToken
	}

	if e.denyList != nil {
		revoked, err := e.denyList.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			e.logger.ErrorContext(ctx, "deny-list lookup failed", slog.Any("error", err))
			e.metricInc(MetricAuthenticateFailure)
			return nil, ErrInvalidToken
		}
		if revoked {
			e.metricInc(MetricAuthenticateFailure)
			return nil, ErrInvalidToken
		}
	}

	return &claims, nil
}

// Authorize checks that the caller's role covers required. Admins pass every
// user-level check.
func (e *Engine) Authorize(claims *SessionClaims, required Role) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if e == nil || e.roles == nil {
		return ErrEngineNotReady
	}
	if !e.roles.Allows(string(claims.Role), string(required)) {
		e.metricInc(MetricForbidden)
		return ErrForbidden
	}
	return nil
}

// Logout ends the caller's session. Without the deny-list this only records
// the event; the client drops the cookie. With it, the token id is revoked
// until expiry. Revocation failures are logged, not returned.
func (e *Engine) Logout(ctx context.Context, claims *SessionClaims) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if e == nil {
		return ErrEngineNotReady
	}

	if e.denyList != nil {
		if err := e.denyList.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			e.logger.WarnContext(ctx, "session revoke failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
		} else {
			e.metricInc(MetricSessionRevoked)
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, claims.UserID, "", nil, nil)
	return nil
}

// GetSelf returns the caller's current profile.
func (e *Engine) GetSelf(ctx context.Context, claims *SessionClaims) (Profile, error) {
	if claims == nil {
		return Profile{}, ErrUnauthorized
	}
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	user, err := e.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}

// SessionCookie builds the HttpOnly, SameSite=Strict cookie carrying s.
func (e *Engine) SessionCookie(s *Session) *http.Cookie {
	return &http.Cookie{
		Name:     e.config.Session.CookieName,
		Value:    s.Token,
		Path:     e.config.Session.CookiePath,
		Expires:  s.ExpiresAt,
		MaxAge:   int(e.config.Session.TTL / time.Second),
		HttpOnly: true,
		Secure:   e.config.Session.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredSessionCookie clears the session cookie on the client.
func (e *Engine) ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.config.Session.CookieName,
		Value:    "",
		Path:     e.config.Session.CookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.config.Session.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SessionCookieName is the cookie the session token travels in.
func (e *Engine) SessionCookieName() string {
	return e.config.Session.CookieName
}

func sessionClaimsFrom(c *jwt.Claims) SessionClaims {
	out := SessionClaims{
		UserID:   c.UID,
		Username: c.Username,
		Role:     Role(c.Role),
		TokenID:  c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

package reporterAuth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

func signRaw(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(testConfig().Session.SigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestAuthenticate(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	ctx := context.Background()
	uid := registerVerified(t, e, mailer, "alice", "a@x.com")
	s := loginSession(t, e, mailer, "a@x.com", testPassword)

	claims, err := e.Authenticate(ctx, s.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != uid || claims.Role != RoleUser || claims.TokenID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := e.Authenticate(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token: expected ErrUnauthorized, got %v", err)
	}
	if _, err := e.Authenticate(ctx, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := e.Authenticate(ctx, s.Token+"x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredAndUnknownRole(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	now := time.Now()

	expired := signRaw(t, gojwt.MapClaims{
		"uid":  "u1",
		"usr":  "alice",
		"role": "user",
		"jti":  "t1",
		"sub":  "u1",
		"iat":  now.Add(-25 * time.Hour).Unix(),
		"exp":  now.Add(-time.Hour).Unix(),
	})
	if _, err := e.Authenticate(ctx, expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}

	unknownRole := signRaw(t, gojwt.MapClaims{
		"uid":  "u1",
		"usr":  "alice",
		"role": "superuser",
		"jti":  "t2",
		"sub":  "u1",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})
	if _, err := e.Authenticate(ctx, unknownRole); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown role: expected ErrInvalidToken, got %v", err)
	}

	otherKey, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"uid": "u1", "role": "admin", "jti": "t3", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("ffffffffffffffffffffffffffffffff"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := e.Authenticate(ctx, otherKey); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key: expected ErrInvalidToken, got %v", err)
	}

	if got := e.MetricsSnapshot().Counters[MetricAuthenticateFailure]; got != 3 {
		t.Fatalf("expected 3 authenticate failures, got %d", got)
	}
}

func TestAuthorize(t *testing.T) {
	e, _, _ := newTestEngine(t)

	user := &SessionClaims{UserID: "u", Role: RoleUser}
	admin := &SessionClaims{UserID: "a", Role: RoleAdmin}

	if err := e.Authorize(user, RoleUser); err != nil {
		t.Fatalf("user/user: %v", err)
	}
	if err := e.Authorize(admin, RoleUser); err != nil {
		t.Fatalf("admin/user: %v", err)
	}
	if err := e.Authorize(admin, RoleAdmin); err != nil {
		t.Fatalf("admin/admin: %v", err)
	}
	if err := e.Authorize(user, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user/admin: expected ErrForbidden, got %v", err)
	}
	if err := e.Authorize(&SessionClaims{Role: "guest"}, RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unknown role: expected ErrForbidden, got %v", err)
	}
	if err := e.Authorize(nil, RoleUser); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil claims: expected ErrUnauthorized, got %v", err)
	}
}

func TestLogoutWithoutDenyListKeepsTokenValid(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	ctx := context.Background()
	registerVerified(t, e, mailer, "alice", "a@x.com")
	s := loginSession(t, e, mailer, "a@x.com", testPassword)

	claims, err := e.Authenticate(ctx, s.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := e.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := e.Authenticate(ctx, s.Token); err != nil {
		t.Fatalf("stateless sessions stay valid until expiry: %v", err)
	}
	if err := e.Logout(ctx, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func newRevokingEngine(t *testing.T) (*Engine, *captureMailer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Session.RevokeOnLogout = true
	mailer := &captureMailer{}
	e, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(newFakeStore()).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(e.Close)
	return e, mailer, mr
}

func TestLogoutRevokesToken(t *testing.T) {
	e, mailer, mr := newRevokingEngine(t)
	ctx := context.Background()
	registerVerified(t, e, mailer, "alice", "a@x.com")
	s := loginSession(t, e, mailer, "a@x.com", testPassword)

	claims, err := e.Authenticate(ctx, s.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := e.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !mr.Exists("revoked:" + claims.TokenID) {
		t.Fatal("expected deny-list entry")
	}
	if ttl := mr.TTL("revoked:" + claims.TokenID); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("deny-list entry should live until token expiry, ttl=%s", ttl)
	}
	if _, err := e.Authenticate(ctx, s.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token: expected ErrInvalidToken, got %v", err)
	}

	// A second session for the same user is unaffected.
	s2 := loginSession(t, e, mailer, "a@x.com", testPassword)
	if _, err := e.Authenticate(ctx, s2.Token); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
}

func TestAuthenticateFailsClosedWhenDenyListDown(t *testing.T) {
	e, mailer, mr := newRevokingEngine(t)
	ctx := context.Background()
	registerVerified(t, e, mailer, "alice", "a@x.com")
	s := loginSession(t, e, mailer, "a@x.com", testPassword)

	mr.SetError("LOADING")
	defer mr.SetError("")
	if _, err := e.Authenticate(ctx, s.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRevokeOnLogoutRequiresRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RevokeOnLogout = true
	_, err := New().WithConfig(cfg).WithUserStore(newFakeStore()).WithMailer(&captureMailer{}).Build()
	if err == nil {
		t.Fatal("expected build error without redis")
	}
}

func TestGetSelf(t *testing.T) {
	e, store, mailer := newTestEngine(t)
	ctx := context.Background()
	uid := registerVerified(t, e, mailer, "alice", "a@x.com")

	p, err := e.GetSelf(ctx, &SessionClaims{UserID: uid, Role: RoleUser})
	if err != nil {
		t.Fatalf("get self: %v", err)
	}
	if p.ID != uid || p.Email != "a@x.com" || !p.EmailVerified {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := store.DeleteUser(ctx, uid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.GetSelf(ctx, &SessionClaims{UserID: uid}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionCookies(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := &Session{Token: "tok", ExpiresAt: time.Now().Add(24 * time.Hour)}

	c := e.SessionCookie(s)
	if c.Name != "token" || c.Value != "tok" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if c.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max age %d", c.MaxAge)
	}

	gone := e.ExpiredSessionCookie()
	if gone.Name != "token" || gone.Value != "" || gone.MaxAge >= 0 {
		t.Fatalf("unexpected clearing cookie: %+v", gone)
	}
	if e.SessionCookieName() != "token" {
		t.Fatal("unexpected cookie name")
	}
}

package reporterAuth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestLoginTwoStageFlow(t *testing.T) {
	e, store, mailer := newTestEngine(t)
	ctx := context.Background()
	uid := registerVerified(t, e, mailer, "alice", "a@x.com")

	challenge, err := e.Login(ctx, LoginRequest{Email: "A@x.com", Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if challenge.Email != "a@x.com" {
		t.Fatalf("unexpected challenge email %q", challenge.Email)
	}
	if !store.byEmail(t, "a@x.com").LoginOTP.Active() {
		t.Fatal("expected pending login challenge")
	}

	code := mailer.last(t, "a@x.com", OTPPurposeLogin)
	s, err := e.VerifyLoginOTP(ctx, "a@x.com", code)
	if err != nil {
		t.Fatalf("verify login otp: %v", err)
	}
	if s.Token == "" || s.Claims.UserID != uid || s.Claims.Role != RoleUser || s.Claims.Username != "alice" {
		t.Fatalf("unexpected session: %+v", s.Claims)
	}
	if d := time.Until(s.ExpiresAt); d <= 23*time.Hour || d > 24*time.Hour {
		t.Fatalf("expected 24h session, got %s", d)
	}
	if store.byEmail(t, "a@x.com").LoginOTP.Active() {
		t.Fatal("login challenge must be consumed")
	}

	if _, err := e.VerifyLoginOTP(ctx, "a@x.com", code); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected code to be single use, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	e, store, mailer := newTestEngine(t)
	ctx := context.Background()
	registerVerified(t, e, mailer, "alice", "a@x.com")
	if _, err := e.Register(ctx, RegisterRequest{Username: "bob", Email: "b@x.com", Password: testPassword}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		name string
		req  LoginRequest
		want error
	}{
		{"missing password", LoginRequest{Email: "a@x.com"}, ErrValidation},
		{"unknown user", LoginRequest{Email: "nobody@x.com", Password: testPassword}, ErrUserNotFound},
		{"wrong password", LoginRequest{Email: "a@x.com", Password: "Wrong123!"}, ErrInvalidCredentials},
		{"unverified", LoginRequest{Email: "b@x.com", Password: testPassword}, ErrEmailNotVerified},
		{"unverified wrong password", LoginRequest{Email: "b@x.com", Password: "Wrong123!"}, ErrEmailNotVerified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Login(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if store.byEmail(t, "a@x.com").LoginOTP.Active() {
		t.Fatal("failed logins must not issue a login challenge")
	}
	for _, m := range mailer.sent {
		if m.Purpose == OTPPurposeLogin {
			t.Fatal("failed logins must not send a login code")
		}
	}
}

func TestLoginRateLimitSixthAttempt(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	for i := 0; i < 5; i++ {
		if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Wrong123!"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	// The correct password does not help once the budget is spent.
	if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on 6th attempt, got %v", err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricLoginRateLimited] != 1 {
		t.Fatalf("expected one rate-limited login, got %d", snap.Counters[MetricLoginRateLimited])
	}
	if snap.Counters[MetricLoginFailure] != 5 {
		t.Fatalf("expected five failures, got %d", snap.Counters[MetricLoginFailure])
	}
}

func TestLoginSuccessfulAttemptsCount(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestLoginNewChallengeReplacesOld(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")
	ctx := context.Background()

	if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	first := mailer.last(t, "a@x.com", OTPPurposeLogin)
	if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	second := mailer.last(t, "a@x.com", OTPPurposeLogin)
	if first == second {
		t.Skip("codes collided")
	}

	if _, err := e.VerifyLoginOTP(ctx, "a@x.com", first); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("superseded code must fail, got %v", err)
	}
	if _, err := e.VerifyLoginOTP(ctx, "a@x.com", second); err != nil {
		t.Fatalf("latest code: %v", err)
	}
}

func TestVerifyLoginOTPExpired(t *testing.T) {
	e, store, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")
	ctx := context.Background()

	if _, err := e.Login(ctx, LoginRequest{Email: "a@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	code := mailer.last(t, "a@x.com", OTPPurposeLogin)

	e.now = func() time.Time { return time.Now().Add(10*time.Minute + time.Second) }
	if _, err := e.VerifyLoginOTP(ctx, "a@x.com", code); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}
	if store.byEmail(t, "a@x.com").LoginOTP.Active() {
		t.Fatal("expired login challenge must be cleared")
	}
}

func TestVerifyLoginOTPWithoutChallenge(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")

	if _, err := e.VerifyLoginOTP(context.Background(), "a@x.com", "123456"); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}
	if _, err := e.VerifyLoginOTP(context.Background(), "nobody@x.com", "123456"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoginDeliveryFailure(t *testing.T) {
	e, _, mailer := newTestEngine(t)
	registerVerified(t, e, mailer, "alice", "a@x.com")
	mailer.err = errSMTPDown

	if _, err := e.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: testPassword}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if e.MetricsSnapshot().Counters[MetricMailFailed] != 1 {
		t.Fatal("expected mail failure to be counted")
	}
}

func TestLoginUpgradesLegacyBcryptHash(t *testing.T) {
	e, store, mailer := newTestEngine(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := store.CreateUser(ctx, &UserRecord{
		UserID:        "legacy-1",
		Username:      "old",
		Email:         "old@x.com",
		PasswordHash:  string(legacy),
		Role:          RoleUser,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := e.Login(ctx, LoginRequest{Email: "old@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	u := store.byEmail(t, "old@x.com")
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Fatalf("expected upgraded hash, got %q", u.PasswordHash)
	}
	if e.MetricsSnapshot().Counters[MetricPasswordHashUpgraded] != 1 {
		t.Fatal("expected upgrade to be counted")
	}

	// The old password still works against the new hash.
	if _, err := e.VerifyLoginOTP(ctx, "old@x.com", mailer.last(t, "old@x.com", OTPPurposeLogin)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := e.Login(ctx, LoginRequest{Email: "old@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
}

func TestLoginUpgradeDisabled(t *testing.T) {
	e, store, _ := newTestEngine(t, func(c *Config) { c.Password.UpgradeOnLogin = false })
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := store.CreateUser(ctx, &UserRecord{
		UserID: "legacy-1", Username: "old", Email: "old@x.com",
		PasswordHash: string(legacy), Role: RoleUser, EmailVerified: true,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := e.Login(ctx, LoginRequest{Email: "old@x.com", Password: testPassword}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.byEmail(t, "old@x.com").PasswordHash != string(legacy) {
		t.Fatal("hash must be left alone when upgrades are disabled")
	}
}

package reporterAuth

import (
	"context"
	"fmt"
	"log/slog"
)

// Login is the password stage of the two-stage login.
//
// Every call counts against the login limiter before anything else is read,
// keyed on the client IP (or the email when no IP is known). On success a new
// login code replaces any earlier one and is emailed to the account.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginChallenge, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	key := clientIPFromContext(ctx)
	if key == "" {
		key = email
	}
	if err := e.checkLimit(ctx, e.loginLimiter, "login", key); err != nil {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	if email == "" || req.Password == "" {
		return nil, e.loginFailed(ctx, "", fmt.Errorf("%w: email and password are required", ErrValidation))
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, e.loginFailed(ctx, "", err)
	}
	if !user.EmailVerified {
		return nil, e.loginFailed(ctx, user.UserID, ErrEmailNotVerified)
	}

	ok, err := e.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		e.logger.ErrorContext(ctx, "stored password hash unreadable", slog.String("user_id", user.UserID), slog.Any("error", err))
	}
	if !ok {
		return nil, e.loginFailed(ctx, user.UserID, ErrInvalidCredentials)
	}

	upgraded := e.upgradedHash(ctx, user, req.Password)

	code, challenge, err := e.newOTP()
	if err != nil {
		return nil, err
	}
	if _, err := e.store.UpdateUser(ctx, user.UserID, func(u *UserRecord) error {
		u.LoginOTP = challenge
		if upgraded != "" && u.PasswordHash == user.PasswordHash {
			u.PasswordHash = upgraded
		}
		u.UpdatedAt = e.now()
		return nil
	}); err != nil {
		return nil, err
	}
	if upgraded != "" {
		e.metricInc(MetricPasswordHashUpgraded)
		e.emitAudit(ctx, auditEventPasswordHashUpgraded, true, user.UserID, "", nil, nil)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, "", nil, nil)

	if err := e.dispatchOTP(ctx, OTPMessage{
		To:        user.Email,
		Username:  user.Username,
		Code:      code,
		Purpose:   OTPPurposeLogin,
		ExpiresIn: e.config.OTP.TTL,
	}); err != nil {
		return nil, err
	}

	return &LoginChallenge{Email: user.Email, ExpiresAt: challenge.ExpiresAt}, nil
}

func (e *Engine) loginFailed(ctx context.Context, userID string, err error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", err, nil)
	return err
}

// upgradedHash returns a fresh hash when the stored one is legacy bcrypt or
// below the configured cost. Failures are logged and leave the hash alone.
func (e *Engine) upgradedHash(ctx context.Context, user *UserRecord, plain string) string {
	if !e.config.Password.UpgradeOnLogin || !e.hasher.NeedsUpgrade(user.PasswordHash) {
		return ""
	}
	h, err := e.hasher.Hash(plain)
	if err != nil {
		e.logger.WarnContext(ctx, "password hash upgrade failed", slog.String("user_id", user.UserID), slog.Any("error", err))
		return ""
	}
	return h
}

// VerifyLoginOTP completes login: the emailed code is consumed and a signed
// session is issued.
func (e *Engine) VerifyLoginOTP(ctx context.Context, email, code string) (*Session, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and otp are required", ErrValidation)
	}
	if err := e.checkLimit(ctx, e.confirmLimiter, "verify_login_otp", "login:"+email); err != nil {
		return nil, err
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	var expired bool
	user, err = e.store.UpdateUser(ctx, user.UserID, func(u *UserRecord) error {
		if err := e.consumeOTP(&u.LoginOTP, code, &expired); err != nil {
			return err
		}
		u.UpdatedAt = e.now()
		return nil
	})
	if err == nil && expired {
		err = ErrInvalidOrExpiredOTP
	}
	if err != nil {
		e.metricInc(MetricLoginOTPFailure)
		e.emitAudit(ctx, auditEventLoginOTPFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	token, claims, err := e.jwtManager.Issue(user.UserID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	e.metricInc(MetricLoginOTPSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginOTPSuccess, true, user.UserID, "", nil, nil)

	sc := sessionClaimsFrom(claims)
	return &Session{Token: token, ExpiresAt: sc.ExpiresAt, Claims: sc}, nil
}

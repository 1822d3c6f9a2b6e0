package reporterAuth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Register creates an unverified account and emails a verification code.
//
// Checks run in order: registration rate limit (per client IP), field
// validation, password policy, email uniqueness. If the email cannot be sent
// the account still exists and [ErrDelivery] is returned; the caller can
// recover with [Engine.ResendVerification].
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	if err := e.checkLimit(ctx, e.registerLimiter, "register", clientIPFromContext(ctx)); err != nil {
		e.metricInc(MetricRegisterRateLimited)
		return nil, err
	}

	if req.Password == "" {
		return nil, e.registerFailed(ctx, fmt.Errorf("%w: password is required", ErrValidation))
	}
	if err := validateIdentity(&req.Username, &req.Email); err != nil {
		return nil, e.registerFailed(ctx, err)
	}
	if err := e.checkPasswordPolicy(req.Password); err != nil {
		return nil, e.registerFailed(ctx, err)
	}

	if _, err := e.store.GetUserByEmail(ctx, req.Email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		return nil, e.registerFailed(ctx, ErrDuplicateEmail)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	code, challenge, err := e.newOTP()
	if err != nil {
		return nil, err
	}

	now := e.now()
	user := &UserRecord{
		UserID:       uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         RoleUser,
		EmailOTP:     challenge,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, e.registerFailed(ctx, ErrDuplicateEmail)
		}
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.UserID, "", nil, nil)

	if err := e.dispatchOTP(ctx, OTPMessage{
		To:        user.Email,
		Username:  user.Username,
		Code:      code,
		Purpose:   OTPPurposeVerification,
		ExpiresIn: e.config.OTP.TTL,
	}); err != nil {
		return nil, err
	}

	return &RegisterResult{UserID: user.UserID, OTPExpiresAt: challenge.ExpiresAt}, nil
}

func (e *Engine) registerFailed(ctx context.Context, err error) error {
	e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
	return err
}

// VerifyEmail confirms a registration code and marks the email verified.
// The code is consumed on success; an expired code is cleared.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and otp are required", ErrValidation)
	}
	if err := e.checkLimit(ctx, e.confirmLimiter, "verify_email", "verify:"+email); err != nil {
		return err
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	var expired bool
	_, err = e.store.UpdateUser(ctx, user.UserID, func(u *UserRecord) error {
		if u.EmailVerified {
			return ErrAlreadyVerified
		}
		if err := e.consumeOTP(&u.EmailOTP, code, &expired); err != nil {
			return err
		}
		if !expired {
			u.EmailVerified = true
		}
		u.UpdatedAt = e.now()
		return nil
	})
	if err == nil && expired {
		err = ErrInvalidOrExpiredOTP
	}
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, auditEventEmailVerification, false, user.UserID, "", err, nil)
		return err
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerification, true, user.UserID, "", nil, nil)
	return nil
}

// ResendVerification replaces the pending email code of an unverified account
// and sends it again. It shares the registration limiter, keyed on the email.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if err := e.checkLimit(ctx, e.registerLimiter, "resend_verification", "resend:"+email); err != nil {
		return err
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, challenge, err := e.newOTP()
	if err != nil {
		return err
	}
	updated, err := e.store.UpdateUser(ctx, user.UserID, func(u *UserRecord) error {
		if u.EmailVerified {
			return ErrAlreadyVerified
		}
		u.EmailOTP = challenge
		u.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventVerificationResent, true, updated.UserID, "", nil, nil)
	return e.dispatchOTP(ctx, OTPMessage{
		To:        updated.Email,
		Username:  updated.Username,
		Code:      code,
		Purpose:   OTPPurposeVerification,
		ExpiresIn: e.config.OTP.TTL,
	})
}

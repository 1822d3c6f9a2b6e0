package reporterAuth

import (
	"context"
	"fmt"
)

// ChangePassword replaces the caller's password after checking the current one.
//
// The new password must satisfy the policy and must not match the current hash
// or any of the retained previous hashes. On success the current hash is pushed
// onto the history, which is truncated to Config.Password.HistorySize.
func (e *Engine) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := e.ready(); err != nil {
		return err
	}
	if userID == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return e.passwordChangeFailed(ctx, userID, fmt.Errorf("%w: current and new password are required", ErrValidation))
	}

	user, err := e.store.GetUserByID(ctx, userID)
	if err != nil {
		return e.passwordChangeFailed(ctx, userID, err)
	}

	ok, err := e.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		return e.passwordChangeFailed(ctx, userID, ErrInvalidCredentials)
	}

	if err := e.checkPasswordPolicy(req.NewPassword); err != nil {
		return e.passwordChangeFailed(ctx, userID, err)
	}

	if e.recentlyUsed(req.NewPassword, user) {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, userID, "", ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	// The checks above ran against a snapshot; the swap only applies if the
	// stored hash is still the one that was verified.
	_, err = e.store.UpdateUser(ctx, userID, func(u *UserRecord) error {
		if u.PasswordHash != user.PasswordHash {
			return ErrInvalidCredentials
		}
		u.PreviousPasswordHashes = pushHistory(u.PasswordHash, u.PreviousPasswordHashes, e.config.Password.HistorySize)
		u.PasswordHash = newHash
		u.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return e.passwordChangeFailed(ctx, userID, err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, "", nil, nil)
	return nil
}

func (e *Engine) passwordChangeFailed(ctx context.Context, userID string, err error) error {
	e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", err, nil)
	return err
}

// recentlyUsed compares plain against the current hash and the history.
func (e *Engine) recentlyUsed(plain string, user *UserRecord) bool {
	candidates := make([]string, 0, 1+len(user.PreviousPasswordHashes))
	candidates = append(candidates, user.PasswordHash)
	candidates = append(candidates, user.PreviousPasswordHashes...)
	for _, h := range candidates {
		if ok, err := e.hasher.Verify(plain, h); err == nil && ok {
			return true
		}
	}
	return false
}

// pushHistory prepends current and keeps at most size entries.
func pushHistory(current string, history []string, size int) []string {
	if size <= 0 {
		return nil
	}
	out := make([]string, 0, size)
	out = append(out, current)
	for _, h := range history {
		if len(out) == size {
			break
		}
		out = append(out, h)
	}
	return out
}

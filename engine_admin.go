package reporterAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// UpdateProfile changes the caller's username and email.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (Profile, error) {
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	if userID == "" {
		return Profile{}, ErrUnauthorized
	}
	if err := validateIdentity(&req.Username, &req.Email); err != nil {
		return Profile{}, err
	}
	if err := e.ensureEmailFree(ctx, req.Email, userID); err != nil {
		return Profile{}, err
	}

	updated, err := e.store.UpdateUser(ctx, userID, func(u *UserRecord) error {
		u.Username = req.Username
		u.Email = req.Email
		u.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	e.metricInc(MetricAccountUpdated)
	e.emitAudit(ctx, auditEventProfileUpdated, true, userID, userID, nil, nil)
	return updated.Profile(), nil
}

// ListUsers returns every account as a redacted profile, newest first.
func (e *Engine) ListUsers(ctx context.Context) ([]Profile, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}

// AdminUpdateUser lets an admin change another account's username, email and role.
func (e *Engine) AdminUpdateUser(ctx context.Context, actor *SessionClaims, userID string, req AdminUpdateRequest) (Profile, error) {
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	if err := e.Authorize(actor, RoleAdmin); err != nil {
		return Profile{}, err
	}
	if userID == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !req.Role.Valid() {
		return Profile{}, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if err := validateIdentity(&req.Username, &req.Email); err != nil {
		return Profile{}, err
	}
	if err := e.ensureEmailFree(ctx, req.Email, userID); err != nil {
		return Profile{}, err
	}

	var previousRole Role
	updated, err := e.store.UpdateUser(ctx, userID, func(u *UserRecord) error {
		previousRole = u.Role
		u.Username = req.Username
		u.Email = req.Email
		u.Role = req.Role
		u.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	e.logger.InfoContext(ctx, "admin updated user",
		slog.String("actor", actor.Username),
		slog.String("user_id", userID),
		slog.String("role", string(updated.Role)))
	e.metricInc(MetricAccountUpdated)
	e.emitAudit(ctx, auditEventAdminUserUpdated, true, userID, actor.UserID, nil, func() map[string]string {
		return map[string]string{
			"actor":         actor.Username,
			"previous_role": string(previousRole),
			"role":          string(updated.Role),
		}
	})
	return updated.Profile(), nil
}

// AdminDeleteUser removes an account and returns the profile it had.
func (e *Engine) AdminDeleteUser(ctx context.Context, actor *SessionClaims, userID string) (Profile, error) {
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	if err := e.Authorize(actor, RoleAdmin); err != nil {
		return Profile{}, err
	}
	if userID == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	deleted, err := e.store.DeleteUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	e.logger.InfoContext(ctx, "admin deleted user",
		slog.String("actor", actor.Username),
		slog.String("user_id", deleted.UserID),
		slog.String("email", deleted.Email))
	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAdminUserDeleted, true, deleted.UserID, actor.UserID, nil, func() map[string]string {
		return map[string]string{
			"actor": actor.Username,
			"email": deleted.Email,
		}
	})
	return deleted.Profile(), nil
}

// ProvisionUser creates an already verified account with the given role. It
// is meant for operator tooling, not for the HTTP surface.
func (e *Engine) ProvisionUser(ctx context.Context, req ProvisionRequest) (Profile, error) {
	if err := e.ready(); err != nil {
		return Profile{}, err
	}
	if req.Role == "" {
		req.Role = RoleUser
	}
	if !req.Role.Valid() {
		return Profile{}, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if req.Password == "" {
		return Profile{}, fmt.Errorf("%w: password is required", ErrValidation)
	}
	if err := validateIdentity(&req.Username, &req.Email); err != nil {
		return Profile{}, err
	}
	if err := e.checkPasswordPolicy(req.Password); err != nil {
		return Profile{}, err
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return Profile{}, err
	}
	now := e.now()
	user := &UserRecord{
		UserID:        uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          req.Role,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		return Profile{}, err
	}

	e.emitAudit(ctx, auditEventUserProvisioned, true, user.UserID, "", nil, func() map[string]string {
		return map[string]string{"role": string(user.Role)}
	})
	return user.Profile(), nil
}

// ensureEmailFree fails with ErrDuplicateEmail when email belongs to an
// account other than ownerID. Stores enforce the same rule on write.
func (e *Engine) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := e.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.UserID != ownerID:
		return ErrDuplicateEmail
	case err == nil, errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return err
	}
}

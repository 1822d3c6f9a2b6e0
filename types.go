package reporterAuth

import (
	"context"
	"time"
)

// Role is the access level stored on a user record.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// OTPChallenge is a pending one-time passcode. Only the digest is stored.
type OTPChallenge struct {
	Digest    string
	ExpiresAt time.Time
}

// Active reports whether the challenge has both a digest and an expiry set.
func (c OTPChallenge) Active() bool {
	return c.Digest != "" && !c.ExpiresAt.IsZero()
}

// Expired reports whether the challenge lapsed at or before now.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// UserRecord is the stored account. It never leaves the engine; clients see [Profile].
type UserRecord struct {
	UserID        string
	Username      string
	Email         string
	PasswordHash  string
	Role          Role
	EmailVerified bool
	EmailOTP      OTPChallenge
	LoginOTP      OTPChallenge
	// PreviousPasswordHashes holds at most five hashes, most recent first.
	PreviousPasswordHashes []string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Profile is the redacted view of a user returned to clients.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

func (u *UserRecord) Profile() Profile {
	return Profile{
		ID:            u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}

// UserStore persists accounts. Implementations return [ErrUserNotFound] and
// [ErrDuplicateEmail] for the corresponding conditions; email comparison is
// case-insensitive.
type UserStore interface {
	CreateUser(ctx context.Context, user *UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	GetUserByID(ctx context.Context, id string) (*UserRecord, error)
	ListUsers(ctx context.Context) ([]*UserRecord, error)
	// UpdateUser loads the record, applies mutate and persists the result as one
	// atomic step. When mutate returns an error nothing is written and that error
	// is returned unchanged.
	UpdateUser(ctx context.Context, id string, mutate func(*UserRecord) error) (*UserRecord, error)
	// DeleteUser removes the record and returns it as it was before removal.
	DeleteUser(ctx context.Context, id string) (*UserRecord, error)
}

// OTPPurpose selects the wording of an OTP email.
type OTPPurpose string

const (
	OTPPurposeVerification OTPPurpose = "verification"
	OTPPurposeLogin        OTPPurpose = "login"
)

// OTPMessage is everything a [Mailer] needs to deliver a code.
type OTPMessage struct {
	To        string
	Username  string
	Code      string
	Purpose   OTPPurpose
	ExpiresIn time.Duration
}

// Mailer delivers OTP emails.
type Mailer interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// SessionClaims identifies the caller of an authenticated request.
type SessionClaims struct {
	UserID    string
	Username  string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a completed two-stage login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Claims    SessionClaims
}

// LoginChallenge is returned after the password stage; the OTP went to Email.
type LoginChallenge struct {
	Email     string
	ExpiresAt time.Time
}

// RegisterResult is returned by [Engine.Register]. The code itself is only emailed.
type RegisterResult struct {
	UserID       string
	OTPExpiresAt time.Time
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AdminUpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// ProvisionRequest creates a verified account directly, bypassing email confirmation.
type ProvisionRequest struct {
	Username string
	Email    string
	Password string
	Role     Role
}

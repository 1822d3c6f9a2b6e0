package password

import "errors"

var (
	// ErrEmptyPassword is returned when hashing an empty string.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrWeakPassword is returned by [Policy.Validate]; the wrapped message names the failed rule.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrPasswordTooLong is returned by [Policy.Validate] above MaxLength.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrUnsupportedHash is returned for encodings neither Argon2id nor bcrypt.
	ErrUnsupportedHash = errors.New("unsupported password hash")
	// ErrMalformedHash is returned for an argon2id string that does not decode.
	ErrMalformedHash = errors.New("malformed argon2id hash")
)

// RuleError names the policy rule a password failed. It unwraps to
// [ErrWeakPassword] or [ErrPasswordTooLong].
type RuleError struct {
	Err  error
	Rule string
}

func (e *RuleError) Error() string { return e.Err.Error() + ": " + e.Rule }

func (e *RuleError) Unwrap() error { return e.Err }

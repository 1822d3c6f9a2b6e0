package reporterAuth

import "errors"

var (
	// ErrValidation is returned for missing fields, malformed input, or bad roles.
	ErrValidation = errors.New("invalid request")
	// ErrWeakPassword is returned when a new password fails the strength policy.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrDuplicateEmail is returned when the email already belongs to another account.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified blocks login for accounts that never confirmed their email.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrInvalidOrExpiredOTP covers both a wrong code and a lapsed or consumed one.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	// ErrAlreadyVerified is returned when verifying an already verified email.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrRateLimited is returned when a limiter window is exhausted.
	ErrRateLimited = errors.New("too many requests")
	// ErrUnauthorized is returned when no session is presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken is returned for a session token that fails verification or was revoked.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the caller's role does not cover the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrCSRFValidation is returned when the anti-forgery header is missing or wrong.
	ErrCSRFValidation = errors.New("invalid csrf token")
	// ErrPasswordReuse is returned when the new password matches the current or a recent one.
	ErrPasswordReuse = errors.New("password was used recently")
	// ErrDelivery is returned when an OTP email could not be sent.
	ErrDelivery = errors.New("could not send email, try again later")
	// ErrEngineNotReady is returned by methods on a nil or partially built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

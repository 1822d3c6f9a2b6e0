package reporterAuth

import (
	"errors"
	"time"
)

// Config holds every tunable of the [Engine]. Start from [DefaultConfig] and
// override what you need; [Builder.Build] validates the result.
type Config struct {
	Session   SessionConfig
	Password  PasswordConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the signed session token and its cookie.
type SessionConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	// SigningKey is the HMAC key for hs256 or the private key for ed25519.
	SigningKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string

	CookieName   string
	CookiePath   string
	CookieSecure bool

	// RevokeOnLogout records logged-out token ids in Redis until they expire.
	// Requires a Redis client on the builder.
	RevokeOnLogout bool
	DenyListPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters and password policy.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// UpgradeOnLogin rehashes legacy or under-cost hashes after a successful password check.
	UpgradeOnLogin bool

	MinLength   int
	MaxLength   int
	HistorySize int
}

// OTPConfig controls one-time passcodes and the confirm-attempt limiter.
type OTPConfig struct {
	Digits             int
	TTL                time.Duration
	MaxConfirmAttempts int
	ConfirmWindow      time.Duration
}

// RateLimitConfig sets the fixed-window limits. A zero MaxAttempts disables that limiter.
type RateLimitConfig struct {
	LoginMaxAttempts    int
	LoginWindow         time.Duration
	RegisterMaxAttempts int
	RegisterWindow      time.Duration
}

// MailConfig bounds OTP delivery. SendTimeout caps a single send; DispatchWait
// is how long a request waits for the outcome before answering.
type MailConfig struct {
	SendTimeout  time.Duration
	DispatchWait time.Duration
}

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. The session signing key is left
// empty and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:            24 * time.Hour,
			SigningMethod:  "hs256",
			CookieName:     "token",
			CookiePath:     "/",
			CookieSecure:   true,
			DenyListPrefix: "revoked:",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
			MinLength:      8,
			MaxLength:      128,
			HistorySize:    5,
		},
		OTP: OTPConfig{
			Digits:             6,
			TTL:                10 * time.Minute,
			MaxConfirmAttempts: 5,
			ConfirmWindow:      10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts:    5,
			LoginWindow:         15 * time.Minute,
			RegisterMaxAttempts: 10,
			RegisterWindow:      time.Hour,
		},
		Mail: MailConfig{
			SendTimeout:  15 * time.Second,
			DispatchWait: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.SigningKey = cloneBytes(cfg.Session.SigningKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	switch c.Session.SigningMethod {
	case "hs256":
		if len(c.Session.SigningKey) < 32 {
			return errors.New("hs256 requires a SigningKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.Session.SigningKey) == 0 || len(c.Session.PublicKey) == 0 {
			return errors.New("ed25519 requires SigningKey and PublicKey")
		}
	default:
		return errors.New("unsupported session signing method")
	}
	if c.Session.CookieName == "" {
		return errors.New("Session CookieName must be set")
	}

	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}
	if c.Password.MaxLength != 0 && c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}
	if c.Password.HistorySize < 0 {
		return errors.New("Password HistorySize must be >= 0")
	}

	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.MaxConfirmAttempts < 0 {
		return errors.New("OTP MaxConfirmAttempts must be >= 0")
	}
	if c.OTP.MaxConfirmAttempts > 0 && c.OTP.ConfirmWindow <= 0 {
		return errors.New("OTP ConfirmWindow must be > 0 when attempts are limited")
	}

	if c.RateLimit.LoginMaxAttempts < 0 || c.RateLimit.RegisterMaxAttempts < 0 {
		return errors.New("RateLimit MaxAttempts must be >= 0")
	}
	if c.RateLimit.LoginMaxAttempts > 0 && c.RateLimit.LoginWindow <= 0 {
		return errors.New("RateLimit LoginWindow must be > 0")
	}
	if c.RateLimit.RegisterMaxAttempts > 0 && c.RateLimit.RegisterWindow <= 0 {
		return errors.New("RateLimit RegisterWindow must be > 0")
	}

	if c.Mail.SendTimeout <= 0 {
		return errors.New("Mail SendTimeout must be > 0")
	}
	if c.Mail.DispatchWait <= 0 {
		return errors.New("Mail DispatchWait must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Policy describes the strength rules a new password must satisfy.
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy requires at least 8 characters with upper case, lower case, a digit,
// and a symbol.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		MaxLength:     128,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Validate returns nil when pw satisfies every rule. Otherwise it returns a
// [*RuleError] for the first rule that failed.
func (p Policy) Validate(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < p.MinLength {
		return &RuleError{ErrWeakPassword, fmt.Sprintf("must be at least %d characters", p.MinLength)}
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return &RuleError{ErrPasswordTooLong, fmt.Sprintf("must be at most %d characters", p.MaxLength)}
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
		default:
			symbol = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return &RuleError{ErrWeakPassword, "missing uppercase letter"}
	case p.RequireLower && !lower:
		return &RuleError{ErrWeakPassword, "missing lowercase letter"}
	case p.RequireDigit && !digit:
		return &RuleError{ErrWeakPassword, "missing digit"}
	case p.RequireSymbol && !symbol:
		return &RuleError{ErrWeakPassword, "missing symbol"}
	}

	return nil
}

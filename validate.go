package reporterAuth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrEthical07/reporterAuth/password"
)

const maxUsernameLength = 64

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// validUsername rejects markup and control characters; usernames are echoed
// back into HTML emails and admin screens.
func validUsername(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLength {
		return false
	}
	for _, r := range name {
		if r == '<' || r == '>' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// validateIdentity normalizes and checks a username/email pair in place.
func validateIdentity(username, email *string) error {
	*username = strings.TrimSpace(*username)
	*email = normalizeEmail(*email)
	if *username == "" || *email == "" {
		return fmt.Errorf("%w: username and email are required", ErrValidation)
	}
	if !validEmail(*email) {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if !validUsername(*username) {
		return fmt.Errorf("%w: invalid username", ErrValidation)
	}
	return nil
}

func (e *Engine) checkPasswordPolicy(pw string) error {
	err := e.policy.Validate(pw)
	var rule *password.RuleError
	if errors.As(err, &rule) {
		return fmt.Errorf("%w: %s", ErrWeakPassword, rule.Rule)
	}
	return err
}

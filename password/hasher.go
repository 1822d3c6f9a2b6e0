package password

import "strings"

// Hasher hashes with Argon2id and verifies Argon2id or legacy bcrypt hashes.
type Hasher struct {
	argon *Argon2
}

// NewHasher creates a [Hasher] with the given Argon2id parameters.
func NewHasher(cfg Config) (*Hasher, error) {
	a, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	return &Hasher{argon: a}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	return h.argon.Hash(password)
}

// Verify dispatches on the hash prefix.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$"+algorithmID+"$"):
		return h.argon.Verify(password, encoded)
	case IsBcryptHash(encoded):
		return VerifyBcrypt(password, encoded)
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsUpgrade is true for every bcrypt hash and for Argon2id hashes below the
// configured cost. Unparseable hashes are left alone.
func (h *Hasher) NeedsUpgrade(encoded string) bool {
	if IsBcryptHash(encoded) {
		return true
	}
	upgrade, err := h.argon.NeedsUpgrade(encoded)
	if err != nil {
		return false
	}
	return upgrade
}

package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
)

const (
	// SecretCookie holds the random secret. It is never readable by scripts.
	SecretCookie = "_csrf"
	// TokenCookie holds the derived token for the client to echo back.
	TokenCookie = "XSRF-TOKEN"
	// HeaderName is the request header that must carry the token.
	HeaderName = "X-XSRF-TOKEN"

	secretSize = 32
	minKeySize = 32
)

var (
	// ErrMissingToken is returned when the secret cookie or the header is absent.
	ErrMissingToken = errors.New("csrf token missing")
	// ErrTokenMismatch is returned when the header does not match the secret.
	ErrTokenMismatch = errors.New("csrf token mismatch")
	// ErrWeakKey is returned by [New] for keys shorter than 32 bytes.
	ErrWeakKey = errors.New("csrf key must be at least 32 bytes")
)

// Options controls the cookies written by [Guard.Issue].
type Options struct {
	Secure bool
	Path   string
}

// Guard issues and checks double-submit tokens bound to a server key. The token
// is base64url(HMAC-SHA256(key, secret)), so a forged cookie pair without the key
// never validates.
type Guard struct {
	key  []byte
	opts Options
}

// New returns a [Guard] keyed with key.
func New(key []byte, opts Options) (*Guard, error) {
	if len(key) < minKeySize {
		return nil, ErrWeakKey
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Guard{key: k, opts: opts}, nil
}

// Token derives the client-visible token for secret.
func (g *Guard) Token(secret string) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue generates a fresh secret, writes both cookies and returns the token.
func (g *Guard) Issue(w http.ResponseWriter) (string, error) {
	var raw [secretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw[:])
	token := g.Token(secret)

	http.SetCookie(w, &http.Cookie{
		Name:     SecretCookie,
		Value:    secret,
		Path:     g.opts.Path,
		HttpOnly: true,
		Secure:   g.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     g.opts.Path,
		HttpOnly: false,
		Secure:   g.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Verify checks the request header against the secret cookie.
func (g *Guard) Verify(r *http.Request) error {
	c, err := r.Cookie(SecretCookie)
	if err != nil || c.Value == "" {
		return ErrMissingToken
	}
	header := r.Header.Get(HeaderName)
	if header == "" {
		return ErrMissingToken
	}
	if !hmac.Equal([]byte(header), []byte(g.Token(c.Value))) {
		return ErrTokenMismatch
	}
	return nil
}

// StateChanging reports whether requests with method must pass [Guard.Verify].
func StateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

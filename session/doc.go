// Package session holds the optional Redis deny-list for session tokens.
//
// Session tokens are stateless signed claims. When revocation on logout is
// enabled, the token id (jti) is written to Redis with a TTL equal to the token's
// remaining lifetime, and authentication consults [DenyList.IsRevoked].
//
// The package does not parse tokens or make authorization decisions.
package session

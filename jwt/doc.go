// Package jwt mints and verifies the signed session tokens carried in the session cookie.
// Tokens hold the user id, display name, role and a unique token id (jti).
package jwt

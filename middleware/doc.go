// Package middleware adapts [reporterAuth.Engine] and [csrf.Guard] to net/http.
//
// # Chain
//
// A typical API chain, outermost first:
//
//	ClientContext -> CSRF -> RequireSession -> RequireRole -> handler
//
//   - [ClientContext] records client IP and User-Agent for rate limiting and audit.
//   - [CSRF] issues a fresh token pair on every response and rejects
//     state-changing requests whose header does not match.
//   - [RequireSession] reads the session cookie and stores verified claims in
//     the request context ([ClaimsFromContext]).
//   - [RequireRole] gates a route on the caller's role.
//
// # Errors
//
// [WriteError] turns engine sentinels into a status code and a `{"error": ...}`
// body. Only the sentinel's message reaches the client; wrapped detail of
// server errors is logged.
package middleware

// Package reporterAuth is the authentication and session-security core of the
// incident reporter service.
//
// The [Engine] runs registration with email confirmation, a two-stage login
// (password, then an emailed one-time code), signed session tokens, password
// changes with reuse history, and role checks for admin operations. It is
// assembled with [Builder] and talks to storage through [UserStore] and to
// email through [Mailer].
//
// # Architecture boundaries
//
// The HTTP surface (cookies, CSRF, JSON) lives in httpapi and middleware. The
// engine never sees requests; callers pass the client IP and User-Agent through
// [WithClientIP] and [WithUserAgent].
//
// # Errors
//
// Every failure is one of the sentinel errors in this package, possibly wrapped
// with detail. Test with errors.Is; only the sentinel's message is safe to show
// to clients.
package reporterAuth

// Package csrf implements signed double-submit CSRF protection.
//
// A random secret lives in an HttpOnly cookie. The token derived from it is
// exposed in a readable cookie and must be echoed in the X-XSRF-TOKEN header on
// every state-changing request.
package csrf

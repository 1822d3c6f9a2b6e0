// Package httpapi exposes [reporterAuth.Engine] as a JSON HTTP API.
//
// Every route under /api/ runs behind the CSRF middleware; session routes add
// [middleware.RequireSession] and admin routes add [middleware.RequireAdmin].
// Request bodies are limited to 1 MiB and decoded into typed request structs.
package httpapi

// Package userstore holds the [reporterAuth.UserStore] implementations:
//
//   - memory: mutex-guarded map for tests and single-process development.
//   - postgres: database/sql over pgx with goose-managed schema.
//
// Emails are compared case-insensitively by both.
package userstore

// Package password implements password hashing, verification, and strength policy.
//
// # Output format
//
// New hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Accounts migrated from the previous deployment carry bcrypt hashes ($2a$/$2b$).
// [Hasher] verifies both and reports bcrypt and under-parameterized Argon2 hashes through
// [Hasher.NeedsUpgrade] so the caller can re-hash after a successful login.
//
// # Architecture boundaries
//
// This package owns hashing, verification, and the [Policy] rules. Reuse history is
// enforced by the Engine, which compares candidates against stored hashes with [Hasher.Verify].
//
// # What this package must NOT do
//
//   - Store or retrieve passwords: callers supply plaintext and receive hashes.
//   - Import any other reporterAuth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password

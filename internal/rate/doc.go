// Package rate provides fixed-window rate limiting behind a swappable [Counter].
//
// # Window semantics
//
// Every attempt increments the key's counter; the first hit starts the window. Once the
// count exceeds the policy budget, [Limiter.Allow] returns [ErrRateLimited] until the
// window expires. Key prefixes used by the engine:
//   - rl:login: login attempts per client
//   - rl:reg: registration and resend per client or email
//   - rl:otp: OTP confirmations per email and purpose
//
// # Backends
//
//   - [RedisCounter]: one Lua script doing INCR and the first-hit PEXPIRE, shared across instances.
//   - [MemoryCounter]: mutex-guarded map, single instance only.
package rate

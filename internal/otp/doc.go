// Package otp generates numeric one-time passcodes and compares them against stored
// digests. Codes never leave this package in persisted form; callers keep only [Digest].
package otp

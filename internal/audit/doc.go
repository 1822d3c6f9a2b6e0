// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, user, actor, IP, metadata.
//
// This package owns event buffering and sink delivery. It does not decide which events
// to emit and does not persist them anywhere a sink does not.
package audit

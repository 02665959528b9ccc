// Package logging is the logger both binaries hand to their components.
// Records go to log/slog; see NewSlogLogger.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	log.Info(ctx, "session refreshed", "user_id", id, "shared", shared)
//
// Tokens and passwords must never be passed as values.
type Logger interface {
	// Debug carries request ids and client state transitions.
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for recoverable trouble: an unreachable refresh, a failed
	// server-side logout.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds args to every record of the returned logger.
	With(args ...any) Logger
}

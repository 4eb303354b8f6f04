// Package logging is the structured-logging surface of the hbd client.
// Output goes to stderr through log/slog so it never mixes with the REPL.
package logging

import "context"

// Logger logs with context. args are key/value pairs:
//
//	log.Info(ctx, "birthday added", "id", b.ID)
//
// A request id stored in ctx with WithRequestID is added to every record.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for failures the client recovers from, e.g. a failed write
	// to the local cache or a rejected backend call.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes args.
	With(args ...any) Logger
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the X-Request-ID of the
// backend call in progress.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withContextArgs(ctx context.Context, args []any) []any {
	if id := RequestID(ctx); id != "" {
		return append(args, "request_id", id)
	}
	return args
}

package port

// Logger is the key/value logging interface used by components that should not
// depend on zap directly.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a Logger that adds args to every entry.
	With(args ...any) Logger
}

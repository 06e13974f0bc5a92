package logger

import (
	"embeddables/internal/app/port"

	"go.uber.org/zap"
)

// zapAdapter implements port.Logger on top of a sugared zap logger, taking
// alternating key/value pairs the way slog does.
type zapAdapter struct {
	s *zap.SugaredLogger
}

// NewAdapter wraps l as a port.Logger.
func NewAdapter(l *zap.Logger) port.Logger {
	return &zapAdapter{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *zapAdapter) Info(msg string, args ...any)  { a.s.Infow(msg, args...) }
func (a *zapAdapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }
func (a *zapAdapter) Warn(msg string, args ...any)  { a.s.Warnw(msg, args...) }
func (a *zapAdapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }

func (a *zapAdapter) With(args ...any) port.Logger { return &zapAdapter{s: a.s.With(args...)} }

package termloom

import "pkt.systems/pslog"

// Logger is the minimal logging interface this package writes to. It is
// intentionally tiny so embedders can plug in their own logger; the zero
// configuration logs nothing.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NopLogger discards all log output.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// PslogLogger adapts a pslog logger to the Logger interface.
type PslogLogger struct {
	L pslog.Logger
}

// NewPslogLogger wraps l; a nil l yields a logger backed by the
// environment-configured pslog default.
func NewPslogLogger(l pslog.Logger) PslogLogger {
	if l == nil {
		l = pslog.LoggerFromEnv()
	}
	return PslogLogger{L: l}
}

func (p PslogLogger) Debug(msg string, keysAndValues ...any) {
	p.L.Debug(msg, keysAndValues...)
}

func (p PslogLogger) Info(msg string, keysAndValues ...any) {
	p.L.Info(msg, keysAndValues...)
}

func (p PslogLogger) Warn(msg string, keysAndValues ...any) {
	p.L.Warn(msg, keysAndValues...)
}

func (p PslogLogger) Error(msg string, keysAndValues ...any) {
	p.L.Error(msg, keysAndValues...)
}

package logger

// Logger is the minimal logging surface consumed by core packages.
// Implementations live under infra/logger so core stays free of
// logging library imports.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

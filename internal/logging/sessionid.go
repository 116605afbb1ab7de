package logging

import "log/slog"

// WithSessionID returns a logger that tags every line with a session id.
// Printf calls get a "session=<id> " prefix; structured calls get an attr.
func WithSessionID(logger Leveled, sessionID string) Leveled {
	if IsNil(logger) {
		return Nop()
	}
	if sessionID == "" {
		return logger
	}
	return &sessionIDLogger{logger: logger, sessionID: sessionID}
}

type sessionIDLogger struct {
	logger    Leveled
	sessionID string
}

func (l *sessionIDLogger) Debug(format string, args ...any) {
	l.logger.Debug(l.prefix(format), args...)
}

func (l *sessionIDLogger) Info(format string, args ...any) {
	l.logger.Info(l.prefix(format), args...)
}

func (l *sessionIDLogger) Warn(format string, args ...any) {
	l.logger.Warn(l.prefix(format), args...)
}

func (l *sessionIDLogger) Error(format string, args ...any) {
	l.logger.Error(l.prefix(format), args...)
}

func (l *sessionIDLogger) Critical(format string, args ...any) {
	l.logger.Critical(l.prefix(format), args...)
}

func (l *sessionIDLogger) Log(level Level, format string, args ...any) {
	l.logger.Log(level, l.prefix(format), args...)
}

func (l *sessionIDLogger) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	tagged := make([]slog.Attr, 0, len(attrs)+1)
	tagged = append(tagged, slog.String("session", l.sessionID))
	tagged = append(tagged, attrs...)
	l.logger.LogAttrs(level, msg, tagged...)
}

func (l *sessionIDLogger) Exception(err error, format string, args ...any) {
	l.logger.Exception(err, l.prefix(format), args...)
}

func (l *sessionIDLogger) unwrapLoggers() []Leveled {
	return []Leveled{l.logger}
}

func (l *sessionIDLogger) prefix(format string) string {
	return "session=" + l.sessionID + " " + format
}

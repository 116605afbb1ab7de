package logging

import (
	"fmt"
	"log/slog"
	"reflect"

	"runtrack/internal/observability"
)

// Logger defines a minimal, printf-style logging contract.
//
// Components that only report progress depend on this interface; the session
// bootstrap needs the richer Leveled contract below.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Leveled extends Logger with the calls an early buffer must capture and
// replay: a critical level, generic level dispatch, structured attributes and
// error reports.
type Leveled interface {
	Logger
	Critical(format string, args ...any)
	Log(level Level, format string, args ...any)
	LogAttrs(level Level, msg string, attrs ...slog.Attr)
	Exception(err error, format string, args ...any)
}

// Level is a log severity. The values line up with slog levels so they can
// be handed to a slog handler unchanged.
type Level int

const (
	LevelDebug    Level = Level(slog.LevelDebug)
	LevelInfo     Level = Level(slog.LevelInfo)
	LevelWarn     Level = Level(slog.LevelWarn)
	LevelError    Level = Level(slog.LevelError)
	LevelCritical Level = Level(observability.LevelCritical)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return slog.Level(l).String()
	}
}

// Slog converts the level for use with a slog handler.
func (l Level) Slog() slog.Level {
	return slog.Level(l)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                 {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(string, ...any)                  {}
func (nopLogger) Error(string, ...any)                 {}
func (nopLogger) Critical(string, ...any)              {}
func (nopLogger) Log(Level, string, ...any)            {}
func (nopLogger) LogAttrs(Level, string, ...slog.Attr) {}
func (nopLogger) Exception(error, string, ...any)      {}

// Nop returns a logger that discards all output.
func Nop() Leveled {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Leveled) Leveled {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// Upgrade returns logger as a Leveled. Plain loggers get Critical mapped to
// Error and Exception rendered with the error appended to the message.
func Upgrade(logger Logger) Leveled {
	if IsNil(logger) {
		return Nop()
	}
	if leveled, ok := logger.(Leveled); ok {
		return leveled
	}
	return &upgraded{logger: logger}
}

type upgraded struct {
	logger Logger
}

func (u *upgraded) Debug(format string, args ...any) { u.logger.Debug(format, args...) }
func (u *upgraded) Info(format string, args ...any)  { u.logger.Info(format, args...) }
func (u *upgraded) Warn(format string, args ...any)  { u.logger.Warn(format, args...) }
func (u *upgraded) Error(format string, args ...any) { u.logger.Error(format, args...) }

func (u *upgraded) Critical(format string, args ...any) {
	u.logger.Error(format, args...)
}

func (u *upgraded) Log(level Level, format string, args ...any) {
	switch {
	case level >= LevelError:
		u.logger.Error(format, args...)
	case level >= LevelWarn:
		u.logger.Warn(format, args...)
	case level >= LevelInfo:
		u.logger.Info(format, args...)
	default:
		u.logger.Debug(format, args...)
	}
}

func (u *upgraded) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	u.Log(level, "%s", formatAttrs(msg, attrs))
}

func (u *upgraded) Exception(err error, format string, args ...any) {
	u.logger.Error("%s: %v", sprintf(format, args), err)
}

// sprintf leaves format untouched when there is nothing to substitute, so a
// literal % survives.
func sprintf(format string, args []any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func formatAttrs(msg string, attrs []slog.Attr) string {
	for _, attr := range attrs {
		msg += " " + attr.String()
	}
	return msg
}

type observabilityPrintfLogger struct {
	logger *observability.Logger
}

// FromObservability wraps an observability logger and preserves printf-style
// call sites by formatting the message before emitting it.
func FromObservability(logger *observability.Logger, component string) Leveled {
	if logger == nil {
		return Nop()
	}
	scoped := logger
	if component != "" {
		scoped = scoped.With("component", component)
	}
	return &observabilityPrintfLogger{logger: scoped}
}

func (l *observabilityPrintfLogger) Debug(format string, args ...any) {
	l.logger.Debug(sprintf(format, args))
}

func (l *observabilityPrintfLogger) Info(format string, args ...any) {
	l.logger.Info(sprintf(format, args))
}

func (l *observabilityPrintfLogger) Warn(format string, args ...any) {
	l.logger.Warn(sprintf(format, args))
}

func (l *observabilityPrintfLogger) Error(format string, args ...any) {
	l.logger.Error(sprintf(format, args))
}

func (l *observabilityPrintfLogger) Critical(format string, args ...any) {
	l.logger.Critical(sprintf(format, args))
}

func (l *observabilityPrintfLogger) Log(level Level, format string, args ...any) {
	l.logger.LogAttrs(level.Slog(), sprintf(format, args))
}

func (l *observabilityPrintfLogger) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	l.logger.LogAttrs(level.Slog(), msg, attrs...)
}

func (l *observabilityPrintfLogger) Exception(err error, format string, args ...any) {
	l.logger.LogAttrs(slog.LevelError, sprintf(format, args), slog.Any("error", err))
}

type multiLogger struct {
	loggers []Leveled
}

// Multi returns a logger fan-out that calls every non-nil logger in order.
func Multi(loggers ...Leveled) Leveled {
	flattened := make([]Leveled, 0, len(loggers))
	for _, logger := range loggers {
		if IsNil(logger) {
			continue
		}
		if ml, ok := logger.(*multiLogger); ok {
			flattened = append(flattened, ml.loggers...)
			continue
		}
		flattened = append(flattened, logger)
	}
	if len(flattened) == 0 {
		return Nop()
	}
	if len(flattened) == 1 {
		return flattened[0]
	}
	return &multiLogger{loggers: flattened}
}

func (l *multiLogger) unwrapLoggers() []Leveled {
	return l.loggers
}

func (l *multiLogger) Debug(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Debug(format, args...)
	}
}

func (l *multiLogger) Info(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Info(format, args...)
	}
}

func (l *multiLogger) Warn(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Warn(format, args...)
	}
}

func (l *multiLogger) Error(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Error(format, args...)
	}
}

func (l *multiLogger) Critical(format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Critical(format, args...)
	}
}

func (l *multiLogger) Log(level Level, format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Log(level, format, args...)
	}
}

func (l *multiLogger) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	for _, logger := range l.loggers {
		logger.LogAttrs(level, msg, attrs...)
	}
}

func (l *multiLogger) Exception(err error, format string, args ...any) {
	for _, logger := range l.loggers {
		logger.Exception(err, format, args...)
	}
}

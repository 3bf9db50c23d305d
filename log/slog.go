package log

import (
	"context"
	"fmt"
	"log/slog"
)

// UserDataValue is a string that should be treated as user data, and therefore tagged as such in the logs.
type UserDataValue string

func (u UserDataValue) LogValue() slog.Value {
	return slog.StringValue(u.String())
}

// String returns the tagged value, allowing use with the formatting verbs.
func (u UserDataValue) String() string {
	return fmt.Sprintf("<ud>%s</ud>", string(u))
}

// UserData returns an Attr for a string value that should be treated as user data.
func UserData(key, value string) slog.Attr {
	return slog.Attr{Key: key, Value: UserDataValue(value).LogValue()}
}

// SlogLogger adapts a structured 'slog.Logger' to the 'Logger' interface so that the formatted messages produced by the
// setup tooling can be emitted as text or JSON records.
type SlogLogger struct {
	Logger *slog.Logger

	// Attrs are attached to every record, for example the run identifier.
	Attrs []slog.Attr
}

// NewSlogLogger returns a 'SlogLogger' writing through the given handler.
func NewSlogLogger(handler slog.Handler, attrs ...slog.Attr) *SlogLogger {
	return &SlogLogger{Logger: slog.New(handler), Attrs: attrs}
}

// Log converts the level and emits the formatted message.
func (s *SlogLogger) Log(level Level, format string, args ...any) {
	s.Logger.LogAttrs(context.Background(), toSlogLevel(level), fmt.Sprintf(format, args...), s.Attrs...)
}

// toSlogLevel maps our levels onto the 'slog' levels; trace and panic have no direct equivalent and are placed either
// side of debug/error.
func toSlogLevel(level Level) slog.Level {
	switch level {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}

	return slog.LevelError + 4
}

// SlogLevel returns the 'slog' level equivalent to the given level, useful when configuring handler options.
func SlogLevel(level Level) slog.Level {
	return toSlogLevel(level)
}

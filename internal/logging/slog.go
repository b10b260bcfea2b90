package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel converts a string log level to slog.Level. Unknown values fall
// back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a text logger writing to console and, if file is non-nil, to file
// as well. Timestamps are RFC3339 in UTC.
func New(console io.Writer, file io.Writer, level string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, handlerOpts))
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	}
	return slog.New(NewMultiHandler(handlers...))
}

// Setup creates the process logger, opening logFile for append when set, and
// installs it as the slog default. The returned close func releases the file.
func Setup(level, logFile string) (*slog.Logger, func() error, error) {
	closer := func() error { return nil }
	var file io.Writer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, err
		}
		file = f
		closer = f.Close
	}
	logger := New(os.Stdout, file, level)
	slog.SetDefault(logger)
	logger.Info("Logging initialized", "level", level)
	return logger, closer, nil
}

// StdLogger adapts logger for libraries that take a *log.Logger, such as the
// router's request logger.
func StdLogger(logger *slog.Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(logger.Handler(), level)
}

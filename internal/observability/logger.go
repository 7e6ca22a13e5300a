package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	logger *slog.Logger
	closer io.Closer
}

type Options struct {
	LogPath    string
	LogLevel   string
	MaxSizeMB  int
	MaxBackups int
}

// NewLogger пишет в stderr и, если задан LogPath, в файл с ротацией
func NewLogger(opts Options) *Logger {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)

	if opts.LogPath != "" {
		file := &lumberjack.Logger{
			Filename:   opts.LogPath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(opts.LogLevel)})
	return &Logger{logger: slog.New(handler), closer: closer}
}

// NewNopLogger для тестов
func NewNopLogger() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...any) {
	l.logger.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...any) {
	l.logger.Error(msg, fields...)
}

func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

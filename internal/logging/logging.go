// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// DatabaseKey is the context key for the database name being processed.
	DatabaseKey ContextKey = "database"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default logger (text format, Warn level): the tools
	// write their results to stdout, so logs stay quiet and go to stderr.
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithDatabase adds a database name to the context.
func WithDatabase(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, DatabaseKey, name)
}

// GetDatabase retrieves the database name from the context.
func GetDatabase(ctx context.Context) string {
	if name, ok := ctx.Value(DatabaseKey).(string); ok {
		return name
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if name := GetDatabase(ctx); name != "" {
		logger = logger.With("database", name)
	}
	return logger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// FileOpened logs that a data file was mapped in and how big it is.
func FileOpened(path string, fileID uint16, pages uint32, args ...any) {
	allArgs := []any{
		"path", path,
		"file_id", fileID,
		"pages", pages,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("file_opened", allArgs...)
}

// CatalogLoaded logs the outcome of the catalog bootstrap.
func CatalogLoaded(database string, tables int, err error, args ...any) {
	allArgs := []any{
		"database", database,
		"tables", tables,
	}
	if err != nil {
		allArgs = append(allArgs, "error", err.Error())
	}
	allArgs = append(allArgs, args...)
	if err != nil {
		defaultLogger.Warn("catalog_loaded", allArgs...)
		return
	}
	defaultLogger.Info("catalog_loaded", allArgs...)
}

// TableError logs a per-row or per-slot failure while scanning a table.
func TableError(table string, operation string, err error, args ...any) {
	allArgs := []any{
		"table", table,
		"operation", operation,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("table_error", allArgs...)
}

// RecoveryScan logs the result of a heuristic page scan.
func RecoveryScan(pages uint32, matched int, candidates int, args ...any) {
	allArgs := []any{
		"pages", pages,
		"matched", matched,
		"candidate_tables", candidates,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("recovery_scan", allArgs...)
}

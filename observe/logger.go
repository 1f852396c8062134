package observe

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var validLogLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// ValidLogLevel reports whether s names a supported level.
func ValidLogLevel(s string) bool {
	_, ok := validLogLevels[strings.ToLower(s)]
	return ok
}

// ParseLogLevel parses a level name, falling back to info.
func ParseLogLevel(s string) zapcore.Level {
	if lvl, ok := validLogLevels[strings.ToLower(s)]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

// zapLogger adapts a *zap.Logger to Logger.
type zapLogger struct {
	z *zap.Logger
}

// NewLogger creates a JSON logger on stderr at the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return newZapLogger(level, zapcore.AddSync(w))
}

// NewFileLogger creates a JSON logger writing to a size-rotated file at path.
func NewFileLogger(level, path string) (Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	return newZapLogger(level, w), nil
}

// NewZapLogger wraps an existing zap logger, for hosts that already own one.
func NewZapLogger(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

func newZapLogger(level string, w zapcore.WriteSyncer) *zapLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, ParseLogLevel(level))
	return &zapLogger{z: zap.New(core)}
}

func (l *zapLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *zapLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *zapLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

func (l *zapLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(zapFields(fields)...)}
}

// Sync flushes buffered entries.
func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

func (l *zapLogger) log(level zapcore.Level, msg string, fields []Field) {
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if isRedactedField(f.Key) {
			out = append(out, zap.String(f.Key, "[REDACTED]"))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func isRedactedField(key string) bool {
	key = strings.ToLower(key)
	for _, r := range RedactedFields {
		if key == r {
			return true
		}
	}
	return false
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (l nopLogger) With(...Field) Logger                  { return l }

var (
	_ Logger = (*zapLogger)(nil)
	_ Logger = nopLogger{}
)

package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log attribute.
type Field = zap.Field

// Logger is the logging surface used throughout the codebase.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// NewZapLogger creates a production‑ready logger (JSON encoding) at the given
// level. An empty level means "info".
func NewZapLogger(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger { return &zapLogger{z: zap.NewNop()} }

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) Logger { return &zapLogger{z: z} }

func String(k, v string) Field                 { return zap.String(k, v) }
func Strings(k string, v []string) Field       { return zap.Strings(k, v) }
func Int(k string, v int) Field                { return zap.Int(k, v) }
func Float64(k string, v float64) Field        { return zap.Float64(k, v) }
func Bool(k string, v bool) Field              { return zap.Bool(k, v) }
func Duration(k string, v time.Duration) Field { return zap.Duration(k, v) }
func Time(k string, v time.Time) Field         { return zap.Time(k, v) }
func Err(err error) Field                      { return zap.Error(err) }

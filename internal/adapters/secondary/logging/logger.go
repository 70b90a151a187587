// Package logging backs ports.Logger with zap.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sydologie/diapoai/internal/domain/entities"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

// Logger is a component-scoped, printf-style logger
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	close func() error
}

// New builds a logger writing to stderr and, when configured, to a file.
// Output is colored console text on a terminal and JSON otherwise.
func New(cfg entities.LoggingConfig) (*Logger, error) {
	level := zap.NewAtomicLevelAt(zapLevel(cfg.GetLevel()))
	if cfg.Verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	json := cfg.JSONFormat || !isTerminal(os.Stderr)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder(json), zapcore.Lock(os.Stderr), level),
	}

	closeFn := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder(true), zapcore.AddSync(f), level))
		closeFn = f.Close
	}

	l := newLogger(zapcore.NewTee(cores...), level)
	l.close = closeFn
	return l, nil
}

// NewWriter builds a logger writing plain console text to w
func NewWriter(w io.Writer, lvl entities.LogLevel) *Logger {
	level := zap.NewAtomicLevelAt(zapLevel(lvl))
	return newLogger(zapcore.NewCore(encoder(false), zapcore.AddSync(w), level), level)
}

// NewFromCore wraps an existing zap core
func NewFromCore(core zapcore.Core) *Logger {
	return newLogger(core, zap.NewAtomicLevelAt(zapcore.DebugLevel))
}

func newLogger(core zapcore.Core, level zap.AtomicLevel) *Logger {
	return &Logger{
		sugar: zap.New(core).Sugar(),
		level: level,
		close: func() error { return nil },
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func zapLevel(l entities.LogLevel) zapcore.Level {
	switch l {
	case entities.LogLevelDebug:
		return zapcore.DebugLevel
	case entities.LogLevelWarn:
		return zapcore.WarnLevel
	case entities.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Named returns a child logger tagged with component
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		sugar: l.sugar.With("component", component),
		level: l.level,
		close: l.close,
	}
}

// SetLevel changes the level of this logger and every child
func (l *Logger) SetLevel(level entities.LogLevel) {
	l.level.SetLevel(zapLevel(level))
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

// Success logs at info level with an outcome field
func (l *Logger) Success(msg string, args ...interface{}) {
	l.sugar.With("outcome", "success").Infof(msg, args...)
}

// Sync flushes buffered entries and closes the log file
func (l *Logger) Sync() error {
	_ = l.sugar.Sync()
	return l.close()
}

var _ ports.Logger = (*Logger)(nil)

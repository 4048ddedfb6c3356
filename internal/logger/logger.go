// Package logger builds the zap loggers used by the generator.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names, shared by every package that logs.
const (
	FieldArtifact = "artifact"
	FieldTarget   = "target"
	FieldFile     = "file"
	FieldProvider = "provider"
	FieldCount    = "count"
	FieldBytes    = "bytes"
	FieldScope    = "scope"
)

// ParseLevel accepts zap level names plus "trace", which logs everything
// debug does.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.EqualFold(s, "trace") {
		return zapcore.DebugLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return l, errors.Wrapf(err, "invalid log level %q", s)
	}
	return l, nil
}

// New returns a logger writing to stderr. Artifacts may go to stdout, so
// logs never do.
func New(level string, jsonOutput bool) (*zap.Logger, error) {
	return NewWithWriter(level, jsonOutput, os.Stderr)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(level string, jsonOutput bool, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	if jsonOutput {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var nopLogger = &Logger{SugaredLogger: zap.NewNop().Sugar()}

const defaultZapLevel = zapcore.InfoLevel

// ParseLevel maps a configured level name onto zap. Unknown names fall back
// to info.
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel, "warning":
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if strings.EqualFold(format, FormatJSON) {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(level zapcore.Level, format string) zapcore.Core {
	ws := zapcore.Lock(os.Stdout)
	return zapcore.NewCore(newEncoder(format), zapcore.AddSync(ws), zap.NewAtomicLevelAt(level))
}

func newZapLogger(levelStr, format string) *Logger {
	core := newCore(ParseLevel(levelStr), format)
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}

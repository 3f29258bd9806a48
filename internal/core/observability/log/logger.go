package log

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

var (
	innerLogger          *Logger
	loggerInitializeOnce sync.Once
)

// Logger is the zap-backed implementation of Log.
type Logger struct {
	zapLogger *zap.Logger
	zapLevel  zap.AtomicLevel
}

func New(level Level) *Logger {
	zapLevel := zap.NewAtomicLevelAt(toZapLevel(level))
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}

	logger := &Logger{
		zapLogger: zapLogger,
		zapLevel:  zapLevel,
	}

	loggerInitializeOnce.Do(func() { innerLogger = logger })

	return logger
}

// NewNop returns a logger that discards everything. Library default when
// the embedder supplies no sink.
func NewNop() *Logger {
	return &Logger{
		zapLogger: zap.NewNop(),
		zapLevel:  zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// Provide returns the first logger created by New, or a nop logger if New
// was never called.
func Provide() *Logger {
	if innerLogger == nil {
		return NewNop()
	}
	return innerLogger
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, toZapFields(fields...)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZapFields(fields...)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZapFields(fields...)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZapFields(fields...)...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields...)...),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelSilent:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarn
	case zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelSilent
	}
}

func toZapFields(fields ...Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch f.Type {
		case BoolType:
			out = append(out, zap.Bool(f.Key, f.Value.(bool)))
		case DurationType:
			out = append(out, zap.Duration(f.Key, f.Value.(time.Duration)))
		case Float64Type:
			out = append(out, zap.Float64(f.Key, f.Value.(float64)))
		case IntType:
			out = append(out, zap.Int(f.Key, f.Value.(int)))
		case Int64Type:
			out = append(out, zap.Int64(f.Key, f.Value.(int64)))
		case StringType:
			out = append(out, zap.String(f.Key, f.Value.(string)))
		case Uint32Type:
			out = append(out, zap.Uint32(f.Key, f.Value.(uint32)))
		case Uint64Type:
			out = append(out, zap.Uint64(f.Key, f.Value.(uint64)))
		case ErrorType:
			err, _ := f.Value.(error)
			out = append(out, zap.Error(err))
		default:
			out = append(out, zap.Any(f.Key, f.Value))
		}
	}
	return out
}

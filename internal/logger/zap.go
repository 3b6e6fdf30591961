package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLevels = map[Level]zapcore.Level{
	DebugLevel: zapcore.DebugLevel,
	InfoLevel:  zapcore.InfoLevel,
	WarnLevel:  zapcore.WarnLevel,
	ErrorLevel: zapcore.ErrorLevel,
	FatalLevel: zapcore.FatalLevel,
}

type zapAdapter struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// New builds a JSON logger at InfoLevel writing to every sink in writers.
func New(writers ...io.Writer) Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sinks := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		sinks = append(sinks, zapcore.AddSync(w))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zap.CombineWriteSyncers(sinks...),
		level,
	)

	return &zapAdapter{
		base:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level: level,
	}
}

func (a *zapAdapter) Debug(msg string, fields ...Field) { a.base.Debug(msg, fields...) }

func (a *zapAdapter) Info(msg string, fields ...Field) { a.base.Info(msg, fields...) }

func (a *zapAdapter) Warn(msg string, fields ...Field) { a.base.Warn(msg, fields...) }

func (a *zapAdapter) Error(msg string, fields ...Field) { a.base.Error(msg, fields...) }

func (a *zapAdapter) Fatal(msg string, fields ...Field) { a.base.Fatal(msg, fields...) }

func (a *zapAdapter) With(fields ...Field) Logger {
	return &zapAdapter{base: a.base.With(fields...), level: a.level}
}

func (a *zapAdapter) Sync() error { return a.base.Sync() }

func (a *zapAdapter) SetLevel(level Level) {
	if zl, ok := zapLevels[level]; ok {
		a.level.SetLevel(zl)
	}
}

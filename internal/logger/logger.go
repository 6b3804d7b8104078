package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
	base  = zap.NewNop()
)

// Init installs a JSON logger writing to stdout.
func Init() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.LevelKey = "level"
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		level,
	)

	base = zap.New(core)
	base.Info("logger initialized")
}

// SetLevel changes the minimum level. Unknown names keep the current level.
func SetLevel(name string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		Warn("unknown log level", map[string]any{"level": name})
		return
	}
	level.SetLevel(l)
}

// Replace swaps the underlying zap logger. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) func() {
	prev := base
	base = l
	return func() { base = prev }
}

func Sync() {
	_ = base.Sync()
}

func Debug(msg string, fields map[string]any) {
	base.Debug(msg, toZap(fields)...)
}

func Info(msg string, fields map[string]any) {
	base.Info(msg, toZap(fields)...)
}

func Warn(msg string, fields map[string]any) {
	base.Warn(msg, toZap(fields)...)
}

func Error(msg string, fields map[string]any) {
	base.Error(msg, toZap(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	base.Error(msg, toZap(fields)...)
	_ = base.Sync()
	os.Exit(1)
}

// toZap converts a field map in key order so log lines are stable.
func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

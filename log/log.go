package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger = newLogger()
)

func newLogger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// 设置日志级别，如"debug"、"info"、"warn"、"error"
func SetLevel(l string) (err error) {
	var lv zapcore.Level
	if err = lv.UnmarshalText([]byte(l)); err != nil {
		return
	}
	level.SetLevel(lv)
	return
}

// 替换全局logger（测试中可传入zaptest/observer的logger）
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l.WithOptions(zap.AddCallerSkip(1))
	}
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Sync() error {
	return logger.Sync()
}

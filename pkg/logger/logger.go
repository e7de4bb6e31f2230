package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Instance 全局日志实例，未初始化时为 Nop
var Instance = zap.NewNop()

type ctxKey struct{}

// Config 日志配置
type Config struct {
	LogFile    string // 日志文件路径，为空时只输出到控制台
	Level      string // debug/info/warn/error
	MaxSize    int    // 单个文件最大尺寸（MB）
	MaxBackups int    // 保留的旧文件个数
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩旧文件
	Console    bool   // 是否同时输出到控制台
}

// InitLogger 根据配置初始化全局日志
func InitLogger(cfg Config) {
	Instance = New(cfg)
}

// New 创建一个 zap 日志实例
func New(cfg Config) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := parseLevel(cfg.Level)
	var cores []zapcore.Core

	if cfg.LogFile != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), level))
	}
	if cfg.Console || cfg.LogFile == "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithContext 把字段附加到 context 上，后续日志自动携带
func WithContext(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(fields...))
}

// FromContext 取出 context 上的日志实例
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return Instance
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Error(msg, fields...)
}

func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Fatal(msg, fields...)
}

func Debugf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Debug(fmt.Sprintf(format, args...))
}

func Infof(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Info(fmt.Sprintf(format, args...))
}

func Warnf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Warn(fmt.Sprintf(format, args...))
}

func Errorf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Error(fmt.Sprintf(format, args...))
}

func Fatalf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Fatal(fmt.Sprintf(format, args...))
}

// Sync 刷新缓冲区
func Sync() error {
	return Instance.Sync()
}

package sentinel

import (
	"github.com/alibaba/sentinel-golang/logging"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
)

// SentinelLogger 把 sentinel 的日志转到 zap
type SentinelLogger struct {
	logger *zap.Logger
}

func NewSentinelLogger() logging.Logger {
	return &SentinelLogger{
		logger: logger.Instance.Named("sentinel"),
	}
}

func (l *SentinelLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (l *SentinelLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (l *SentinelLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(convertToZapFields(keysAndValues...), zap.Error(err))...)
}

func (l *SentinelLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToZapFields(keysAndValues...)...)
}

func (l *SentinelLogger) DebugEnabled() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}

func (l *SentinelLogger) InfoEnabled() bool {
	return l.logger.Core().Enabled(zap.InfoLevel)
}

func (l *SentinelLogger) WarnEnabled() bool {
	return l.logger.Core().Enabled(zap.WarnLevel)
}

func (l *SentinelLogger) ErrorEnabled() bool {
	return l.logger.Core().Enabled(zap.ErrorLevel)
}

// convertToZapFields 键值对转 zap 字段，非字符串键丢弃
func convertToZapFields(keysAndValues ...any) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		var value any
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		fields = append(fields, zap.Any(key, value))
	}
	return fields
}

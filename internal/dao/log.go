package dao

import (
	"context"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
	"xorm.io/xorm/contexts"
)

// XormLogger SQL 日志钩子，慢查询总是记录
type XormLogger struct {
	showSQL       bool
	slowThreshold time.Duration
}

func NewXormLogger(showSQL bool) *XormLogger {
	return &XormLogger{
		showSQL:       showSQL,
		slowThreshold: 100 * time.Millisecond,
	}
}

func (s *XormLogger) BeforeProcess(c *contexts.ContextHook) (context.Context, error) {
	return c.Ctx, nil
}

func (s *XormLogger) AfterProcess(c *contexts.ContextHook) error {
	fields := []zap.Field{zap.String("sql", c.SQL), zap.Duration("exec_time", c.ExecuteTime)}
	if len(c.Args) > 0 {
		fields = append(fields, zap.Any("args", c.Args))
	}
	if c.Err != nil {
		logger.Error(c.Ctx, "SQL failed", append(fields, zap.Error(c.Err))...)
		return nil
	}

	switch {
	case c.ExecuteTime > s.slowThreshold:
		logger.Warn(c.Ctx, "Slow SQL", fields...)
	case s.showSQL:
		logger.Debug(c.Ctx, "SQL", fields...)
	}
	return nil
}

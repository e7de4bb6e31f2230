package cron

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/scadaclient"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
)

// ScadaPinger 远程 SCADA 服务器状态
type ScadaPinger interface {
	Ping(ctx context.Context) (*scadaclient.Status, error)
}

// healthCheck 检查 SCADA 服务器，不可用时只记录日志
func healthCheck(scada ScadaPinger) func(context.Context) {
	return func(ctx context.Context) {
		status, err := scada.Ping(ctx)
		if err != nil {
			logger.Error(ctx, "[TASK] SCADA server health check failed", zap.Error(err))
			return
		}
		if !status.Running {
			logger.Warn(ctx, "[TASK] SCADA server is not running", zap.String("version", status.Version))
			return
		}
		logger.Debug(ctx, "[TASK] SCADA server health check successful", zap.String("version", status.Version))
	}
}

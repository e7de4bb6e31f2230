package cron

import (
	"context"

	"github.com/ayxworxfr/scada_web/pkg/cron"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
)

// 任务名，与配置文件中的 tasks 对应
const (
	TaskRefreshAppData = "refresh_app_data"
	TaskSweepSessions  = "sweep_sessions"
	TaskHealthCheck    = "health_check"
)

// Refresher 刷新应用数据
type Refresher interface {
	Init(ctx context.Context) error
}

// Sweeper 清理过期会话
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Deps 为空的依赖对应的任务不注册
type Deps struct {
	AppData  Refresher
	Sessions Sweeper
	Scada    ScadaPinger
}

// NewRegistry 注册所有可用任务
func NewRegistry(deps Deps) *cron.TaskRegistry {
	registry := cron.NewTaskRegistry()
	if deps.AppData != nil {
		registry.Register(TaskRefreshAppData, func(ctx context.Context) {
			if err := deps.AppData.Init(ctx); err != nil {
				logger.Warn(ctx, "[TASK] Application data refreshed with errors", zap.Error(err))
			}
		})
	}
	if deps.Sessions != nil {
		registry.Register(TaskSweepSessions, func(ctx context.Context) {
			deps.Sessions.Sweep(ctx)
		})
	}
	if deps.Scada != nil {
		registry.Register(TaskHealthCheck, healthCheck(deps.Scada))
	}
	return registry
}

// InitCronTask 按配置加载任务并启动
func InitCronTask(deps Deps, tasks []cron.TaskConfig) (*cron.TaskManager, error) {
	manager := cron.NewTaskManager()
	if len(tasks) == 0 {
		return manager, nil
	}
	if err := manager.LoadTasks(tasks, NewRegistry(deps)); err != nil {
		return nil, err
	}
	manager.Start()
	return manager, nil
}

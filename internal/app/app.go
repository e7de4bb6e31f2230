package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayxworxfr/scada_web/internal/app/router"
	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

type App struct {
	server    *server.Hertz
	config    *config.Config
	initFuncs []func() error
	exitFuncs []func() error
}

func NewApp(cfg *config.Config) *App {
	tracer, tcfg := hertztracing.NewServerTracer()
	h := server.Default(tracer,
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.Port)),
		server.WithExitWaitTime(5*time.Second),
	)
	h.Use(hertztracing.ServerMiddleware(tcfg))
	return &App{
		server: h,
		config: cfg,
	}
}

// Run 执行初始化函数后启动服务，阻塞到服务停止
func (a *App) Run() error {
	ctx := context.Background()
	logger.Info(ctx, "Starting application...")
	if err := a.executeFuns(a.initFuncs...); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	logger.Info(ctx, "Starting server", zap.Int("port", a.config.Server.Port))
	return a.server.Run()
}

// GracefulShutdown 执行退出函数并关闭服务，退出函数的错误只记录
func (a *App) GracefulShutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result error
	for _, fun := range a.exitFuncs {
		if err := fun(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		logger.Error(ctx, "Exit functions failed", zap.Error(result))
	}

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", zap.Error(err))
	}
}

// Use 添加全局中间件
func (a *App) Use(middlewares ...app.HandlerFunc) {
	a.server.Use(middlewares...)
}

func (a *App) Group(path string) *router.RouterGroup {
	return router.NewRouterGroup(a.server.Group(path))
}

func (a *App) RegisterInit(initFuncs ...func() error) {
	a.initFuncs = append(a.initFuncs, initFuncs...)
}

func (a *App) RegisterExit(exitFuncs ...func() error) {
	a.exitFuncs = append(a.exitFuncs, exitFuncs...)
}

func (a *App) executeFuns(funs ...func() error) error {
	for _, fun := range funs {
		if err := fun(); err != nil {
			return err
		}
	}
	return nil
}

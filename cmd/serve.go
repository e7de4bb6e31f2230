package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	myapp "github.com/ayxworxfr/scada_web/internal/app"
	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/cron"
	"github.com/ayxworxfr/scada_web/internal/dao"
	"github.com/ayxworxfr/scada_web/internal/handler"
	"github.com/ayxworxfr/scada_web/internal/middleware/sentinel"
	"github.com/ayxworxfr/scada_web/internal/service"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 3 * time.Second
	watchDelay      = 500 * time.Millisecond
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := initConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := initDatabase(ctx, cfg); err != nil {
		return err
	}

	svc, err := service.Init(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize services")
	}
	handler.Init(handler.Deps{
		AppData:  svc.AppData,
		Sessions: svc.Sessions,
		Scada:    svc.Scada,
		DBPing:   dao.Engine().Ping,
	})

	app := myapp.NewApp(cfg)
	if closer, ok := svc.Store.(io.Closer); ok {
		app.RegisterExit(closer.Close)
	}
	app.RegisterInit(func() error {
		return initBackground(ctx, cfg, svc, app)
	})
	app.SetupMiddlewares()
	app.SetupRoutes(ctx, svc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-quit:
	}

	logger.Info(ctx, "Shutting down server...")
	cancel()
	app.GracefulShutdown(shutdownTimeout)
	logger.Info(context.Background(), "Server exiting")
	_ = logger.Sync()
	return nil
}

// initDatabase 连接配置库，同步表结构并写入内置角色
func initDatabase(ctx context.Context, cfg *config.Config) error {
	if err := dao.InitRepo(cfg.Database, cfg.Logger.Level); err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	if err := dao.SyncDB(ctx, dao.Engine(), false, nil); err != nil {
		return errors.Wrap(err, "failed to sync database")
	}
	return dao.SeedRoles(ctx)
}

// initBackground 启动限流规则、目录监听、链路追踪和定时任务。
// 只有定时任务配置错误会阻止启动
func initBackground(ctx context.Context, cfg *config.Config, svc *service.Services, app *myapp.App) error {
	if cfg.Sentinel.Enable {
		if err := sentinel.InitSentinel(ctx, utils.GetAbsPath(cfg.Sentinel.ConfigPath)); err != nil {
			logger.Error(ctx, "Failed to initialize sentinel", zap.Error(err))
		}
	}

	if cfg.Web.WatchConfig {
		if err := svc.AppData.Watch(ctx, watchDelay); err != nil {
			logger.Warn(ctx, "Config directory is not watched", zap.Error(err))
		}
	}

	provider, err := myapp.InitOpenTelemetry(ctx, cfg.OpenTelemetry)
	if err != nil {
		logger.Error(ctx, "Failed to initialize OpenTelemetry", zap.Error(err))
	} else if provider != nil {
		app.RegisterExit(func() error {
			return provider.Shutdown(context.Background())
		})
	}

	taskManager, err := cron.InitCronTask(cron.Deps{
		AppData:  svc.AppData,
		Sessions: svc.Sessions,
		Scada:    svc.Scada,
	}, cfg.Tasks)
	if err != nil {
		return errors.Wrap(err, "failed to initialize scheduled tasks")
	}
	app.RegisterExit(func() error {
		taskManager.Stop()
		return nil
	})
	return nil
}

package app

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/app/router"
	"github.com/ayxworxfr/scada_web/internal/handler"
	"github.com/ayxworxfr/scada_web/internal/middleware"
	"github.com/ayxworxfr/scada_web/internal/middleware/sentinel"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/service"
	"github.com/ayxworxfr/scada_web/internal/session"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
)

// SetupMiddlewares 全局中间件，顺序即执行顺序
func (a *App) SetupMiddlewares() {
	a.Use(
		middleware.GlobalErrorHandlerMiddleware(),
		middleware.TraceContextMiddleware(),
		middleware.LogMiddleware(),
		middleware.CorsMiddleware(),
		middleware.DisablePageCacheMiddleware("/static/"),
		sentinel.SentinelMiddleware(),
	)
}

// SetupRoutes 注册所有路由，ctx 取消后限流器停止清理
func (a *App) SetupRoutes(ctx context.Context, svc *service.Services) {
	root := a.Group("/")
	root.GET("/health", handler.HealthHandlerInstance.Health)
	root.GET("/metrics", adaptor.HertzHandler(metrics.Handler()))

	api := a.Group("/api")
	api.Use(middleware.SessionMiddleware(svc.Sessions))

	// 公开路由
	api.POST("/login", handler.AuthHandlerInstance.Login, a.loginLimiter(ctx, svc.Store))
	api.POST("/refresh", handler.AuthHandlerInstance.Refresh)
	api.POST("/logout", handler.AuthHandlerInstance.Logout)

	// 按方法名推导: GetUser -> GET /api/user, GetView -> GET /api/view
	router.AutoRegister.RegisterStruct(api, handler.AllHandlerInstance...)

	admin := api.Group("/settings", middleware.RequireRole(rights.Admin))
	router.AutoRegister.RegisterStruct(admin, handler.SettingsHandlerInstance)
}

// loginLimiter 会话存在 Redis 且配置了 redis 时多实例共享配额
func (a *App) loginLimiter(ctx context.Context, store session.Store) app.HandlerFunc {
	cfg := a.config.RateLimit
	if cfg.Store == "redis" {
		if rs, ok := store.(*session.RedisStore); ok {
			return sentinel.RedisRateLimiter(rs.Client(), cfg.LoginRPS, cfg.LoginBurst, a.config.Session.RedisPrefix)
		}
		logger.Warn(ctx, "Redis rate limiter requires redis session store, falling back to memory")
	}
	return sentinel.IPRateLimiterMiddleware(ctx, cfg.LoginRPS, cfg.LoginBurst, nil)
}

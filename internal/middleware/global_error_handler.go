package middleware

import (
	"context"
	"runtime/debug"

	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
)

// GlobalErrorHandlerMiddleware 捕获处理函数中的 panic，返回统一的错误响应
func GlobalErrorHandlerMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				fields := []zap.Field{
					zap.Any("error", err),
					zap.String("url", string(c.Request.URI().FullURI())),
					zap.String("method", string(c.Request.Method())),
					zap.String("stack", string(debug.Stack())),
				}
				if user, ok := ContextUser(c); ok {
					fields = append(fields, zap.String("login", user.UserLogin()))
				}
				logger.Error(ctx, "Panic occurred", fields...)

				c.JSON(consts.StatusInternalServerError, mycontext.InternalError())
				c.Abort()
			}
		}()

		c.Next(ctx)
	}
}

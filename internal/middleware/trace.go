package middleware

import (
	"context"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceContextMiddleware 把链路 ID 和客户端地址放进日志上下文
func TraceContextMiddleware() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		spanContext := trace.SpanFromContext(ctx).SpanContext()

		fields := []zap.Field{
			zap.String("method", string(c.Method())),
			zap.String("path", string(c.Path())),
			zap.String("client_ip", c.ClientIP()),
		}
		if spanContext.IsValid() {
			fields = append(fields,
				zap.String("trace_id", spanContext.TraceID().String()),
				zap.String("span_id", spanContext.SpanID().String()),
			)
		}

		c.Next(logger.WithContext(ctx, fields...))
	}
}

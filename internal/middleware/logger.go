package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LoggerConfig 请求日志配置
type LoggerConfig struct {
	MaxBodySize     int      // 记录的响应体最大字节数
	TruncatedSuffix string   // 截断后缀
	SensitiveFields []string // 请求参数中需要隐藏的字段
	SkipBodyPaths   []string // 不记录响应体的路径前缀
}

// LoggerMiddleware 请求日志中间件
type LoggerMiddleware struct {
	config LoggerConfig
}

func LogMiddleware() app.HandlerFunc {
	return NewLogger().Logger()
}

// NewLogger 创建请求日志中间件，未设置的字段取默认值
func NewLogger(config ...LoggerConfig) *LoggerMiddleware {
	cfg := LoggerConfig{
		MaxBodySize:     1024 * 4,
		TruncatedSuffix: "[TRUNCATED]",
		SensitiveFields: []string{"password", "token", "secret"},
		// 视图内容可能很大
		SkipBodyPaths: []string{"/api/view", "/metrics"},
	}
	if len(config) > 0 {
		userCfg := config[0]
		if userCfg.MaxBodySize > 0 {
			cfg.MaxBodySize = userCfg.MaxBodySize
		}
		if userCfg.TruncatedSuffix != "" {
			cfg.TruncatedSuffix = userCfg.TruncatedSuffix
		}
		if len(userCfg.SensitiveFields) > 0 {
			cfg.SensitiveFields = userCfg.SensitiveFields
		}
		if userCfg.SkipBodyPaths != nil {
			cfg.SkipBodyPaths = userCfg.SkipBodyPaths
		}
	}
	return &LoggerMiddleware{config: cfg}
}

// Logger 返回 Hertz 处理函数
func (l *LoggerMiddleware) Logger() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		path := string(c.Request.URI().Path())
		span := trace.SpanFromContext(ctx)

		params := l.extractRequestParams(c)
		logger.Debug(ctx, "Request started", zap.Any("params", params))

		c.Next(ctx)

		latency := time.Since(start)
		statusCode := c.Response.StatusCode()
		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.Int("response_size_bytes", len(c.Response.Body())),
		}
		if !l.skipBody(path) {
			fields = append(fields, zap.String("response_body", l.truncate(c.Response.Body())))
		}

		if statusCode >= consts.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(statusCode))
			logger.Warn(ctx, "Request completed with error", fields...)
		} else {
			span.SetStatus(codes.Ok, "")
			logger.Info(ctx, "Request completed", fields...)
		}
		span.AddEvent("request_completed", trace.WithAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.Int64("http.latency_ms", latency.Milliseconds()),
		))
	}
}

func (l *LoggerMiddleware) skipBody(path string) bool {
	return lo.SomeBy(l.config.SkipBodyPaths, func(prefix string) bool { return strings.HasPrefix(path, prefix) })
}

func (l *LoggerMiddleware) truncate(body []byte) string {
	if len(body) <= l.config.MaxBodySize {
		return string(body)
	}
	return string(body[:l.config.MaxBodySize]) + l.config.TruncatedSuffix
}

func (l *LoggerMiddleware) isSensitive(key string) bool {
	key = strings.ToLower(key)
	return lo.SomeBy(l.config.SensitiveFields, func(field string) bool { return strings.Contains(key, field) })
}

// extractRequestParams 查询参数和 JSON 请求体的顶层字段，敏感字段打码
func (l *LoggerMiddleware) extractRequestParams(c *app.RequestContext) map[string]string {
	params := make(map[string]string)
	set := func(key, value string) {
		if l.isSensitive(key) {
			value = "****"
		}
		params[key] = value
	}

	c.QueryArgs().VisitAll(func(key, value []byte) {
		set(string(key), string(value))
	})

	body := c.Request.Body()
	if !strings.Contains(string(c.Request.Header.ContentType()), "application/json") || len(body) == 0 {
		return params
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		params["_json_parse_error"] = err.Error()
		return params
	}
	for k, v := range fields {
		set(k, l.truncate(v))
	}
	return params
}

package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/samber/lo"
)

// CorsMiddleware 跨域中间件，allowOrigins 为空时允许所有源
func CorsMiddleware(allowOrigins ...string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.Request.Header.Peek("Origin"))
		switch {
		case len(allowOrigins) == 0:
			c.Response.Header.Set("Access-Control-Allow-Origin", "*")
		case lo.Contains(allowOrigins, origin):
			c.Response.Header.Set("Access-Control-Allow-Origin", origin)
			c.Response.Header.Set("Vary", "Origin")
			c.Response.Header.Set("Access-Control-Allow-Credentials", "true")
		}
		c.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Response.Header.Set("Access-Control-Max-Age", "86400")

		if string(c.Request.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

// DisablePageCacheMiddleware 外壳页面和 API 响应都不允许缓存，静态资源除外
func DisablePageCacheMiddleware(staticPrefixes ...string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		path := string(c.Path())
		if !lo.SomeBy(staticPrefixes, func(prefix string) bool { return strings.HasPrefix(path, prefix) }) {
			c.Response.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Response.Header.Set("Pragma", "no-cache")
			c.Response.Header.Set("Expires", "0")
		}
		c.Next(ctx)
	}
}

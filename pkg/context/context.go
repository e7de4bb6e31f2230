package context

import (
	"context"
	"strconv"

	"github.com/ayxworxfr/scada_web/pkg/jwtauth"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/pkg/errors"
)

// Context 是对 Hertz 的 app.RequestContext 的封装
type Context struct {
	ctx context.Context
	*app.RequestContext
}

// NewContext 创建一个新的 Context
func NewContext(ctx context.Context, c *app.RequestContext) *Context {
	return &Context{ctx: ctx, RequestContext: c}
}

// Context 返回原始的 context.Context
func (ctx *Context) Context() context.Context {
	if ctx.ctx == nil {
		return context.Background()
	}
	return ctx.ctx
}

// SessionID 当前请求令牌中的会话ID，未登录时为空
func (ctx *Context) SessionID() string {
	sid, err := jwtauth.SessionID(ctx.RequestContext)
	if err != nil {
		return ""
	}
	return sid
}

// GetUserValue 从用户值中获取指定键的值
func (ctx *Context) GetUserValue(key string) (value any, exists bool) {
	return ctx.RequestContext.Get(key)
}

// SetUserValue 设置用户值
func (ctx *Context) SetUserValue(key string, value any) {
	ctx.RequestContext.Set(key, value)
}

// QueryInt 读取整数查询参数
func (ctx *Context) QueryInt(key string) (int, error) {
	raw := ctx.RequestContext.Query(key)
	if raw == "" {
		return 0, errors.Errorf("missing query parameter %s", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("query parameter %s must be an integer, got %q", key, raw)
	}
	return v, nil
}

// SetCookie 添加一个 Set-Cookie 头到响应头中
func (ctx *Context) SetCookie(name, value string, maxAge int, path, domain string, secure, httpOnly bool) {
	ctx.RequestContext.SetCookie(name, value, maxAge, path, domain, protocol.CookieSameSiteLaxMode, secure, httpOnly)
}

// Cookie 返回请求中指定名称的 cookie 值
func (ctx *Context) Cookie(name string) string {
	return string(ctx.RequestContext.Cookie(name))
}

// SetHeader 设置响应头
func (ctx *Context) SetHeader(key, value string) {
	ctx.RequestContext.Response.Header.Set(key, value)
}

// GetHeader 获取请求头
func (ctx *Context) GetHeader(key string) string {
	return string(ctx.RequestContext.Request.Header.Peek(key))
}

// GetResponseHeader 获取响应头
func (ctx *Context) GetResponseHeader(key string) string {
	return string(ctx.RequestContext.Response.Header.Peek(key))
}

// DisableCache 禁止浏览器和代理缓存当前响应
func (ctx *Context) DisableCache() {
	ctx.SetHeader("Cache-Control", "no-cache, no-store, must-revalidate")
	ctx.SetHeader("Pragma", "no-cache")
	ctx.SetHeader("Expires", "0")
}

// Path 返回请求的路径
func (ctx *Context) Path() string {
	return string(ctx.RequestContext.Path())
}

// Method 返回请求的 HTTP 方法
func (ctx *Context) Method() string {
	return string(ctx.RequestContext.Method())
}

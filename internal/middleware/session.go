package middleware

import (
	"context"
	"strings"

	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/session"
	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/jwtauth"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// UserDataKey 请求上下文中保存 *session.UserData 的键
const UserDataKey = "user_data"

// SessionConfig 会话校验配置
type SessionConfig struct {
	// 不需要登录的路径，格式 METHOD:/path、*:/path 或 /path
	ExcludePaths []string
}

var defaultSessionConfig = SessionConfig{
	ExcludePaths: []string{"POST:/api/login", "POST:/api/refresh", "/health", "/metrics"},
}

// SessionMiddleware 校验令牌并取出会话的用户数据
func SessionMiddleware(manager *session.Manager, config ...SessionConfig) app.HandlerFunc {
	cfg := defaultSessionConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(ctx context.Context, c *app.RequestContext) {
		methodPath := string(c.Request.Method()) + ":" + string(c.Request.URI().Path())
		if isExcludedPath(methodPath, cfg.ExcludePaths) {
			c.Next(ctx)
			return
		}

		tokenString := strings.TrimPrefix(string(c.Request.Header.Peek("Authorization")), "Bearer ")
		if tokenString == "" {
			abort(c, consts.StatusUnauthorized, mycontext.Unauthorized("No token provided"))
			return
		}

		claims, err := jwtauth.Instance.ParseToken(tokenString)
		if err != nil {
			abort(c, consts.StatusUnauthorized, mycontext.InvalidToken(err))
			return
		}
		// 刷新令牌只能用于 /api/refresh
		if claims.Type != jwtauth.AccessTokenType {
			abort(c, consts.StatusUnauthorized, mycontext.InvalidToken("not an access token"))
			return
		}
		c.Set(jwtauth.ClaimsKey, claims)

		user, err := manager.Get(ctx, claims.SessionID)
		if err != nil || !user.LoggedOn() {
			logger.Warn(ctx, "Session is not available", zap.String("session", claims.SessionID), zap.Error(err))
			abort(c, consts.StatusUnauthorized, mycontext.Unauthorized("Session expired"))
			return
		}
		c.Set(UserDataKey, user)

		c.Next(logger.WithContext(ctx, zap.String("login", user.UserLogin())))
	}
}

// RequireRole 只允许指定角色访问，需放在 SessionMiddleware 之后
func RequireRole(roles ...rights.Role) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		user, ok := ContextUser(c)
		if !ok {
			abort(c, consts.StatusUnauthorized, mycontext.Unauthorized("Not logged on"))
			return
		}
		if !lo.Contains(roles, user.Role()) {
			logger.Warn(ctx, "Access denied",
				zap.String("role", user.Role().String()), zap.String("path", string(c.Path())))
			abort(c, consts.StatusForbidden, mycontext.Forbidden("Insufficient rights"))
			return
		}
		c.Next(ctx)
	}
}

// ContextUser 取出当前请求的用户数据
func ContextUser(c *app.RequestContext) (*session.UserData, bool) {
	value, exists := c.Get(UserDataKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*session.UserData)
	return user, ok && user != nil
}

func abort(c *app.RequestContext, status int, rsp *mycontext.Response) {
	c.JSON(status, rsp)
	c.Abort()
}

// isExcludedPath 检查路径是否在排除列表中
func isExcludedPath(methodPath string, excludePaths []string) bool {
	for _, excludePath := range excludePaths {
		if method, path, ok := strings.Cut(excludePath, ":"); ok {
			if methodPath == excludePath {
				return true
			}
			// *:/path 匹配任意方法
			if method == "*" && strings.HasSuffix(methodPath, ":"+path) {
				return true
			}
		} else if strings.HasSuffix(methodPath, ":"+excludePath) {
			return true
		}
	}
	return false
}

package handler

import (
	"errors"

	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/domain/params"
	"github.com/ayxworxfr/scada_web/internal/domain/vo"
	"github.com/ayxworxfr/scada_web/internal/phrases"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/session"
	"github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/jwtauth"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
)

// AuthHandler 登录、注销和刷新令牌
type AuthHandler struct {
	appData  *appdata.AppData
	sessions *session.Manager
}

func NewAuthHandler(appData *appdata.AppData, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{appData: appData, sessions: sessions}
}

// @route POST /login
func (h *AuthHandler) Login(c *context.Context, req *params.LoginRequest) *context.Response {
	// 登录前刷新配置，使新用户拿到最新的视图和权限
	if err := h.appData.Init(c.Context()); err != nil {
		logger.Warn(c.Context(), "Application data refreshed with errors", zap.Error(err))
	}

	sid, user, err := h.sessions.Login(c.Context(), c.ClientIP(), req.Username, req.Password)
	if err != nil {
		return h.loginError(err)
	}

	info := user.Info()
	token, err := jwtauth.Instance.GenerateToken(sid, info.Login, info.RoleID)
	if err != nil {
		_ = h.sessions.Logout(c.Context(), sid)
		return context.InternalError(err)
	}

	return context.Success(vo.LoginResult{
		TokenResponse: vo.TokenResponse{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.ExpiresAt,
		},
		User:         info,
		FirstMenuURL: plugin.FirstMenuURL(user.Menu()),
	})
}

func (h *AuthHandler) loginError(err error) *context.Response {
	text := h.appData.Phrases().Get
	switch {
	case errors.Is(err, models.ErrUnknownUser):
		return context.Unauthorized(text(phrases.UnknownUser))
	case errors.Is(err, models.ErrWrongPassword):
		return context.Unauthorized(text(phrases.WrongPassword))
	case errors.Is(err, models.ErrNoRights):
		return context.Forbidden(text(phrases.NoRights))
	}
	return context.InternalError(err)
}

// @route POST /logout
func (h *AuthHandler) Logout(c *context.Context) *context.Response {
	if err := h.sessions.Logout(c.Context(), c.SessionID()); err != nil {
		logger.Warn(c.Context(), "Error removing session record", zap.Error(err))
	}
	return context.NoContent()
}

// @route POST /refresh
// Refresh 会话仍然有效时换发令牌
func (h *AuthHandler) Refresh(c *context.Context, req *params.RefreshTokenRequest) *context.Response {
	claims, err := jwtauth.Instance.ParseToken(req.RefreshToken)
	if err != nil {
		return context.InvalidToken(err)
	}
	if _, err := h.sessions.Get(c.Context(), claims.SessionID); err != nil {
		return context.Unauthorized("Session expired")
	}

	token, err := jwtauth.Instance.RefreshToken(req.RefreshToken)
	if err != nil {
		return context.InvalidToken(err)
	}
	return context.Success(vo.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	})
}

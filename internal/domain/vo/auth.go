package vo

import "github.com/ayxworxfr/scada_web/internal/session"

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type LoginResult struct {
	TokenResponse
	User session.Info `json:"user"`
	// FirstMenuURL 登录后跳转的页面
	FirstMenuURL string `json:"first_menu_url"`
}

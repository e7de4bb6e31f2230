package handler

import (
	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/domain/params"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/jinzhu/copier"
)

type ISettingsHandler interface {
	GetWeb(c *context.Context) *context.Response
	PutWeb(c *context.Context, req *params.UpdateWebSettingsRequest) *context.Response
}

// SettingsHandler Web 参数的查看与修改，仅管理员
type SettingsHandler struct {
	appData *appdata.AppData
}

// @route GET /settings/web
func (h *SettingsHandler) GetWeb(c *context.Context) *context.Response {
	return context.Success(h.appData.WebSettingsCopy())
}

// @route PUT /settings/web
func (h *SettingsHandler) PutWeb(c *context.Context, req *params.UpdateWebSettingsRequest) *context.Response {
	ws := settings.NewWebSettings()
	if err := copier.Copy(ws, req); err != nil {
		return context.ParamError(err)
	}
	if ws.PluginFileNames == nil {
		ws.PluginFileNames = []string{}
	}

	if err := h.appData.SaveWebSettings(c.Context(), ws); err != nil {
		return context.ConfigError(err)
	}
	return context.Success(h.appData.WebSettingsCopy())
}

package handler

import (
	"github.com/ayxworxfr/scada_web/internal/domain/vo"
	"github.com/ayxworxfr/scada_web/internal/middleware"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/pkg/context"
)

type IUserHandler interface {
	GetUser(c *context.Context) *context.Response
	GetMenu(c *context.Context) *context.Response
}

type UserHandler struct{}

// @route GET /user
func (h *UserHandler) GetUser(c *context.Context) *context.Response {
	user, ok := middleware.ContextUser(c.RequestContext)
	if !ok {
		return context.Unauthorized("Not logged on")
	}
	return context.Success(user.Info())
}

// @route GET /menu
func (h *UserHandler) GetMenu(c *context.Context) *context.Response {
	user, ok := middleware.ContextUser(c.RequestContext)
	if !ok {
		return context.Unauthorized("Not logged on")
	}
	items := user.Menu()
	if items == nil {
		items = []plugin.MenuItem{}
	}
	return context.Success(vo.Menu{Items: items, FirstMenuURL: plugin.FirstMenuURL(items)})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/domain/params"
	"github.com/ayxworxfr/scada_web/internal/domain/vo"
	"github.com/ayxworxfr/scada_web/internal/middleware"
	"github.com/ayxworxfr/scada_web/internal/session"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
	"github.com/ayxworxfr/scada_web/pkg/context"
	"github.com/ayxworxfr/scada_web/pkg/httpclient"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"go.uber.org/zap"
)

type IViewHandler interface {
	GetViews(c *context.Context) *context.Response
	GetView(c *context.Context, req *params.GetViewRequest) *context.Response
	GetReports(c *context.Context) *context.Response
}

// ViewHandler 视图和报表，数据来自会话登录时的配置快照
type ViewHandler struct{}

// @route GET /views
func (h *ViewHandler) GetViews(c *context.Context) *context.Response {
	user, ok := middleware.ContextUser(c.RequestContext)
	if !ok {
		return context.Unauthorized("Not logged on")
	}
	vs := user.ViewSettings()
	if vs == nil {
		return context.Success([]*vo.ViewNode{})
	}
	return context.Success(vo.NewViewTree(vs.ViewItems, user.ViewRight))
}

// @route GET /view
func (h *ViewHandler) GetView(c *context.Context, req *params.GetViewRequest) *context.Response {
	user, ok := middleware.ContextUser(c.RequestContext)
	if !ok {
		return context.Unauthorized("Not logged on")
	}

	view, right, err := user.View(c.Context(), req.Index)
	if err != nil {
		logger.Warn(c.Context(), "Error getting view", zap.Int("index", req.Index), zap.Error(err))
		return viewError(err)
	}

	result := vo.View{
		Index: req.Index,
		Type:  view.ViewType(),
		Right: right,
		Data:  view,
	}
	if page, ok := view.(*viewcache.WebPageView); ok {
		result.URL = page.URL()
	}
	return context.Success(result)
}

func viewError(err error) *context.Response {
	var statusErr *httpclient.StatusError
	switch {
	case errors.Is(err, session.ErrNotLoggedOn):
		return context.Unauthorized(err)
	case errors.Is(err, models.ErrNoRights):
		return context.Forbidden(err)
	case errors.Is(err, viewcache.ErrIndexOutOfRange):
		return context.NotFound(err)
	case errors.Is(err, viewcache.ErrUnsupportedViewType):
		return context.ConfigError(err)
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return context.NotFound(err)
	case errors.As(err, new(*settings.ParseError)):
		return context.ConfigError(err)
	}
	return context.ThirdPartyError("scada_server", err)
}

// @route GET /reports
func (h *ViewHandler) GetReports(c *context.Context) *context.Response {
	user, ok := middleware.ContextUser(c.RequestContext)
	if !ok {
		return context.Unauthorized("Not logged on")
	}
	vs := user.ViewSettings()
	if vs == nil {
		return context.Success([]*vo.ReportGroup{})
	}
	return context.Success(vo.NewReportGroups(vs.ReportGroups, user.ReportRight))
}

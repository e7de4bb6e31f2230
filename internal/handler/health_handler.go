package handler

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/domain/vo"
	"github.com/ayxworxfr/scada_web/internal/scadaclient"
	"github.com/ayxworxfr/scada_web/internal/session"
	mycontext "github.com/ayxworxfr/scada_web/pkg/context"
)

// 健康状态
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// ScadaPinger 远程 SCADA 服务器状态
type ScadaPinger interface {
	Ping(ctx context.Context) (*scadaclient.Status, error)
}

type HealthHandler struct {
	appData  *appdata.AppData
	sessions *session.Manager
	scada    ScadaPinger
	dbPing   func() error
}

func NewHealthHandler(deps Deps) *HealthHandler {
	return &HealthHandler{
		appData:  deps.AppData,
		sessions: deps.Sessions,
		scada:    deps.Scada,
		dbPing:   deps.DBPing,
	}
}

// Check 汇总各依赖状态，任一依赖不可用时为 degraded
func (h *HealthHandler) Check(ctx context.Context) vo.Health {
	result := vo.Health{
		Status:      StatusOK,
		Version:     appdata.Version,
		ScadaServer: StatusDisabled,
		Database:    StatusDisabled,
	}
	if h.appData != nil {
		result.Inited = h.appData.Inited()
		result.Plugins = h.appData.PluginNames()
	}
	if h.sessions != nil {
		result.Sessions = h.sessions.Count()
	}

	if h.scada != nil {
		result.ScadaServer = StatusOK
		if status, err := h.scada.Ping(ctx); err != nil || !status.Running {
			result.ScadaServer = StatusDown
		}
	}
	if h.dbPing != nil {
		result.Database = StatusOK
		if err := h.dbPing(); err != nil {
			result.Database = StatusDown
		}
	}

	if result.ScadaServer == StatusDown || result.Database == StatusDown || !result.Inited {
		result.Status = StatusDegraded
	}
	return result
}

// @route GET /health
func (h *HealthHandler) Health(c *mycontext.Context) *mycontext.Response {
	return mycontext.Success(h.Check(c.Context()))
}

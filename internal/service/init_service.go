package service

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/appdata"
	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/dao"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/plugin/builtin"
	"github.com/ayxworxfr/scada_web/internal/scadaclient"
	"github.com/ayxworxfr/scada_web/internal/session"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Services 进程内共享的服务
type Services struct {
	Dirs     config.AppDirectories
	AppData  *appdata.AppData
	Sessions *session.Manager
	Store    session.Store
	Scada    *scadaclient.Client
}

var Instance *Services

// Option 替换默认依赖，测试时使用
type Option func(*options)

type options struct {
	registry *plugin.Registry
	deps     *session.Deps
}

// WithRegistry 使用指定的插件注册表
func WithRegistry(r *plugin.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithSessionDeps 替换用户校验、权限和通道来源
func WithSessionDeps(deps session.Deps) Option {
	return func(o *options) { o.deps = &deps }
}

// Init dao 层初始化完成后调用。创建应用数据和会话管理器，
// 首次刷新应用数据的错误只记录日志，不阻止启动
func Init(ctx context.Context, cfg *config.Config, opts ...Option) (*Services, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = builtin.NewRegistry()
	}

	s := &Services{
		Dirs:  config.NewAppDirectories(cfg.Web.AppDir),
		Scada: scadaclient.New(cfg.ScadaServer),
	}
	s.AppData = appdata.New(s.Dirs, o.registry, appdata.WithCulture(cfg.Web.Culture))
	if err := s.AppData.Init(ctx); err != nil {
		logger.Warn(ctx, "Application data initialized with errors", zap.Error(err))
	}

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return nil, errors.Wrap(err, "create session store")
	}
	s.Store = store

	deps := session.Deps{
		Auth:     dao.UserChecker{},
		Rights:   dao.RightSource{},
		Channels: dao.ChannelSource{},
	}
	if o.deps != nil {
		deps = *o.deps
	}
	deps.Views = s.AppData
	deps.Menu = s.AppData
	deps.Fetcher = s.Scada
	s.Sessions = session.NewManager(store, cfg.Session.TTLDuration(), deps)

	Instance = s
	return s, nil
}

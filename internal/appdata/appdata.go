package appdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/phrases"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Version 应用版本
const Version = "5.1.0"

// AppData 进程级共享数据：配置、字典和插件。所有方法由同一把锁保护
type AppData struct {
	mu sync.Mutex

	dirs     config.AppDirectories
	registry *plugin.Registry
	phrases  *phrases.Phrases

	webSettings  *settings.WebSettings
	viewSettings *settings.ViewSettings
	webBinding   *settings.FileBinding
	viewBinding  *settings.FileBinding

	plugins []plugin.Plugin
	inited  bool
}

// Option AppData 可选项
type Option func(*AppData)

// WithCulture 指定界面语言
func WithCulture(culture string) Option {
	return func(a *AppData) {
		a.phrases = phrases.New(a.dirs.LangDir, culture)
	}
}

// New 创建应用数据，配置保持默认值直到第一次 Init
func New(dirs config.AppDirectories, registry *plugin.Registry, opts ...Option) *AppData {
	if registry == nil {
		registry = plugin.NewRegistry()
	}
	a := &AppData{
		dirs:         dirs,
		registry:     registry,
		webSettings:  settings.NewWebSettings(),
		viewSettings: settings.NewViewSettings(),
		webBinding:   settings.NewFileBinding(dirs.ConfigDir, settings.WebSettingsFileName),
		viewBinding:  settings.NewFileBinding(dirs.ConfigDir, settings.ViewSettingsFileName),
		plugins:      []plugin.Plugin{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.phrases == nil {
		a.phrases = phrases.New(dirs.LangDir, phrases.DefaultCulture)
	}
	return a
}

// Init 刷新应用数据。首次调用时创建目录。
// 每一步的失败都会记录日志，内存中保留上一次成功加载的数据；返回所有失败的汇总
func (a *AppData) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RefreshDuration)

	var result error
	if !a.inited {
		a.inited = true
		if err := a.dirs.Create(); err != nil {
			result = multierror.Append(result, err)
			logger.Error(ctx, "Error creating application directories", zap.Error(err))
		}
		logger.Info(ctx, "Start ScadaWeb", zap.String("version", Version), zap.String("dir", a.dirs.WebAppDir))
	}

	if err := a.refreshDictionaries(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	reloaded, err := a.refreshWebSettings(ctx)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if reloaded {
		if err := a.loadPlugins(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := a.refreshPluginSettings(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	if err := a.refreshViewSettings(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

func (a *AppData) refreshDictionaries(ctx context.Context) error {
	var result error
	for _, name := range phrases.DictionaryNames {
		fileName := phrases.DictionaryFileName(name, a.phrases.Culture())
		reloaded, err := a.phrases.RefreshDictionary(name)
		recordRefresh(fileName, reloaded, err)
		switch {
		case err != nil:
			logger.Error(ctx, "Error loading dictionary", zap.String("file", fileName), zap.Error(err))
			result = multierror.Append(result, err)
		case reloaded:
			logger.Info(ctx, "Dictionary loaded", zap.String("file", fileName))
		}
	}
	return result
}

// refreshWebSettings 读入新实例，成功后才替换当前配置
func (a *AppData) refreshWebSettings(ctx context.Context) (bool, error) {
	reloaded, err := a.webBinding.Refresh(func(path string) error {
		fresh := settings.NewWebSettings()
		if err := fresh.LoadFromFile(path); err != nil {
			return err
		}
		a.webSettings = fresh
		return nil
	})
	recordRefresh(settings.WebSettingsFileName, reloaded, err)

	if err != nil {
		logger.Error(ctx, a.phrases.Get(phrases.LoadWebSettingsError), zap.String("file", a.webBinding.Path), zap.Error(err))
		return false, err
	}
	if reloaded {
		logger.Info(ctx, a.phrases.Get(phrases.WebSettingsLoaded), zap.Strings("plugins", a.webSettings.PluginFileNames))
	}
	return reloaded, nil
}

func (a *AppData) refreshViewSettings(ctx context.Context) error {
	reloaded, err := a.viewBinding.Refresh(func(path string) error {
		fresh := settings.NewViewSettings()
		if err := fresh.LoadFromFile(path); err != nil {
			return err
		}
		a.viewSettings = fresh
		return nil
	})
	recordRefresh(settings.ViewSettingsFileName, reloaded, err)

	if err != nil {
		logger.Error(ctx, "Error loading view settings", zap.String("file", a.viewBinding.Path), zap.Error(err))
		return err
	}
	if reloaded {
		logger.Info(ctx, a.phrases.Get(phrases.ViewSettingsLoaded), zap.Int("views", len(a.viewSettings.AllViewItems)))
	}
	return nil
}

// loadPlugins 按 WebSettings 中的文件名重建插件列表并初始化
func (a *AppData) loadPlugins(ctx context.Context) error {
	var result error
	env := plugin.Env{
		ConfigDir: a.dirs.ConfigDir,
		LangDir:   a.dirs.LangDir,
		Phrases:   a.phrases,
	}

	plugins := make([]plugin.Plugin, 0, len(a.webSettings.PluginFileNames))
	for _, fileName := range a.webSettings.PluginFileNames {
		p, err := a.registry.Create(fileName)
		if err != nil {
			metrics.PluginErrorsTotal.WithLabelValues(plugin.NameFromFileName(fileName), "load").Inc()
			logger.Error(ctx, "Error loading plugin", zap.String("file", fileName), zap.Error(err))
			result = multierror.Append(result, err)
			continue
		}
		plugins = append(plugins, p)
	}

	for _, p := range plugins {
		err := safeCall(func() error { return p.Init(ctx, env) })
		if err != nil {
			metrics.PluginErrorsTotal.WithLabelValues(p.Name(), "init").Inc()
			logger.Error(ctx, "Error initializing plugin", zap.String("plugin", p.Name()), zap.Error(err))
			result = multierror.Append(result, errors.Wrapf(err, "init plugin %s", p.Name()))
			continue
		}
		logger.Info(ctx, "Plugin loaded", zap.String("plugin", p.Name()), zap.String("descr", p.Descr()))
	}

	a.plugins = plugins
	metrics.PluginsLoaded.Set(float64(len(plugins)))
	return result
}

func (a *AppData) refreshPluginSettings(ctx context.Context) error {
	var result error
	for _, p := range a.plugins {
		if err := safeCall(func() error { return p.RefreshSettings(ctx) }); err != nil {
			metrics.PluginErrorsTotal.WithLabelValues(p.Name(), "refresh").Inc()
			logger.Error(ctx, "Error refreshing plugin settings", zap.String("plugin", p.Name()), zap.Error(err))
			result = multierror.Append(result, errors.Wrapf(err, "refresh plugin %s", p.Name()))
		}
	}
	return result
}

// WebSettingsCopy 当前 Web 配置的副本
func (a *AppData) WebSettingsCopy() *settings.WebSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.webSettings.Clone()
}

// ViewSettingsCopy 当前视图配置的副本
func (a *AppData) ViewSettingsCopy() *settings.ViewSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewSettings.Clone()
}

// SaveWebSettings 写入 Web 配置文件并立即刷新
func (a *AppData) SaveWebSettings(ctx context.Context, ws *settings.WebSettings) error {
	if ws == nil {
		return errors.New("web settings are not specified")
	}
	a.mu.Lock()
	path := a.webBinding.Path
	err := ws.SaveToFile(path)
	a.mu.Unlock()
	if err != nil {
		logger.Error(ctx, "Error saving web settings", zap.String("file", path), zap.Error(err))
		return err
	}
	logger.Info(ctx, "Web settings saved", zap.String("file", path))
	return a.Init(ctx)
}

// BuildUserMenu 合并所有插件的菜单。
// 自定义菜单项按插件顺序排列，标准菜单项排在前面（Views、Reports、Config），About 放在最后
func (a *AppData) BuildUserMenu(ctx context.Context, user plugin.User) []plugin.MenuItem {
	a.mu.Lock()
	defer a.mu.Unlock()

	menu := []plugin.MenuItem{}
	standard := map[plugin.StandardMenuItem]bool{}

	for _, p := range a.plugins {
		var (
			items    []plugin.MenuItem
			stdItems []plugin.StandardMenuItem
		)
		// 任一调用失败时整个插件的菜单都不加入
		if err := safeCall(func() (err error) {
			if items, err = p.MenuItems(user); err != nil {
				return err
			}
			stdItems, err = p.StandardMenuItems(user)
			return err
		}); err != nil {
			metrics.PluginErrorsTotal.WithLabelValues(p.Name(), "menu").Inc()
			logger.Error(ctx, "Error getting plugin menu items", zap.String("plugin", p.Name()), zap.Error(err))
			continue
		}

		menu = append(menu, items...)
		for _, item := range stdItems {
			standard[item] = true
		}
	}

	for _, item := range []plugin.StandardMenuItem{plugin.Config, plugin.Reports, plugin.Views} {
		if standard[item] {
			menu = append([]plugin.MenuItem{plugin.ConvertStandardMenuItem(item, a.phrases)}, menu...)
		}
	}
	if standard[plugin.About] {
		menu = append(menu, plugin.ConvertStandardMenuItem(plugin.About, a.phrases))
	}
	return menu
}

// Plugin 按名称查找已加载的插件
func (a *AppData) Plugin(name string) (plugin.Plugin, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return lo.Find(a.plugins, func(p plugin.Plugin) bool { return p.Name() == name })
}

// PluginNames 已加载插件的名称
func (a *AppData) PluginNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return lo.Map(a.plugins, func(p plugin.Plugin, _ int) string { return p.Name() })
}

// Inited 是否已完成首次初始化
func (a *AppData) Inited() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inited
}

func (a *AppData) Phrases() *phrases.Phrases {
	return a.phrases
}

func (a *AppData) Dirs() config.AppDirectories {
	return a.dirs
}

func recordRefresh(file string, reloaded bool, err error) {
	result := metrics.ResultUnchanged
	switch {
	case err != nil:
		result = metrics.ResultError
	case reloaded:
		result = metrics.ResultReloaded
	}
	metrics.SettingsRefreshTotal.WithLabelValues(file, result).Inc()
}

// safeCall 插件代码的 panic 转为错误
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

package builtin

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/pkg/errors"
)

// DashboardSettingsFileName 仪表盘插件配置文件
const DashboardSettingsFileName = "PlgDashboard.toml"

// DashboardSettings 仪表盘配置
type DashboardSettings struct {
	Title       string `toml:"title"`
	Icon        string `toml:"icon"`
	URL         string `toml:"url"`
	RefreshRate int    `toml:"refresh_rate"` // 秒
	// GuestAccess 为 false 时访客看不到仪表盘
	GuestAccess bool `toml:"guest_access"`
}

// DefaultDashboardSettings 配置文件不存在时使用
func DefaultDashboardSettings() DashboardSettings {
	return DashboardSettings{
		Title:       "Dashboard",
		URL:         "/plugins/dashboard",
		RefreshRate: 5,
		GuestAccess: true,
	}
}

// Dashboard 仪表盘插件，请求视图、报表和关于菜单
type Dashboard struct {
	plugin.Base
	settings DashboardSettings
	binding  *settings.FileBinding
}

func NewDashboard() *Dashboard {
	return &Dashboard{settings: DefaultDashboardSettings()}
}

func (d *Dashboard) Name() string { return DashboardName }

func (d *Dashboard) Descr() string { return "Dashboard with the views and reports menu" }

func (d *Dashboard) Init(_ context.Context, env plugin.Env) error {
	d.binding = settings.NewFileBinding(env.ConfigDir, DashboardSettingsFileName)
	return nil
}

// RefreshSettings 配置文件修改后重新读取
func (d *Dashboard) RefreshSettings(context.Context) error {
	if d.binding == nil {
		return errors.New("plugin is not initialized")
	}
	_, err := d.binding.Refresh(d.load)
	return err
}

func (d *Dashboard) load(path string) error {
	s := DefaultDashboardSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d.settings = s
			return nil
		}
		return errors.Wrapf(err, "load %s", path)
	}
	if s.RefreshRate <= 0 {
		return &settings.ParseError{Field: "refresh_rate", Value: "non-positive"}
	}
	d.settings = s
	return nil
}

// Settings 当前配置
func (d *Dashboard) Settings() DashboardSettings {
	return d.settings
}

func (d *Dashboard) MenuItems(user plugin.User) ([]plugin.MenuItem, error) {
	if user.Role() == rights.Guest && !d.settings.GuestAccess {
		return nil, nil
	}
	return []plugin.MenuItem{plugin.NewMenuItem(d.settings.Icon, d.settings.Title, d.settings.URL)}, nil
}

func (d *Dashboard) StandardMenuItems(plugin.User) ([]plugin.StandardMenuItem, error) {
	return []plugin.StandardMenuItem{plugin.Views, plugin.Reports, plugin.About}, nil
}

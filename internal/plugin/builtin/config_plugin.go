package builtin

import (
	"context"
	"os"

	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ConfigSettingsFileName 配置插件的配置文件
const ConfigSettingsFileName = "PlgConfig.yml"

// ConfigSettings 哪些角色可以进入配置页面
type ConfigSettings struct {
	AllowedRoles []int `mapstructure:"allowed_roles"`
	ShowAbout    bool  `mapstructure:"show_about"`
}

// DefaultConfigSettings 默认只有管理员可以配置
func DefaultConfigSettings() ConfigSettings {
	return ConfigSettings{
		AllowedRoles: []int{int(rights.Admin)},
		ShowAbout:    true,
	}
}

// ConfigPlugin 提供配置菜单
type ConfigPlugin struct {
	plugin.Base
	settings ConfigSettings
	binding  *settings.FileBinding
}

func NewConfigPlugin() *ConfigPlugin {
	return &ConfigPlugin{settings: DefaultConfigSettings()}
}

func (p *ConfigPlugin) Name() string { return ConfigName }

func (p *ConfigPlugin) Descr() string { return "Web application configuration" }

func (p *ConfigPlugin) Init(_ context.Context, env plugin.Env) error {
	p.binding = settings.NewFileBinding(env.ConfigDir, ConfigSettingsFileName)
	return nil
}

// RefreshSettings 配置文件修改后重新读取
func (p *ConfigPlugin) RefreshSettings(context.Context) error {
	if p.binding == nil {
		return errors.New("plugin is not initialized")
	}
	_, err := p.binding.Refresh(p.load)
	return err
}

func (p *ConfigPlugin) load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		p.settings = DefaultConfigSettings()
		return nil
	}
	if err != nil {
		return err
	}

	s, err := decodeConfigSettings(data)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	p.settings = s
	return nil
}

// decodeConfigSettings YAML 先解析为 map，再宽松转换为结构体
func decodeConfigSettings(data []byte) (ConfigSettings, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ConfigSettings{}, err
	}

	s := DefaultConfigSettings()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return ConfigSettings{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return ConfigSettings{}, err
	}
	return s, nil
}

// Settings 当前配置
func (p *ConfigPlugin) Settings() ConfigSettings {
	return p.settings
}

func (p *ConfigPlugin) StandardMenuItems(user plugin.User) ([]plugin.StandardMenuItem, error) {
	var items []plugin.StandardMenuItem
	if lo.Contains(p.settings.AllowedRoles, int(user.Role())) {
		items = append(items, plugin.Config)
	}
	if p.settings.ShowAbout {
		items = append(items, plugin.About)
	}
	return items, nil
}

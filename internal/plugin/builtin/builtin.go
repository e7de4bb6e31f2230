// Package builtin 随 Web 外壳一起发布的标准插件
package builtin

import "github.com/ayxworxfr/scada_web/internal/plugin"

// 插件名，与 WebSettings 中的插件文件名对应
const (
	DashboardName = "PlgDashboard"
	ConfigName    = "PlgConfig"
)

// Register 注册全部标准插件
func Register(r *plugin.Registry) {
	r.Register(DashboardName, func() (plugin.Plugin, error) { return NewDashboard(), nil })
	r.Register(ConfigName, func() (plugin.Plugin, error) { return NewConfigPlugin(), nil })
}

// NewRegistry 创建已注册标准插件的注册表
func NewRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	Register(r)
	return r
}

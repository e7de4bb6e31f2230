package vo

import "github.com/ayxworxfr/scada_web/internal/plugin"

// Menu 用户菜单
type Menu struct {
	Items        []plugin.MenuItem `json:"items"`
	FirstMenuURL string            `json:"first_menu_url"`
}

// Health 健康检查结果
type Health struct {
	Status      string   `json:"status"`
	Version     string   `json:"version"`
	Inited      bool     `json:"inited"`
	Plugins     []string `json:"plugins"`
	Sessions    int      `json:"sessions"`
	ScadaServer string   `json:"scada_server"`
	Database    string   `json:"database"`
}

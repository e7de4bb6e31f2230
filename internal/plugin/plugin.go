package plugin

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/phrases"
	"github.com/ayxworxfr/scada_web/internal/rights"
)

// StandardMenuItem 由 Web 外壳提供的标准菜单项
type StandardMenuItem int

const (
	Views StandardMenuItem = iota
	Reports
	Config
	About
)

func (s StandardMenuItem) String() string {
	switch s {
	case Views:
		return "Views"
	case Reports:
		return "Reports"
	case Config:
		return "Config"
	default:
		return "About"
	}
}

// MenuItem 用户菜单项
type MenuItem struct {
	Icon     string     `json:"icon"`
	Text     string     `json:"text"`
	URL      string     `json:"url"`
	Subitems []MenuItem `json:"subitems"`
}

// NewMenuItem 创建没有子项的菜单项
func NewMenuItem(icon, text, url string) MenuItem {
	return MenuItem{Icon: icon, Text: text, URL: url, Subitems: []MenuItem{}}
}

// User 插件生成菜单时可见的用户信息
type User interface {
	UserLogin() string
	Role() rights.Role
}

// Env 插件初始化时获得的运行环境
type Env struct {
	ConfigDir string
	LangDir   string
	Phrases   *phrases.Phrases
}

// Plugin Web 插件
type Plugin interface {
	Name() string
	Descr() string
	// Init 插件加载后调用一次
	Init(ctx context.Context, env Env) error
	// RefreshSettings 每次刷新应用数据时调用
	RefreshSettings(ctx context.Context) error
	MenuItems(user User) ([]MenuItem, error)
	StandardMenuItems(user User) ([]StandardMenuItem, error)
}

// Base 提供默认实现，嵌入后只需实现 Name 和 Descr
type Base struct{}

func (Base) Init(context.Context, Env) error { return nil }

func (Base) RefreshSettings(context.Context) error { return nil }

func (Base) MenuItems(User) ([]MenuItem, error) { return nil, nil }

// StandardMenuItems 默认只请求 About
func (Base) StandardMenuItems(User) ([]StandardMenuItem, error) {
	return []StandardMenuItem{About}, nil
}

var defaultPhrases = phrases.New("", phrases.DefaultCulture)

// ConvertStandardMenuItem 标准菜单项转为菜单项，文字取自字典
func ConvertStandardMenuItem(item StandardMenuItem, p *phrases.Phrases) MenuItem {
	if p == nil {
		p = defaultPhrases
	}
	text := p.Get

	switch item {
	case Views:
		return NewMenuItem("", text(phrases.ViewsMenuItem), "/views")
	case Reports:
		return NewMenuItem("", text(phrases.ReportsMenuItem), "/reports")
	case Config:
		return NewMenuItem("", text(phrases.ConfigMenuItem), "/config")
	default:
		return NewMenuItem("", text(phrases.AboutMenuItem), "/about")
	}
}

// FirstMenuURL 按深度优先返回第一个非空链接，用于登录后跳转
func FirstMenuURL(items []MenuItem) string {
	for _, item := range items {
		if item.URL != "" {
			return item.URL
		}
		if url := FirstMenuURL(item.Subitems); url != "" {
			return url
		}
	}
	return ""
}

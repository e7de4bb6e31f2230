package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
	"github.com/ayxworxfr/scada_web/pkg/logger"
	"github.com/ayxworxfr/scada_web/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotLoggedOn 会话未登录
var ErrNotLoggedOn = errors.New("user is not logged on")

// Authenticator 校验用户名和密码
type Authenticator interface {
	CheckUser(ctx context.Context, login, password string, checkPassword bool) (*models.LoginResult, error)
}

// ViewSettingsProvider 提供当前视图配置的副本
type ViewSettingsProvider interface {
	ViewSettingsCopy() *settings.ViewSettings
}

// MenuProvider 提供网站配置副本和用户菜单
type MenuProvider interface {
	WebSettingsCopy() *settings.WebSettings
	BuildUserMenu(ctx context.Context, user plugin.User) []plugin.MenuItem
}

// Deps 登录和取视图需要的外部服务
type Deps struct {
	Views    ViewSettingsProvider
	Menu     MenuProvider
	Auth     Authenticator
	Rights   rights.Source
	Fetcher  viewcache.Fetcher
	Channels viewcache.ChannelSource
}

// UserData 一个浏览器会话的用户数据
type UserData struct {
	mu   sync.Mutex
	deps Deps

	ipAddress string
	loggedOn  bool
	logonTime time.Time
	userID    uint64
	login     string
	roleID    int
	roleName  string

	webSettings  *settings.WebSettings
	viewSettings *settings.ViewSettings
	userRights   *rights.UserRights
	viewCache    *viewcache.Cache
	menu         []plugin.MenuItem
}

// menuUser 登录过程中传给插件的用户快照，此时 UserData 已加锁
type menuUser struct {
	login string
	role  rights.Role
}

func (m menuUser) UserLogin() string { return m.login }

func (m menuUser) Role() rights.Role { return m.role }

// NewUserData 创建未登录的用户数据
func NewUserData(ipAddress string, deps Deps) *UserData {
	u := &UserData{deps: deps}
	u.reset()
	u.ipAddress = ipAddress
	return u
}

// Login 用户名密码登录
func (u *UserData) Login(ctx context.Context, login, password string) error {
	return u.doLogin(ctx, login, password, true)
}

// LoginWithoutPassword 已记住的用户免密登录
func (u *UserData) LoginWithoutPassword(ctx context.Context, login string) error {
	return u.doLogin(ctx, login, "", false)
}

func (u *UserData) doLogin(ctx context.Context, login, password string, checkPassword bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	login = strings.TrimSpace(login)
	if u.deps.Auth == nil {
		return errors.New("authenticator is not specified")
	}

	result, err := u.deps.Auth.CheckUser(ctx, login, password, checkPassword)
	if err != nil {
		ip := u.ipAddress
		u.reset()
		metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		logger.Warn(ctx, "Unsuccessful login attempt",
			zap.String("login", login), zap.String("ip", ip), zap.Error(err))
		return err
	}

	u.loggedOn = true
	u.logonTime = time.Now()
	u.userID = result.UserID
	u.login = login
	u.roleID = result.RoleID
	u.roleName = result.RoleName

	if u.deps.Menu != nil {
		u.webSettings = u.deps.Menu.WebSettingsCopy()
	}
	if u.deps.Views != nil {
		u.viewSettings = u.deps.Views.ViewSettingsCopy()
	}
	u.userRights = rights.New()
	u.userRights.Init(ctx, rights.Role(result.RoleID), u.viewSettings, u.deps.Rights)
	u.viewCache = viewcache.New(ctx, u.viewSettings, u.deps.Fetcher, u.deps.Channels)
	if u.deps.Menu != nil {
		u.menu = u.deps.Menu.BuildUserMenu(ctx, menuUser{login: login, role: rights.Role(result.RoleID)})
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	msg := "Login"
	if !checkPassword {
		msg = "Login without a password"
	}
	logger.Info(ctx, msg, zap.String("login", login), zap.String("role", u.roleName), zap.String("ip", u.ipAddress))
	return nil
}

// Logout 清空所有用户数据
func (u *UserData) Logout(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.loggedOn {
		logger.Info(ctx, "Logout", zap.String("login", u.login), zap.String("ip", u.ipAddress))
	}
	u.reset()
}

func (u *UserData) reset() {
	u.ipAddress = ""
	u.loggedOn = false
	u.logonTime = time.Time{}
	u.userID = 0
	u.login = ""
	u.roleID = int(rights.Disabled)
	u.roleName = ""
	u.webSettings = nil
	u.viewSettings = nil
	u.userRights = rights.New()
	u.viewCache = nil
	u.menu = nil
}

// Info 用户信息快照
type Info struct {
	LoggedOn  bool      `json:"logged_on"`
	UserID    uint64    `json:"user_id"`
	Login     string    `json:"login"`
	RoleID    int       `json:"role_id"`
	RoleName  string    `json:"role_name"`
	IPAddress string    `json:"ip_address"`
	LogonTime time.Time `json:"logon_time"`
}

func (u *UserData) Info() Info {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Info{
		LoggedOn:  u.loggedOn,
		UserID:    u.userID,
		Login:     u.login,
		RoleID:    u.roleID,
		RoleName:  u.roleName,
		IPAddress: u.ipAddress,
		LogonTime: u.logonTime,
	}
}

func (u *UserData) LoggedOn() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loggedOn
}

func (u *UserData) UserLogin() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.login
}

func (u *UserData) Role() rights.Role {
	u.mu.Lock()
	defer u.mu.Unlock()
	return rights.Role(u.roleID)
}

func (u *UserData) IPAddress() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ipAddress
}

// ViewSettings 登录时的视图配置，与权限和视图缓存的索引一致
func (u *UserData) ViewSettings() *settings.ViewSettings {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.viewSettings
}

// WebSettings 登录时的网站配置
func (u *UserData) WebSettings() *settings.WebSettings {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.webSettings
}

// Menu 登录时生成的菜单，未登录时为空
func (u *UserData) Menu() []plugin.MenuItem {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.menu == nil {
		return nil
	}
	return append([]plugin.MenuItem{}, u.menu...)
}

// ViewRight 第 i 个视图的权限
func (u *UserData) ViewRight(i int) rights.Right {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userRights.ViewRight(i)
}

// ReportRight 第 i 个报表的权限
func (u *UserData) ReportRight(i int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userRights.ReportRight(i)
}

// GetView 检查权限后从缓存或服务器获取第 i 个视图，同时返回该视图的权限
func GetView[T viewcache.View](ctx context.Context, u *UserData, i int, newView func() T) (T, rights.Right, error) {
	var zero T
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.loggedOn {
		return zero, rights.NoRights, ErrNotLoggedOn
	}
	right := u.userRights.ViewRight(i)
	if !right.View {
		return zero, right, models.ErrNoRights
	}
	view, err := viewcache.Get(ctx, u.viewCache, i, newView)
	if err != nil {
		return zero, right, err
	}
	return view, right, nil
}

// View 按视图类型选择构造函数获取第 i 个视图
func (u *UserData) View(ctx context.Context, i int) (viewcache.View, rights.Right, error) {
	item := u.ViewSettings().ViewItem(i)
	if item == nil {
		return nil, rights.NoRights, viewcache.ErrIndexOutOfRange
	}

	switch item.Type {
	case settings.ViewTypeTable:
		return asView(GetView(ctx, u, i, viewcache.NewTableView))
	case settings.ViewTypeScheme:
		return asView(GetView(ctx, u, i, viewcache.NewSchemeView))
	case settings.ViewTypeFaces:
		return asView(GetView(ctx, u, i, viewcache.NewFacesView))
	case settings.ViewTypeWebPage:
		return asView(GetView(ctx, u, i, viewcache.NewWebPageView))
	}
	return nil, rights.NoRights, errors.Wrapf(viewcache.ErrUnsupportedViewType, "%q", item.Type)
}

func asView[T viewcache.View](view T, right rights.Right, err error) (viewcache.View, rights.Right, error) {
	if err != nil {
		return nil, right, err
	}
	return view, right, nil
}

package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayxworxfr/scada_web/internal/config"
	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUser struct {
	password string
	role     rights.Role
}

type fakeAuth struct {
	users map[string]fakeUser
	calls int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]fakeUser{
		"admin":    {password: "secret", role: rights.Admin},
		"guest":    {password: "guest", role: rights.Guest},
		"operator": {password: "op", role: rights.Role(10)},
		"blocked":  {password: "x", role: rights.Disabled},
	}}
}

func (a *fakeAuth) CheckUser(_ context.Context, login, password string, checkPassword bool) (*models.LoginResult, error) {
	a.calls++
	u, ok := a.users[login]
	if !ok {
		return nil, models.ErrUnknownUser
	}
	if checkPassword && u.password != password {
		return nil, models.ErrWrongPassword
	}
	if u.role == rights.Disabled {
		return nil, models.ErrNoRights
	}
	return &models.LoginResult{UserID: uint64(len(login)), RoleID: int(u.role), RoleName: u.role.String()}, nil
}

type fakeRights map[string]rights.Right

func (f fakeRights) Rights(context.Context, rights.Role) (map[string]rights.Right, error) {
	return f, nil
}

type fakeViews struct{ s *settings.ViewSettings }

func (f fakeViews) ViewSettingsCopy() *settings.ViewSettings { return f.s.Clone() }

type fakeFetcher struct{ calls int }

func (f *fakeFetcher) ReceiveView(_ context.Context, _ string, view viewcache.View) error {
	f.calls++
	return view.(viewcache.DataLoader).LoadData([]byte(`<TableView><Item cnlNum="1">A</Item></TableView>`))
}

func newViewSettings() *settings.ViewSettings {
	main := &settings.ViewItem{Title: "Main", Type: settings.ViewTypeTable, FileName: "Main.tbl"}
	page := &settings.ViewItem{Title: "Page", Type: settings.ViewTypeWebPage, FileName: "page.html"}
	faces := &settings.ViewItem{Title: "Faces", Type: settings.ViewTypeFaces, FileName: "faces.ofm"}
	chart := &settings.ViewItem{Title: "Chart", Type: "ChartView", FileName: "chart.xml"}
	s := settings.NewViewSettings()
	s.ViewItems = []*settings.ViewItem{main, page, faces, chart}
	s.AllViewItems = []*settings.ViewItem{main, page, faces, chart}
	return s
}

type fakeMenu struct {
	users []plugin.User
}

func (f *fakeMenu) WebSettingsCopy() *settings.WebSettings {
	ws := settings.NewWebSettings()
	ws.PluginFileNames = []string{"PlgDashboard.dll"}
	return ws
}

func (f *fakeMenu) BuildUserMenu(_ context.Context, user plugin.User) []plugin.MenuItem {
	f.users = append(f.users, user)
	return []plugin.MenuItem{{Text: "Views", URL: "/views"}, {Text: user.UserLogin()}}
}

func newDeps() (Deps, *fakeAuth, *fakeFetcher) {
	auth := newFakeAuth()
	fetcher := &fakeFetcher{}
	return Deps{
		Views:   fakeViews{s: newViewSettings()},
		Menu:    &fakeMenu{},
		Auth:    auth,
		Rights:  fakeRights{"Main.tbl": {View: true}},
		Fetcher: fetcher,
	}, auth, fetcher
}

func TestUserData_Login(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
		wantErr  error
		wantRole rights.Role
	}{
		{name: "admin", login: " admin ", password: "secret", wantRole: rights.Admin},
		{name: "wrong password", login: "admin", password: "bad", wantErr: models.ErrWrongPassword},
		{name: "unknown user", login: "nobody", password: "x", wantErr: models.ErrUnknownUser},
		{name: "disabled", login: "blocked", password: "x", wantErr: models.ErrNoRights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, _ := newDeps()
			u := NewUserData("10.0.0.1", deps)
			err := u.Login(context.Background(), tt.login, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				info := u.Info()
				assert.False(t, info.LoggedOn)
				assert.Empty(t, info.Login)
				assert.Empty(t, info.IPAddress)
				return
			}
			require.NoError(t, err)
			info := u.Info()
			assert.True(t, info.LoggedOn)
			assert.Equal(t, "admin", info.Login)
			assert.Equal(t, tt.wantRole, u.Role())
			assert.Equal(t, "10.0.0.1", info.IPAddress)
			assert.False(t, info.LogonTime.IsZero())
		})
	}
}

func TestUserData_LogoutClearsEverything(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := newDeps()
	u := NewUserData("10.0.0.1", deps)
	require.NoError(t, u.Login(ctx, "admin", "secret"))
	_, _, err := u.View(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, u.WebSettings())
	require.NotEmpty(t, u.Menu())

	u.Logout(ctx)
	assert.Equal(Info{RoleID: int(rights.Disabled)}, u.Info())
	assert.Nil(u.ViewSettings())
	assert.Nil(u.WebSettings())
	assert.Nil(u.Menu())
	assert.Equal(rights.NoRights, u.ViewRight(0))
	assert.False(u.ReportRight(0))

	_, _, err = u.View(ctx, 0)
	assert.Error(err)
}

func TestUserData_GetView(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, fetcher := newDeps()
	u := NewUserData("", deps)

	_, _, err := GetView(ctx, u, 0, viewcache.NewTableView)
	assert.ErrorIs(err, ErrNotLoggedOn)

	require.NoError(t, u.Login(ctx, "operator", "op"))

	view, right, err := GetView(ctx, u, 0, viewcache.NewTableView)
	require.NoError(t, err)
	assert.True(right.View)
	assert.False(right.Control)
	assert.Equal([]int{1}, view.CnlNums)

	_, _, err = GetView(ctx, u, 0, viewcache.NewTableView)
	require.NoError(t, err)
	assert.Equal(1, fetcher.calls)

	// 自定义角色没有 page.html 的权限
	_, right, err = GetView(ctx, u, 1, viewcache.NewWebPageView)
	assert.ErrorIs(err, models.ErrNoRights)
	assert.False(right.View)
}

func TestUserData_View(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := newDeps()
	u := NewUserData("", deps)
	require.NoError(t, u.Login(ctx, "admin", "secret"))

	view, right, err := u.View(ctx, 1)
	require.NoError(t, err)
	assert.True(right.Control)
	page, ok := view.(*viewcache.WebPageView)
	require.True(t, ok)
	assert.Equal("page.html", page.URL())

	view, right, err = u.View(ctx, 2)
	require.NoError(t, err)
	assert.True(right.View)
	faces, ok := view.(*viewcache.FacesView)
	require.True(t, ok)
	assert.Equal(settings.ViewTypeFaces, faces.ViewType())
	assert.Equal([]int{1}, faces.CnlNums)

	_, _, err = u.View(ctx, 3)
	assert.ErrorIs(err, viewcache.ErrUnsupportedViewType)

	_, _, err = u.View(ctx, 5)
	assert.ErrorIs(err, viewcache.ErrIndexOutOfRange)
}

func TestUserData_MenuBuiltAtLogin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := newDeps()
	menu := deps.Menu.(*fakeMenu)
	u := NewUserData("", deps)
	assert.Nil(u.Menu())

	require.NoError(t, u.Login(ctx, "operator", "op"))
	require.Len(t, menu.users, 1)
	assert.Equal("operator", menu.users[0].UserLogin())
	assert.Equal(rights.Role(10), menu.users[0].Role())
	assert.Equal([]string{"PlgDashboard.dll"}, u.WebSettings().PluginFileNames)

	// 菜单只在登录时生成
	items := u.Menu()
	items[0].Text = "changed"
	assert.Equal("Views", u.Menu()[0].Text)
	assert.Len(menu.users, 1)
}

func TestUserData_LoginWithoutPassword(t *testing.T) {
	deps, _, _ := newDeps()
	u := NewUserData("", deps)
	require.NoError(t, u.LoginWithoutPassword(context.Background(), "guest"))
	assert.Equal(t, rights.Guest, u.Role())
	assert.Equal(t, "guest", u.UserLogin())
}

func TestManager_LoginGetLogout(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := newDeps()
	store := NewMemoryStore()
	m := NewManager(store, time.Minute, deps)

	_, _, err := m.Login(ctx, "10.0.0.2", "admin", "bad")
	assert.ErrorIs(err, models.ErrWrongPassword)
	assert.Equal(0, m.Count())

	id, user, err := m.Login(ctx, "10.0.0.2", "admin", "secret")
	require.NoError(t, err)
	assert.NotEmpty(id)
	assert.Equal(1, m.Count())

	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Same(user, got)

	rec, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal("admin", rec.Login)
	assert.Equal("10.0.0.2", rec.IPAddress)

	require.NoError(t, m.Logout(ctx, id))
	assert.Equal(0, m.Count())
	assert.False(user.LoggedOn())
	_, err = m.Get(ctx, id)
	assert.ErrorIs(err, ErrRecordNotFound)
}

func TestManager_RestoreFromStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, auth, _ := newDeps()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "sid", &Record{Login: "guest", IPAddress: "10.0.0.3"}, time.Minute))

	m := NewManager(store, time.Minute, deps)
	user, err := m.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(rights.Guest, user.Role())
	assert.Equal("10.0.0.3", user.IPAddress())
	assert.Equal(1, auth.calls)

	// 用户已被删除时记录作废
	require.NoError(t, store.Save(ctx, "gone", &Record{Login: "nobody"}, time.Minute))
	_, err = m.Get(ctx, "gone")
	assert.ErrorIs(err, models.ErrUnknownUser)
	_, err = store.Load(ctx, "gone")
	assert.ErrorIs(err, ErrRecordNotFound)
}

func TestManager_Sweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := newDeps()
	store := NewMemoryStore()
	m := NewManager(store, time.Minute, deps)

	now := time.Now()
	m.now = func() time.Time { return now }
	store.now = m.now

	id, user, err := m.Login(ctx, "", "admin", "secret")
	require.NoError(t, err)
	assert.Equal(0, m.Sweep(ctx))

	now = now.Add(2 * time.Minute)
	assert.Equal(1, m.Sweep(ctx))
	assert.False(user.LoggedOn())
	_, err = m.Get(ctx, id)
	assert.True(errors.Is(err, ErrRecordNotFound))
}

func TestMemoryStore_Expiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "a", &Record{Login: "a"}, time.Second))
	require.NoError(t, s.Save(ctx, "b", &Record{Login: "b"}, time.Hour))
	assert.Error(s.Save(ctx, "c", nil, time.Hour))

	now = now.Add(time.Minute)
	_, err := s.Load(ctx, "a")
	assert.ErrorIs(err, ErrRecordNotFound)
	assert.Equal(0, s.Sweep(ctx))

	rec, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal("b", rec.Login)
}

func TestBoltStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data", "sessions.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "a", &Record{Login: "a", IPAddress: "10.0.0.1"}, time.Second))
	require.NoError(t, s.Save(ctx, "b", &Record{Login: "b"}, time.Hour))
	assert.Error(s.Save(ctx, "c", nil, time.Hour))

	rec, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal("10.0.0.1", rec.IPAddress)

	now = now.Add(time.Minute)
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(err, ErrRecordNotFound)
	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(err, ErrRecordNotFound)

	assert.Equal(1, s.Sweep(ctx))
	assert.Equal(0, s.Sweep(ctx))

	require.NoError(t, s.Delete(ctx, "b"))
	_, err = s.Load(ctx, "b")
	assert.ErrorIs(err, ErrRecordNotFound)
}

func TestBoltStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "a", &Record{Login: "admin"}, time.Hour))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "admin", rec.Login)
}

func TestRedisStore_Key(t *testing.T) {
	assert.Equal(t, "scada_web:session:abc:UserData", NewRedisStore(nil, "scada_web").key("abc"))
	assert.Equal(t, "session:abc:UserData", NewRedisStore(nil, "").key("abc"))
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		store   string
		wantErr bool
	}{
		{store: ""},
		{store: "memory"},
		{store: "redis"},
		{store: "bolt"},
		{store: "etcd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.store, func(t *testing.T) {
			cfg := configFor(tt.store)
			cfg.BoltPath = filepath.Join(t.TempDir(), "sessions.db")
			s, err := NewStore(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, s)
			if c, ok := s.(interface{ Close() error }); ok {
				assert.NoError(t, c.Close())
			}
		})
	}
}

func configFor(store string) config.SessionConfig {
	cfg := config.NewSessionConfig()
	cfg.Store = store
	return cfg
}

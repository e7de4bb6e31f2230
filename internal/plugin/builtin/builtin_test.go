package builtin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayxworxfr/scada_web/internal/plugin"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUser struct{ role rights.Role }

func (u testUser) UserLogin() string  { return "operator" }
func (u testUser) Role() rights.Role { return u.role }

// writeFile 写文件并设置修改时间，保证刷新能识别变化
func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{ConfigName, DashboardName}, r.Names())

	for _, fileName := range []string{"PlgDashboard.dll", "PlgConfig.dll"} {
		p, err := r.Create(fileName)
		require.NoError(t, err)
		assert.Equal(t, plugin.NameFromFileName(fileName), p.Name())
		assert.NotEmpty(t, p.Descr())
	}
}

func TestDashboard_NotInitialized(t *testing.T) {
	assert.Error(t, NewDashboard().RefreshSettings(context.Background()))
}

func TestDashboard_Settings(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	d := NewDashboard()
	require.NoError(t, d.Init(ctx, plugin.Env{ConfigDir: dir}))

	// 配置文件不存在时使用默认值
	assert.NoError(d.RefreshSettings(ctx))
	assert.Equal(DefaultDashboardSettings(), d.Settings())

	path := filepath.Join(dir, DashboardSettingsFileName)
	base := time.Now().Add(-time.Hour)
	writeFile(t, path, "title = \"Plant overview\"\nurl = \"/plant\"\nrefresh_rate = 10\nguest_access = false\n", base)
	assert.NoError(d.RefreshSettings(ctx))
	assert.Equal("Plant overview", d.Settings().Title)
	assert.Equal(10, d.Settings().RefreshRate)

	items, err := d.MenuItems(testUser{role: rights.Dispatcher})
	assert.NoError(err)
	if assert.Len(items, 1) {
		assert.Equal("/plant", items[0].URL)
	}
	items, err = d.MenuItems(testUser{role: rights.Guest})
	assert.NoError(err)
	assert.Empty(items)

	// 错误的配置不覆盖当前配置
	writeFile(t, path, "refresh_rate = 0\n", base.Add(time.Minute))
	err = d.RefreshSettings(ctx)
	var parseErr *settings.ParseError
	assert.True(errors.As(err, &parseErr))
	assert.Equal("Plant overview", d.Settings().Title)

	writeFile(t, path, "title = [", base.Add(2*time.Minute))
	assert.Error(d.RefreshSettings(ctx))
	assert.Equal("Plant overview", d.Settings().Title)

	std, err := d.StandardMenuItems(testUser{role: rights.Guest})
	assert.NoError(err)
	assert.Equal([]plugin.StandardMenuItem{plugin.Views, plugin.Reports, plugin.About}, std)
}

func TestConfigPlugin_StandardMenuItems(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p := NewConfigPlugin()
	require.NoError(t, p.Init(ctx, plugin.Env{ConfigDir: dir}))
	require.NoError(t, p.RefreshSettings(ctx))

	tests := []struct {
		role rights.Role
		want []plugin.StandardMenuItem
	}{
		{rights.Admin, []plugin.StandardMenuItem{plugin.Config, plugin.About}},
		{rights.Dispatcher, []plugin.StandardMenuItem{plugin.About}},
		{rights.Role(20), []plugin.StandardMenuItem{plugin.About}},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			got, err := p.StandardMenuItems(testUser{role: tt.role})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPlugin_Settings(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigSettingsFileName)
	base := time.Now().Add(-time.Hour)

	p := NewConfigPlugin()
	require.NoError(t, p.Init(ctx, plugin.Env{ConfigDir: dir}))

	// 数字写成字符串也能解析
	writeFile(t, path, "allowed_roles: [\"1\", 2]\nshow_about: false\n", base)
	require.NoError(t, p.RefreshSettings(ctx))
	assert.Equal([]int{1, 2}, p.Settings().AllowedRoles)
	assert.False(p.Settings().ShowAbout)

	got, err := p.StandardMenuItems(testUser{role: rights.Dispatcher})
	assert.NoError(err)
	assert.Equal([]plugin.StandardMenuItem{plugin.Config}, got)

	// 未知字段视为错误，保留原配置
	writeFile(t, path, "allowed_roles: [3]\nunknown: 1\n", base.Add(time.Minute))
	assert.Error(p.RefreshSettings(ctx))
	assert.Equal([]int{1, 2}, p.Settings().AllowedRoles)

	// 空列表覆盖默认值
	writeFile(t, path, "allowed_roles: []\n", base.Add(2*time.Minute))
	require.NoError(t, p.RefreshSettings(ctx))
	assert.Empty(p.Settings().AllowedRoles)
	assert.True(p.Settings().ShowAbout)
}

package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPlugin struct {
	Base
	name string
}

func (p *testPlugin) Name() string  { return p.name }
func (p *testPlugin) Descr() string { return "test" }

type testUser struct{ role rights.Role }

func (u testUser) UserLogin() string  { return "test" }
func (u testUser) Role() rights.Role { return u.role }

func TestNameFromFileName(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"PlgChart.dll", "PlgChart"},
		{`C:\SCADA\ScadaWeb\bin\PlgTable.dll`, "PlgTable"},
		{"/opt/scada/bin/PlgDashboard.so", "PlgDashboard"},
		{"PlgConfig", "PlgConfig"},
		{" PlgChart.dll ", "PlgChart"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromFileName(tt.fileName))
		})
	}
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("PlgOK", func() (Plugin, error) { return &testPlugin{name: "PlgOK"}, nil })
	r.Register("PlgFail", func() (Plugin, error) { return nil, errors.New("no license") })
	r.Register("PlgPanic", func() (Plugin, error) { panic("bad init") })
	r.Register("PlgNil", func() (Plugin, error) { return nil, nil })
	return r
}

func TestRegistry_Create(t *testing.T) {
	assert := assert.New(t)

	r := newTestRegistry()
	assert.Equal([]string{"PlgFail", "PlgNil", "PlgOK", "PlgPanic"}, r.Names())

	p, err := r.Create("PlgOK.dll")
	require.NoError(t, err)
	assert.Equal("PlgOK", p.Name())
}

func TestRegistry_CreateLoadError(t *testing.T) {
	r := newTestRegistry()
	tests := []struct {
		fileName string
		kind     LoadErrorKind
	}{
		{"PlgMissing.dll", UnknownPlugin},
		{"PlgFail.dll", ConstructFailed},
		{"PlgPanic.dll", ConstructFailed},
		{"PlgNil.dll", ConstructFailed},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			p, err := r.Create(tt.fileName)
			assert.Nil(t, p)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.kind, loadErr.Kind)
			assert.Equal(t, tt.fileName, loadErr.FileName)
			assert.Contains(t, err.Error(), tt.kind.String())
		})
	}
}

func TestBaseDefaults(t *testing.T) {
	assert := assert.New(t)

	p := &testPlugin{name: "PlgTest"}
	assert.NoError(p.Init(context.Background(), Env{}))
	assert.NoError(p.RefreshSettings(context.Background()))

	items, err := p.MenuItems(testUser{role: rights.Admin})
	assert.NoError(err)
	assert.Empty(items)

	std, err := p.StandardMenuItems(testUser{role: rights.Admin})
	assert.NoError(err)
	assert.Equal([]StandardMenuItem{About}, std)
}

func TestConvertStandardMenuItem(t *testing.T) {
	tests := []struct {
		item StandardMenuItem
		text string
		url  string
	}{
		{Views, "Views", "/views"},
		{Reports, "Reports", "/reports"},
		{Config, "Configuration", "/config"},
		{About, "About", "/about"},
	}

	for _, tt := range tests {
		t.Run(tt.item.String(), func(t *testing.T) {
			item := ConvertStandardMenuItem(tt.item, nil)
			assert.Equal(t, tt.text, item.Text)
			assert.Equal(t, tt.url, item.URL)
			assert.NotNil(t, item.Subitems)
		})
	}
}

func TestFirstMenuURL(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", FirstMenuURL(nil))
	assert.Equal("/views", FirstMenuURL([]MenuItem{
		NewMenuItem("", "Views", "/views"),
		NewMenuItem("", "About", "/about"),
	}))

	// 分组项没有链接时取第一个子项
	group := MenuItem{Text: "Plugins", Subitems: []MenuItem{
		{Text: "Empty"},
		NewMenuItem("", "Chart", "/plugins/chart"),
	}}
	assert.Equal("/plugins/chart", FirstMenuURL([]MenuItem{group, NewMenuItem("", "About", "/about")}))
}

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSettings_Defaults(t *testing.T) {
	assert := assert.New(t)
	s := NewWebSettings()
	assert.Equal(5, s.SrezRefrFreq)
	assert.Equal(5, s.EventRefrFreq)
	assert.Equal(20, s.EventCnt)
	assert.True(s.EventFltr)
	assert.Equal(90, s.DiagBreak)
	assert.True(s.CmdEnabled)
	assert.False(s.SimpleCmd)
	assert.False(s.RemEnabled)
	assert.Empty(s.PluginFileNames)
}

func TestWebSettings_LoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, s *WebSettings)
		errText string
	}{
		{
			name: "all params",
			content: `<?xml version="1.0" encoding="utf-8"?>
<WebSettings>
  <AppParams>
    <Param name="SrezRefrFreq" value="2"/>
    <Param name="EventRefrFreq" value="3"/>
    <Param name="EventCnt" value="50"/>
    <Param name="EventFltr" value="False"/>
    <Param name="DiagBreak" value="30"/>
    <Param name="CmdEnabled" value="no"/>
    <Param name="SimpleCmd" value="TRUE"/>
    <Param name="RemEnabled" value="true"/>
  </AppParams>
  <Plugins>
    <Plugin fileName="PlgDashboard.dll"/>
    <Plugin fileName="PlgConfig.dll"/>
  </Plugins>
</WebSettings>`,
			check: func(t *testing.T, s *WebSettings) {
				assert := assert.New(t)
				assert.Equal(2, s.SrezRefrFreq)
				assert.Equal(3, s.EventRefrFreq)
				assert.Equal(50, s.EventCnt)
				assert.False(s.EventFltr)
				assert.Equal(30, s.DiagBreak)
				assert.False(s.CmdEnabled)
				assert.True(s.SimpleCmd)
				assert.True(s.RemEnabled)
				assert.Equal([]string{"PlgDashboard.dll", "PlgConfig.dll"}, s.PluginFileNames)
			},
		},
		{
			name:    "case insensitive names and unknown params",
			content: `<WebSettings><AppParams><Param name="eventcnt" value="9"/><Param name="Unknown" value="x"/></AppParams></WebSettings>`,
			check: func(t *testing.T, s *WebSettings) {
				assert.Equal(t, 9, s.EventCnt)
				assert.Equal(t, 5, s.SrezRefrFreq)
			},
		},
		{
			name:    "malformed int",
			content: `<WebSettings><AppParams><Param name="DiagBreak" value="ninety"/></AppParams></WebSettings>`,
			errText: "DiagBreak",
		},
		{
			name:    "malformed xml",
			content: `<WebSettings><AppParams>`,
			errText: "parse web settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), WebSettingsFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s := NewWebSettings()
			err := s.LoadFromFile(path)
			if tt.errText != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestWebSettings_ParseErrorNamesField(t *testing.T) {
	path := filepath.Join(t.TempDir(), WebSettingsFileName)
	require.NoError(t, os.WriteFile(path,
		[]byte(`<WebSettings><AppParams><Param name="EventCnt" value="1.5"/></AppParams></WebSettings>`), 0o644))

	err := NewWebSettings().LoadFromFile(path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "EventCnt", parseErr.Field)
}

func TestWebSettings_LoadResetsPreviousState(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, WebSettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte(`<WebSettings><AppParams/></WebSettings>`), 0o644))

	s := NewWebSettings()
	s.EventCnt = 100
	s.PluginFileNames = []string{"Old.dll"}
	assert.NoError(s.LoadFromFile(path))
	assert.Equal(20, s.EventCnt)
	assert.Empty(s.PluginFileNames)
}

func TestWebSettings_SaveAndLoad(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), WebSettingsFileName)

	s := NewWebSettings()
	s.EventCnt = 33
	s.SimpleCmd = true
	s.PluginFileNames = []string{"PlgDashboard.dll"}
	require.NoError(t, s.SaveToFile(path))

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveToFile(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(string(first), string(second))

	loaded := NewWebSettings()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(s, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(entries, 1)
}

func TestWebSettings_SaveFailureKeepsFile(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "missing_dir", WebSettingsFileName)
	err := NewWebSettings().SaveToFile(path)
	assert.Error(err)
	_, statErr := os.Stat(path)
	assert.True(os.IsNotExist(statErr))
}

func TestWebSettings_Clone(t *testing.T) {
	assert := assert.New(t)
	s := NewWebSettings()
	s.EventCnt = 42
	s.PluginFileNames = []string{"A.dll", "B.dll"}

	clone := s.Clone()
	assert.Equal(s, clone)

	clone.EventCnt = 1
	clone.PluginFileNames[0] = "C.dll"
	clone.PluginFileNames = append(clone.PluginFileNames, "D.dll")
	assert.Equal(42, s.EventCnt)
	assert.Equal([]string{"A.dll", "B.dll"}, s.PluginFileNames)
}

package phrases

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhrases_DefaultCulture(t *testing.T) {
	assert := assert.New(t)
	p := New(t.TempDir(), "")
	assert.True(p.UseDefault())

	reloaded, err := p.RefreshDictionary(DictScadaWeb)
	assert.NoError(err)
	assert.False(reloaded)
	assert.Equal("Views", p.Get(ViewsMenuItem))
	assert.Equal("NoSuchKey", p.Get("NoSuchKey"))
}

func TestPhrases_RefreshDictionary(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DictionaryFileName(DictScadaWeb, "ru-RU"))
	content := `<?xml version="1.0" encoding="utf-8"?>
<Dictionaries>
  <Dictionary key="Scada.Web.WebPhrases">
    <Phrase key="ViewsMenuItem">Представления</Phrase>
  </Dictionary>
</Dictionaries>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	modTime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	p := New(dir, "ru-RU")
	reloaded, err := p.RefreshDictionary(DictScadaWeb)
	assert.NoError(err)
	assert.True(reloaded)
	assert.Equal("Представления", p.Get(ViewsMenuItem))
	assert.Equal("Reports", p.Get(ReportsMenuItem))

	reloaded, err = p.RefreshDictionary(DictScadaWeb)
	assert.NoError(err)
	assert.False(reloaded)

	_, err = p.RefreshDictionary(DictScadaData)
	assert.ErrorIs(err, settings.ErrFileNotFound)

	_, err = p.RefreshDictionary("Other")
	assert.Error(err)
}

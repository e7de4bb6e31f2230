package phrases

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/pkg/errors"
)

// DefaultCulture 默认语言使用内置短语，不读取字典文件
const DefaultCulture = "en-GB"

// 字典名，对应 lang 目录下的 <name>.<culture>.xml
const (
	DictScadaData = "ScadaData"
	DictScadaWeb  = "ScadaWeb"
)

// DictionaryNames 刷新顺序
var DictionaryNames = []string{DictScadaData, DictScadaWeb}

// 短语键
const (
	ViewsMenuItem        = "ViewsMenuItem"
	ReportsMenuItem      = "ReportsMenuItem"
	ConfigMenuItem       = "ConfigMenuItem"
	AboutMenuItem        = "AboutMenuItem"
	WrongPassword        = "WrongPassword"
	NoRights             = "NoRights"
	UnknownUser          = "UnknownUser"
	WebSettingsLoaded    = "WebSettingsLoaded"
	ViewSettingsLoaded   = "ViewSettingsLoaded"
	LoadWebSettingsError = "LoadWebSettingsError"
)

var builtin = map[string]string{
	ViewsMenuItem:        "Views",
	ReportsMenuItem:      "Reports",
	ConfigMenuItem:       "Configuration",
	AboutMenuItem:        "About",
	WrongPassword:        "Wrong password",
	NoRights:             "Insufficient rights",
	UnknownUser:          "Unknown user",
	WebSettingsLoaded:    "Web settings loaded successfully",
	ViewSettingsLoaded:   "View settings loaded successfully",
	LoadWebSettingsError: "Error loading web settings",
}

type xmlPhrase struct {
	Key  string `xml:"key,attr"`
	Text string `xml:",chardata"`
}

type xmlDictionaries struct {
	XMLName      xml.Name
	Dictionaries []struct {
		Key     string      `xml:"key,attr"`
		Phrases []xmlPhrase `xml:"Phrase"`
	} `xml:"Dictionary"`
}

// Phrases 本地化字典，按文件修改时间刷新
type Phrases struct {
	mu       sync.RWMutex
	langDir  string
	culture  string
	dicts    map[string]map[string]string
	bindings map[string]*settings.FileBinding
}

// New 创建字典，culture 为空时使用默认语言
func New(langDir, culture string) *Phrases {
	if culture == "" {
		culture = DefaultCulture
	}
	p := &Phrases{
		langDir:  langDir,
		culture:  culture,
		dicts:    make(map[string]map[string]string),
		bindings: make(map[string]*settings.FileBinding),
	}
	for _, name := range DictionaryNames {
		p.bindings[name] = settings.NewFileBinding(langDir, DictionaryFileName(name, culture))
	}
	return p
}

// DictionaryFileName 字典文件名
func DictionaryFileName(name, culture string) string {
	return fmt.Sprintf("%s.%s.xml", name, culture)
}

func (p *Phrases) Culture() string {
	return p.culture
}

// UseDefault 是否使用内置短语
func (p *Phrases) UseDefault() bool {
	return strings.EqualFold(p.culture, DefaultCulture)
}

// RefreshDictionary 文件变化时重新加载字典；默认语言直接返回
func (p *Phrases) RefreshDictionary(name string) (bool, error) {
	if p.UseDefault() {
		return false, nil
	}
	binding, ok := p.bindings[name]
	if !ok {
		return false, errors.Errorf("unknown dictionary %s", name)
	}
	return binding.Refresh(func(path string) error {
		dict, err := loadDictionary(path)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.dicts[name] = dict
		p.mu.Unlock()
		return nil
	})
}

func loadDictionary(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &settings.FileNotFoundError{Path: path}
		}
		return nil, errors.Wrapf(err, "read dictionary %s", filepath.Base(path))
	}

	var doc xmlDictionaries
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse dictionary %s", filepath.Base(path))
	}

	dict := make(map[string]string)
	for _, d := range doc.Dictionaries {
		for _, phrase := range d.Phrases {
			if phrase.Key != "" {
				dict[phrase.Key] = strings.TrimSpace(phrase.Text)
			}
		}
	}
	return dict, nil
}

// Get 依次查找 ScadaWeb、ScadaData 字典和内置短语，找不到时返回键本身
func (p *Phrases) Get(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, name := range []string{DictScadaWeb, DictScadaData} {
		if text, ok := p.dicts[name][key]; ok && text != "" {
			return text
		}
	}
	if text, ok := builtin[key]; ok {
		return text
	}
	return key
}

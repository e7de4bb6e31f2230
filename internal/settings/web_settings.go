package settings

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// WebSettingsFileName Web 应用配置文件名
const WebSettingsFileName = "WebSettings.xml"

// WebSettings Web 应用参数及插件列表
type WebSettings struct {
	SrezRefrFreq    int      `json:"srez_refr_freq"`  // 当前数据刷新周期，秒
	EventRefrFreq   int      `json:"event_refr_freq"` // 事件刷新周期，秒
	EventCnt        int      `json:"event_cnt"`       // 显示的事件数
	EventFltr       bool     `json:"event_fltr"`      // 按视图过滤事件
	DiagBreak       int      `json:"diag_break"`      // 诊断中断时间，秒
	CmdEnabled      bool     `json:"cmd_enabled"`
	SimpleCmd       bool     `json:"simple_cmd"`
	RemEnabled      bool     `json:"rem_enabled"` // 记住登录
	PluginFileNames []string `json:"plugin_file_names"`
}

// NewWebSettings 创建带默认值的 WebSettings
func NewWebSettings() *WebSettings {
	s := &WebSettings{}
	s.SetToDefault()
	return s
}

// SetToDefault 恢复默认值
func (s *WebSettings) SetToDefault() {
	s.SrezRefrFreq = 5
	s.EventRefrFreq = 5
	s.EventCnt = 20
	s.EventFltr = true
	s.DiagBreak = 90
	s.CmdEnabled = true
	s.SimpleCmd = false
	s.RemEnabled = false
	s.PluginFileNames = []string{}
}

func (s *WebSettings) DefaultFileName() string {
	return WebSettingsFileName
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Descr string `xml:"descr,attr,omitempty"`
}

type xmlPlugin struct {
	FileName string `xml:"fileName,attr"`
}

type xmlWebSettings struct {
	XMLName   xml.Name
	AppParams struct {
		Params []xmlParam `xml:"Param"`
	} `xml:"AppParams"`
	Plugins struct {
		Plugins []xmlPlugin `xml:"Plugin"`
	} `xml:"Plugins"`
}

// LoadFromFile 先恢复默认值，再从文件加载
func (s *WebSettings) LoadFromFile(path string) error {
	s.SetToDefault()

	data, err := readSettingsFile(path)
	if err != nil {
		return err
	}
	return s.load(data)
}

func (s *WebSettings) load(data []byte) error {
	var doc xmlWebSettings
	if err := xml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parse web settings")
	}

	for _, p := range doc.AppParams.Params {
		// 参数名不区分大小写，未知参数忽略
		var err error
		switch strings.ToLower(p.Name) {
		case "srezrefrfreq":
			s.SrezRefrFreq, err = parseInt(p)
		case "eventrefrfreq":
			s.EventRefrFreq, err = parseInt(p)
		case "eventcnt":
			s.EventCnt, err = parseInt(p)
		case "eventfltr":
			s.EventFltr = parseBool(p.Value)
		case "diagbreak":
			s.DiagBreak, err = parseInt(p)
		case "cmdenabled":
			s.CmdEnabled = parseBool(p.Value)
		case "simplecmd":
			s.SimpleCmd = parseBool(p.Value)
		case "remenabled":
			s.RemEnabled = parseBool(p.Value)
		}
		if err != nil {
			return err
		}
	}

	for _, p := range doc.Plugins.Plugins {
		if fileName := strings.TrimSpace(p.FileName); fileName != "" {
			s.PluginFileNames = append(s.PluginFileNames, fileName)
		}
	}
	return nil
}

// SaveToFile 按固定顺序写出参数
func (s *WebSettings) SaveToFile(path string) error {
	data, err := s.marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func (s *WebSettings) marshal() ([]byte, error) {
	doc := xmlWebSettings{XMLName: xml.Name{Local: "WebSettings"}}
	doc.AppParams.Params = []xmlParam{
		{Name: "SrezRefrFreq", Value: strconv.Itoa(s.SrezRefrFreq), Descr: "Current data refresh rate, sec"},
		{Name: "EventRefrFreq", Value: strconv.Itoa(s.EventRefrFreq), Descr: "Events refresh rate, sec"},
		{Name: "EventCnt", Value: strconv.Itoa(s.EventCnt), Descr: "Number of displayed events"},
		{Name: "EventFltr", Value: formatBool(s.EventFltr), Descr: "Filter events by view"},
		{Name: "DiagBreak", Value: strconv.Itoa(s.DiagBreak), Descr: "Diagnostic break, sec"},
		{Name: "CmdEnabled", Value: formatBool(s.CmdEnabled), Descr: "Commands enabled"},
		{Name: "SimpleCmd", Value: formatBool(s.SimpleCmd), Descr: "Send commands without password"},
		{Name: "RemEnabled", Value: formatBool(s.RemEnabled), Descr: "Remember login"},
	}
	for _, fileName := range s.PluginFileNames {
		doc.Plugins.Plugins = append(doc.Plugins.Plugins, xmlPlugin{FileName: fileName})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal web settings")
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Clone 深拷贝
func (s *WebSettings) Clone() *WebSettings {
	clone := &WebSettings{}
	// 同类型拷贝不会失败
	_ = copier.CopyWithOption(clone, s, copier.Option{DeepCopy: true})
	if clone.PluginFileNames == nil && s.PluginFileNames != nil {
		clone.PluginFileNames = []string{}
	}
	return clone
}

func parseInt(p xmlParam) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(p.Value))
	if err != nil {
		return 0, &ParseError{Field: p.Name, Value: p.Value, Err: err}
	}
	return v, nil
}

func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

package settings

import (
	"encoding/xml"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ViewSettingsFileName 视图配置文件名
const ViewSettingsFileName = "ViewSettings.xml"

// 标准视图类型，其他类型原样保留
const (
	ViewTypeTable   = "TableView"
	ViewTypeScheme  = "SchemeView"
	ViewTypeFaces   = "FacesView"
	ViewTypeWebPage = "WebPageView"
)

// ViewItem 视图节点
type ViewItem struct {
	Title    string      `json:"title"`
	Type     string      `json:"type"`
	FileName string      `json:"file_name"`
	CnlNum   int         `json:"cnl_num"` // 显示视图状态的输入通道号
	Children []*ViewItem `json:"children,omitempty"`
}

// Clone 递归拷贝节点
func (v *ViewItem) Clone() *ViewItem {
	clone := &ViewItem{
		Title:    v.Title,
		Type:     v.Type,
		FileName: v.FileName,
		CnlNum:   v.CnlNum,
	}
	if v.Children != nil {
		clone.Children = make([]*ViewItem, 0, len(v.Children))
		for _, child := range v.Children {
			clone.Children = append(clone.Children, child.Clone())
		}
	}
	return clone
}

// ReportItem 报表
type ReportItem struct {
	Title    string `json:"title"`
	FileName string `json:"file_name"`
}

// ReportGroup 报表分组
type ReportGroup struct {
	Title string        `json:"title"`
	Items []*ReportItem `json:"items"`
}

// ViewSettings 视图树与报表分组，同时维护按先序展开的平铺列表
type ViewSettings struct {
	ViewItems    []*ViewItem    `json:"view_items"`
	AllViewItems []*ViewItem    `json:"-"`
	ReportGroups []*ReportGroup `json:"report_groups"`
	AllReports   []*ReportItem  `json:"-"`
}

// NewViewSettings 创建空的视图配置
func NewViewSettings() *ViewSettings {
	s := &ViewSettings{}
	s.SetToDefault()
	return s
}

// SetToDefault 清空所有视图和报表
func (s *ViewSettings) SetToDefault() {
	s.ViewItems = []*ViewItem{}
	s.AllViewItems = []*ViewItem{}
	s.ReportGroups = []*ReportGroup{}
	s.AllReports = []*ReportItem{}
}

func (s *ViewSettings) DefaultFileName() string {
	return ViewSettingsFileName
}

type xmlView struct {
	Type     string    `xml:"type,attr"`
	FileName string    `xml:"fileName,attr"`
	CnlNum   string    `xml:"cnlNum,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Text     string    `xml:",chardata"`
	Views    []xmlView `xml:"View"`
}

type xmlReport struct {
	FileName string `xml:"fileName,attr"`
	Text     string `xml:",chardata"`
}

type xmlReportGroup struct {
	Title   string      `xml:"title,attr"`
	Reports []xmlReport `xml:"Report"`
}

type xmlViewSettings struct {
	XMLName xml.Name
	Views   struct {
		Views []xmlView `xml:"View"`
	} `xml:"Views"`
	Reports struct {
		Groups []xmlReportGroup `xml:"ReportGroup"`
	} `xml:"Reports"`
}

// LoadFromFile 先清空，再从文件加载视图树和报表
func (s *ViewSettings) LoadFromFile(path string) error {
	s.SetToDefault()

	data, err := readSettingsFile(path)
	if err != nil {
		return err
	}

	var doc xmlViewSettings
	if err := xml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parse view settings")
	}

	views, err := s.loadViewItems(doc.Views.Views)
	if err != nil {
		// 不保留加载了一半的视图
		s.SetToDefault()
		return err
	}
	s.ViewItems = views

	for _, g := range doc.Reports.Groups {
		group := &ReportGroup{Title: g.Title, Items: []*ReportItem{}}
		for _, r := range g.Reports {
			item := &ReportItem{Title: strings.TrimSpace(r.Text), FileName: r.FileName}
			group.Items = append(group.Items, item)
			s.AllReports = append(s.AllReports, item)
		}
		s.ReportGroups = append(s.ReportGroups, group)
	}
	return nil
}

// loadViewItems 深度优先遍历，同时按先序填充 AllViewItems
func (s *ViewSettings) loadViewItems(elems []xmlView) ([]*ViewItem, error) {
	items := make([]*ViewItem, 0, len(elems))
	for _, elem := range elems {
		title := elem.Title
		if title == "" {
			title = strings.TrimSpace(elem.Text)
		}

		cnlNum := 0
		if v := strings.TrimSpace(elem.CnlNum); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, &ParseError{Field: "cnlNum", Value: elem.CnlNum, Err: err}
			}
			cnlNum = n
		}

		item := &ViewItem{Title: title, Type: elem.Type, FileName: elem.FileName, CnlNum: cnlNum}
		items = append(items, item)
		s.AllViewItems = append(s.AllViewItems, item)

		children, err := s.loadViewItems(elem.Views)
		if err != nil {
			return nil, err
		}
		item.Children = children
	}
	return items, nil
}

// SaveToFile 写出视图树和报表
func (s *ViewSettings) SaveToFile(path string) error {
	doc := xmlViewSettings{XMLName: xml.Name{Local: "ViewSettings"}}
	doc.Views.Views = saveViewItems(s.ViewItems)
	for _, g := range s.ReportGroups {
		group := xmlReportGroup{Title: g.Title}
		for _, r := range g.Items {
			group.Reports = append(group.Reports, xmlReport{FileName: r.FileName, Text: r.Title})
		}
		doc.Reports.Groups = append(doc.Reports.Groups, group)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal view settings")
	}
	return writeFileAtomic(path, append([]byte(xml.Header), append(out, '\n')...))
}

func saveViewItems(items []*ViewItem) []xmlView {
	if len(items) == 0 {
		return nil
	}
	elems := make([]xmlView, 0, len(items))
	for _, item := range items {
		elems = append(elems, xmlView{
			Type:     item.Type,
			FileName: item.FileName,
			CnlNum:   strconv.Itoa(item.CnlNum),
			Text:     item.Title,
			Views:    saveViewItems(item.Children),
		})
	}
	return elems
}

// Clone 深拷贝，平铺列表指向拷贝后的节点
func (s *ViewSettings) Clone() *ViewSettings {
	clone := NewViewSettings()
	for _, item := range s.ViewItems {
		clone.ViewItems = append(clone.ViewItems, item.Clone())
	}
	clone.AllViewItems = flattenViewItems(clone.ViewItems, clone.AllViewItems)

	for _, g := range s.ReportGroups {
		group := &ReportGroup{Title: g.Title, Items: make([]*ReportItem, 0, len(g.Items))}
		for _, r := range g.Items {
			item := &ReportItem{Title: r.Title, FileName: r.FileName}
			group.Items = append(group.Items, item)
			clone.AllReports = append(clone.AllReports, item)
		}
		clone.ReportGroups = append(clone.ReportGroups, group)
	}
	return clone
}

// flattenViewItems 先序展开视图树
func flattenViewItems(items []*ViewItem, all []*ViewItem) []*ViewItem {
	for _, item := range items {
		all = append(all, item)
		all = flattenViewItems(item.Children, all)
	}
	return all
}

// ViewItem 按平铺索引获取视图，越界返回 nil
func (s *ViewSettings) ViewItem(i int) *ViewItem {
	if s == nil || i < 0 || i >= len(s.AllViewItems) {
		return nil
	}
	return s.AllViewItems[i]
}

// Report 按平铺索引获取报表，越界返回 nil
func (s *ViewSettings) Report(i int) *ReportItem {
	if s == nil || i < 0 || i >= len(s.AllReports) {
		return nil
	}
	return s.AllReports[i]
}

// ItfObjName 界面对象名，即文件名去掉目录部分，兼容 Windows 路径
func ItfObjName(fileName string) string {
	if fileName == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(fileName, `\`, "/"))
}

package viewcache

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DataLoader 可以从服务器返回的数据加载的视图
type DataLoader interface {
	LoadData(data []byte) error
}

// BaseView 视图公共部分：界面对象名、使用的通道及其属性
type BaseView struct {
	ItfObjName string                   `json:"itf_obj_name"`
	Title      string                   `json:"title"`
	CnlNums    []int                    `json:"cnl_nums"`
	CnlProps   map[int]models.CnlProps `json:"cnl_props"`
}

func (v *BaseView) SetItfObjName(name string) {
	v.ItfObjName = name
}

// BindCnlProps 只保留视图用到的通道
func (v *BaseView) BindCnlProps(props []models.CnlProps) {
	used := lo.SliceToMap(v.CnlNums, func(n int) (int, struct{}) { return n, struct{}{} })
	v.CnlProps = make(map[int]models.CnlProps, len(v.CnlNums))
	for _, p := range props {
		if _, ok := used[p.CnlNum]; ok {
			v.CnlProps[p.CnlNum] = p
		}
	}
}

// TableView 表格视图
type TableView struct {
	BaseView
	Items []TableItem `json:"items"`
}

// TableItem 表格行
type TableItem struct {
	CnlNum     int    `json:"cnl_num"`
	CtrlCnlNum int    `json:"ctrl_cnl_num"`
	Hidden     bool   `json:"hidden"`
	Text       string `json:"text"`
}

func NewTableView() *TableView { return &TableView{} }

func (v *TableView) StoredOnServer() bool { return true }

func (v *TableView) ViewType() string { return settings.ViewTypeTable }

type xmlTableView struct {
	XMLName xml.Name `xml:"TableView"`
	Title   string   `xml:"title,attr"`
	Items   []struct {
		CnlNum     string `xml:"cnlNum,attr"`
		CtrlCnlNum string `xml:"ctrlCnlNum,attr"`
		Hidden     string `xml:"hidden,attr"`
		Text       string `xml:",chardata"`
	} `xml:"Item"`
}

// LoadData 解析表格视图文件
func (v *TableView) LoadData(data []byte) error {
	var doc xmlTableView
	if err := xml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parse table view")
	}

	v.Title = doc.Title
	v.Items = make([]TableItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		cnlNum, err := parseOptionalInt("cnlNum", it.CnlNum)
		if err != nil {
			return err
		}
		ctrlCnlNum, err := parseOptionalInt("ctrlCnlNum", it.CtrlCnlNum)
		if err != nil {
			return err
		}
		v.Items = append(v.Items, TableItem{
			CnlNum:     cnlNum,
			CtrlCnlNum: ctrlCnlNum,
			Hidden:     strings.EqualFold(it.Hidden, "true"),
			Text:       strings.TrimSpace(it.Text),
		})
	}
	v.CnlNums = lo.Uniq(lo.FilterMap(v.Items, func(it TableItem, _ int) (int, bool) {
		return it.CnlNum, it.CnlNum > 0
	}))
	sort.Ints(v.CnlNums)
	return nil
}

// SchemeView 图形视图，只关心用到的通道号
type SchemeView struct {
	BaseView
	Data []byte `json:"-"`
}

func NewSchemeView() *SchemeView { return &SchemeView{} }

func (v *SchemeView) StoredOnServer() bool { return true }

func (v *SchemeView) ViewType() string { return settings.ViewTypeScheme }

// LoadData 保存原始内容并收集所有 cnlNum/inCnlNum/ctrlCnlNum 属性
func (v *SchemeView) LoadData(data []byte) error {
	title, nums, err := scanCnlNums(data)
	if err != nil {
		return errors.Wrap(err, "parse scheme view")
	}
	v.Title = title
	v.Data = data
	v.CnlNums = nums
	return nil
}

// FacesView 面板布局视图，与图形视图一样保存原始内容
type FacesView struct {
	BaseView
	Data []byte `json:"-"`
}

func NewFacesView() *FacesView { return &FacesView{} }

func (v *FacesView) StoredOnServer() bool { return true }

func (v *FacesView) ViewType() string { return settings.ViewTypeFaces }

func (v *FacesView) LoadData(data []byte) error {
	title, nums, err := scanCnlNums(data)
	if err != nil {
		return errors.Wrap(err, "parse faces view")
	}
	v.Title = title
	v.Data = data
	v.CnlNums = nums
	return nil
}

// scanCnlNums 取第一个 Title 元素和所有通道号属性，通道号去重排序
func scanCnlNums(data []byte) (string, []int, error) {
	var (
		title string
		nums  []int
	)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "Title" && title == "" {
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				return "", nil, errors.Wrap(err, "parse title")
			}
			title = strings.TrimSpace(text)
			continue
		}
		for _, attr := range start.Attr {
			switch strings.ToLower(attr.Name.Local) {
			case "cnlnum", "incnlnum", "ctrlcnlnum":
				n, err := parseOptionalInt(attr.Name.Local, attr.Value)
				if err != nil {
					return "", nil, err
				}
				if n > 0 {
					nums = append(nums, n)
				}
			}
		}
	}

	nums = lo.Uniq(nums)
	sort.Ints(nums)
	return title, nums, nil
}

// WebPageView 网页视图，内容不在服务器上，文件名即页面地址
type WebPageView struct {
	BaseView
}

func NewWebPageView() *WebPageView { return &WebPageView{} }

func (v *WebPageView) StoredOnServer() bool { return false }

func (v *WebPageView) ViewType() string { return settings.ViewTypeWebPage }

// URL 页面地址
func (v *WebPageView) URL() string {
	return v.ItfObjName
}

func parseOptionalInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &settings.ParseError{Field: field, Value: value, Err: err}
	}
	return n, nil
}

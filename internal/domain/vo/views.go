package vo

import (
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/ayxworxfr/scada_web/internal/viewcache"
)

// ViewNode 视图树节点，Index 为平铺列表中的序号
type ViewNode struct {
	Index    int          `json:"index"`
	Title    string       `json:"title"`
	Type     string       `json:"type,omitempty"`
	Right    rights.Right `json:"right"`
	Children []*ViewNode  `json:"children,omitempty"`
}

// NewViewTree 按先序编号构建视图树，没有查看权限且没有可见子节点的节点不输出
func NewViewTree(items []*settings.ViewItem, right func(i int) rights.Right) []*ViewNode {
	index := 0
	return buildViewNodes(items, right, &index)
}

func buildViewNodes(items []*settings.ViewItem, right func(i int) rights.Right, index *int) []*ViewNode {
	nodes := make([]*ViewNode, 0, len(items))
	for _, item := range items {
		node := &ViewNode{
			Index: *index,
			Title: item.Title,
			Type:  item.Type,
			Right: right(*index),
		}
		*index++
		node.Children = buildViewNodes(item.Children, right, index)
		if node.Right.View || len(node.Children) > 0 {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// View 单个视图的响应
type View struct {
	Index int            `json:"index"`
	Type  string         `json:"type"`
	Right rights.Right   `json:"right"`
	Data  viewcache.View `json:"data"`
	// URL 仅网页视图
	URL string `json:"url,omitempty"`
}

// Report 用户可见的报表
type Report struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
}

// ReportGroup 报表分组，没有可见报表的分组不输出
type ReportGroup struct {
	Title   string    `json:"title"`
	Reports []*Report `json:"reports"`
}

// NewReportGroups 过滤掉无权限的报表，Index 为平铺列表中的序号
func NewReportGroups(groups []*settings.ReportGroup, allowed func(i int) bool) []*ReportGroup {
	result := make([]*ReportGroup, 0, len(groups))
	index := 0
	for _, group := range groups {
		g := &ReportGroup{Title: group.Title, Reports: []*Report{}}
		for _, item := range group.Items {
			if allowed(index) {
				g.Reports = append(g.Reports, &Report{Index: index, Title: item.Title, FileName: item.FileName})
			}
			index++
		}
		if len(g.Reports) > 0 {
			result = append(result, g)
		}
	}
	return result
}

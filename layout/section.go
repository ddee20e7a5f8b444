package layout

import (
	"strings"

	"github.com/ByLCY/riskgrid/dsl"
)

// Section 是上游分类结果中的一个带标题的要点块，渲染期间只读。
// Title 中的 "\n" 表示强制换行，成为标题格的第二行。
type Section struct {
	Title        string   `json:"title"`
	ContentLines []string `json:"content"`
	Critical     bool     `json:"critical"`
}

// WrappedSection 为清洗并按列宽折行后的段落。
type WrappedSection struct {
	Title        string
	WrappedLines []string
	Critical     bool
}

// Row 由相邻两个段落组成，最后一行可能只有左侧。
type Row struct {
	Left  WrappedSection
	Right *WrappedSection
}

// PairSections 按输入顺序两两配对，不重排也不跨越非相邻段落。
func PairSections(sections []WrappedSection) []Row {
	rows := make([]Row, 0, (len(sections)+1)/2)
	for i := 0; i < len(sections); i += 2 {
		row := Row{Left: sections[i]}
		if i+1 < len(sections) {
			right := sections[i+1]
			row.Right = &right
		}
		rows = append(rows, row)
	}
	return rows
}

// SectionsFromDocument 将 DSL/JSON 输入转换为段落列表。
func SectionsFromDocument(doc *dsl.Document) []Section {
	if doc == nil {
		return nil
	}
	decls := doc.SectionDecls()
	out := make([]Section, 0, len(decls))
	for _, decl := range decls {
		sec := Section{
			Title:    string(decl.Title),
			Critical: decl.IsCritical(),
		}
		for _, item := range decl.Items {
			sec.ContentLines = append(sec.ContentLines, item.Text())
		}
		out = append(out, sec)
	}
	return out
}

// MetaFromDocument 读取 meta 块中的 PDF 元信息。
func MetaFromDocument(doc *dsl.Document, creator string) DocumentMeta {
	meta := DocumentMeta{Creator: creator}
	if doc == nil {
		return meta
	}
	if doc.Name != nil {
		meta.Title = string(*doc.Name)
	}
	for key, val := range doc.MetaValues() {
		switch strings.ToLower(key) {
		case "title":
			meta.Title = val
		case "author":
			meta.Author = val
		case "subject":
			meta.Subject = val
		case "creator":
			meta.Creator = val
		case "keywords":
			for _, kw := range strings.Split(val, ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					meta.Keywords = append(meta.Keywords, kw)
				}
			}
		}
	}
	return meta
}

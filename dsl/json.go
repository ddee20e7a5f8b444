package dsl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ByLCY/riskgrid/binding"
)

// ErrUnsupportedJSON 表示 JSON 既不是段落数组，也不是 sections/card1..card8 对象。
var ErrUnsupportedJSON = errors.New("dsl: 不支持的 JSON 结构")

// ReportTitles 为完整报告的八个固定段落标题，依次对应 card1..card8。
// 分类结果中 card 自带的标题不参与渲染。
var ReportTitles = []string{
	"IDENTIFICACIÓN DEL EQUIPO",
	"USO PREVISTO Y LIMITACIONES DE USO\nESTABLECIDAS POR EL FABRICANTE",
	"RIESGOS RECONOCIDOS",
	"MEDIDAS DE PROTECCIÓN Y SEGURIDAD",
	"EQUIPOS DE PROTECCIÓN INDIVIDUAL (EPIs)",
	"MANTENIMIENTO, LIMPIEZA Y AJUSTE",
	"FORMACIÓN Y CUALIFICACIÓN",
	"ACTUACIONES EN EMERGENCIAS",
}

// ParseJSON 读取上游分类结果，转换为与 DSL 相同的 Document。支持三种形态：
//
//	[{"title": "...", "content": [...], "critical": true}, ...]
//	{"name": "...", "meta": {...}, "sections": [...]}
//	{"card1": {"content": [...], "isCritical": false}, ..., "card8": {...}}
//
// 内容项不是字符串时按 binding.Text 转换。
func ParseJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		return documentFromList(nil, v)
	case map[string]any:
		if list, ok := v["sections"].([]any); ok {
			doc, err := documentFromList(v["name"], list)
			if err != nil {
				return nil, err
			}
			if meta, ok := v["meta"].(map[string]any); ok {
				doc.Entries = append([]*Entry{{Meta: metaFromMap(meta)}}, doc.Entries...)
			}
			return doc, nil
		}
		if hasCards(v) {
			return documentFromCards(v), nil
		}
	}
	return nil, ErrUnsupportedJSON
}

func documentFromList(name any, list []any) (*Document, error) {
	doc := &Document{}
	if s := binding.Text(name); s != "" {
		lit := StringLiteral(s)
		doc.Name = &lit
	}
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: 第 %d 个段落不是对象", ErrUnsupportedJSON, i+1)
		}
		doc.Entries = append(doc.Entries, &Entry{Section: sectionFromMap(binding.Text(obj["title"]), obj)})
	}
	return doc, nil
}

func hasCards(v map[string]any) bool {
	for i := range ReportTitles {
		if _, ok := v[cardKey(i)]; ok {
			return true
		}
	}
	return false
}

func cardKey(i int) string { return fmt.Sprintf("card%d", i+1) }

// documentFromCards 总是产出八个段落；缺失的 card 变为空段落，由占位文字填充。
func documentFromCards(v map[string]any) *Document {
	doc := &Document{}
	for i, title := range ReportTitles {
		card, _ := v[cardKey(i)].(map[string]any)
		doc.Entries = append(doc.Entries, &Entry{Section: sectionFromMap(title, card)})
	}
	return doc
}

func sectionFromMap(title string, obj map[string]any) *SectionDecl {
	decl := &SectionDecl{Title: StringLiteral(title)}
	if obj == nil {
		return decl
	}
	if truthy(obj["critical"]) || truthy(obj["isCritical"]) {
		decl.Flags = append(decl.Flags, FlagCritical)
	}
	content, ok := obj["content"]
	if !ok {
		content = obj["items"]
	}
	switch c := content.(type) {
	case nil:
	case []any:
		for _, item := range c {
			decl.Items = append(decl.Items, textValue(binding.Text(item)))
		}
	default:
		decl.Items = append(decl.Items, textValue(binding.Text(c)))
	}
	return decl
}

func metaFromMap(m map[string]any) *MetaBlock {
	block := &MetaBlock{}
	for key, val := range m {
		block.Assignments = append(block.Assignments, &Assignment{Key: key, Value: textValue(binding.Text(val))})
	}
	return block
}

func textValue(s string) *Value {
	lit := StringLiteral(s)
	return &Value{String: &lit}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}

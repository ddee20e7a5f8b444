package dsl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrUnknownFlag 表示 section 头部出现了未知标记。
var ErrUnknownFlag = errors.New("dsl: 未知的 section 标记")

// FlagCritical 标记关键段落，标题格使用警示色。
const FlagCritical = "critical"

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)[A-Za-z%]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是 .riskgrid 文件的根节点。
//
//	report "Grúa torre XR-100" {
//	  meta { author: "Prevención" }
//	  section "RIESGOS RECONOCIDOS" critical {
//	    "Caída de objetos (Pág. 4)"
//	  }
//	}
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    *StringLiteral `parser:"Newline* 'report' @String?"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Entry 为顶层条目：meta 或 section。
type Entry struct {
	Meta    *MetaBlock   `parser:"  @@"`
	Section *SectionDecl `parser:"| @@"`
}

// MetaBlock 收集文档元信息（key: value）。
type MetaBlock struct {
	Assignments []*Assignment `parser:"'meta' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// SectionDecl 声明一个段落：标题、可选标记与内容项。
type SectionDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Title StringLiteral  `parser:"'section' @String"`
	Flags []string       `parser:"@Ident*"`
	Items []*Value       `parser:"'{' Newline* ( @@ ( ',' | ';' | Newline )* )* '}'"`
}

// IsCritical 报告段落是否带有 critical 标记。
func (s *SectionDecl) IsCritical() bool {
	for _, f := range s.Flags {
		if strings.EqualFold(f, FlagCritical) {
			return true
		}
	}
	return false
}

// Value 为内容项或 meta 取值。上游数据里偶尔出现裸数字或标识符，一并接受。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text 返回取值的文本形式。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// SectionDecls 按声明顺序返回全部段落。
func (d *Document) SectionDecls() []*SectionDecl {
	if d == nil {
		return nil
	}
	var out []*SectionDecl
	for _, e := range d.Entries {
		if e.Section != nil {
			out = append(out, e.Section)
		}
	}
	return out
}

// MetaValues 合并所有 meta 块，后出现的键覆盖先出现的。
func (d *Document) MetaValues() map[string]string {
	out := map[string]string{}
	if d == nil {
		return out
	}
	for _, e := range d.Entries {
		if e.Meta == nil {
			continue
		}
		for _, a := range e.Meta.Assignments {
			out[a.Key] = a.Value.Text()
		}
	}
	return out
}

func (d *Document) validate() error {
	for _, sec := range d.SectionDecls() {
		for _, f := range sec.Flags {
			if !strings.EqualFold(f, FlagCritical) {
				return fmt.Errorf("%w %q (%s)", ErrUnknownFlag, f, sec.Pos)
			}
		}
	}
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse("", r)
	if err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

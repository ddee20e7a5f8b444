package layout

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// 页码引用，例如 "(Ref. Pág. 12)" 或 "(Pág. 3-4)"。
	citationPattern = regexp.MustCompile(`(?i)\(\s*(?:Ref\.|P[áa]g\.)[^)]*\)`)
	// 行首的项目符号或其他非单词字符；\W 只识别 ASCII，这里按 Unicode 判断。
	leadingNonWord = regexp.MustCompile(`^[^\p{L}\p{N}_]+`)
	innerSpaces    = regexp.MustCompile(`[ \t]{2,}`)
)

// WrapFunc 将一段文本按固定列宽折成多行。
type WrapFunc func(text string) ([]string, error)

// StripCitations 去除页码引用括号并压缩由此产生的多余空白。
func StripCitations(text string) string {
	text = citationPattern.ReplaceAllString(norm.NFC.String(text), "")
	return strings.TrimSpace(innerSpaces.ReplaceAllString(text, " "))
}

// CleanContentLine 去掉引用与行首符号，返回可展示的正文；返回空串表示该行应丢弃。
func CleanContentLine(line string) string {
	line = StripCitations(line)
	line = leadingNonWord.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// NormalizeSection 清洗段落内容，为每条保留的内容加项目符号后按列宽折行。
// 没有任何可用内容时输出唯一一行占位文字（不加符号、不折行）。
func NormalizeSection(sec Section, wrap WrapFunc, bullet, placeholder string) (WrappedSection, error) {
	out := WrappedSection{Title: sec.Title, Critical: sec.Critical}
	for _, raw := range sec.ContentLines {
		cleaned := CleanContentLine(raw)
		if cleaned == "" {
			continue
		}
		lines, err := wrap(bullet + cleaned)
		if err != nil {
			return WrappedSection{}, err
		}
		out.WrappedLines = append(out.WrappedLines, lines...)
	}
	if len(out.WrappedLines) == 0 {
		out.WrappedLines = []string{placeholder}
	}
	return out, nil
}

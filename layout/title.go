package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	minTitleRunes = 3
	maxTitleRunes = 60
)

var (
	// 明确指向设备名称的关键词。
	nameKeywords = []string{"equipo", "denominación", "denominacion", "modelo", "máquina", "nombre"}
	// 技术参数类关键词，首行命中时不把它当作名称。
	technicalKeywords = []string{"modelo", "ref.", "peso", "dimensiones", "ancho", "largo", "alto", "tensión", "potencia"}

	labelPrefix = regexp.MustCompile(`(?i)^\s*(?:Nombre|Modelo|Equipo|M[áa]quina|Denominaci[óo]n|Tipo)\s*:\s*`)
)

// ExtractTitle 从第一个段落的原始内容中推断展示用的设备名称。
// 该函数不会失败：无法得到合适名称时返回 fallback。
func ExtractTitle(lines []string, fallback string) string {
	candidate, lastResort, ok := selectTitleLine(lines)
	if !ok {
		return fallback
	}
	cleaned := cleanTitle(candidate)
	// 兜底选中的首行若清洗后仍是技术参数（如 "Peso: 10kg"），不作为名称。
	if lastResort && containsAny(foldCase(cleaned), technicalKeywords) {
		return fallback
	}
	if n := utf8.RuneCountInString(cleaned); n < minTitleRunes || n > maxTitleRunes {
		return fallback
	}
	return cases.Upper(language.Spanish).String(cleaned)
}

// selectTitleLine 依次尝试：关键词行、非技术参数的首行、首行兜底。
func selectTitleLine(lines []string) (line string, lastResort bool, ok bool) {
	if len(lines) == 0 {
		return "", false, false
	}
	for _, l := range lines {
		if containsAny(foldCase(l), nameKeywords) {
			return l, false, true
		}
	}
	first := lines[0]
	if !containsAny(foldCase(first), technicalKeywords) {
		return first, false, true
	}
	return first, true, true
}

func cleanTitle(line string) string {
	cleaned := StripCitations(line)
	cleaned = leadingNonWord.ReplaceAllString(cleaned, "")
	cleaned = labelPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func foldCase(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func containsAny(s string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(s, key) {
			return true
		}
	}
	return false
}

package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/riskgrid/layout"
)

// greedyWrapTokens 的宽度单位均为 mm（canvas.FontFace.TextWidth 返回 mm）。
// 软换行处的空白被丢弃：行尾不留空格，下一行也不以空格开头，
// 因此对任意一行再次折行得到的仍是它本身。
func greedyWrapTokens(content string, width float64, face *canvas.FontFace, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	// nowrap：仅按显式换行划分，不基于宽度折行
	if wrap == "nowrap" {
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: face.TextWidth(p)})
		}
		return lines
	}

	// break-word：忽略空白机会，纯按宽度切分（但仍然尊重显式换行）
	if wrap == "break-word" {
		return breakWord(content, limit, face)
	}

	// 默认（anywhere）：优先在空白处分割，超过限制时在词内拆分
	w := &lineWriter{face: face}
	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			w.emit(true)
			continue
		}
		if w.skipSpace && isSpaceToken(token) {
			continue
		}

		tokenWidth := face.TextWidth(token)
		if w.width > 0 && w.width+tokenWidth > limit {
			w.emit(false)
			if isSpaceToken(token) {
				continue
			}
		}
		if tokenWidth <= limit {
			w.append(token)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, face) {
			if w.width > 0 && w.width+face.TextWidth(chunk) > limit {
				w.emit(false)
			}
			w.append(chunk)
		}
	}
	w.emit(true)
	return w.lines
}

type lineWriter struct {
	face    *canvas.FontFace
	lines   []layout.TextLine
	builder strings.Builder
	width   float64
	// skipSpace 在软换行后为真，直到遇到第一个非空白片段。
	skipSpace bool
}

func (w *lineWriter) append(token string) {
	w.builder.WriteString(token)
	w.width += w.face.TextWidth(token)
	w.skipSpace = false
}

// emit 结束当前行；force 为真时即使为空也输出（显式换行或文本末尾）。
func (w *lineWriter) emit(force bool) {
	if w.builder.Len() == 0 {
		if force {
			w.lines = append(w.lines, layout.TextLine{})
		}
		w.skipSpace = !force
		return
	}
	line := w.builder.String()
	lineWidth := w.width
	if !force {
		if trimmed := strings.TrimRightFunc(line, unicode.IsSpace); trimmed != line {
			line = trimmed
			lineWidth = w.face.TextWidth(line)
		}
	}
	w.builder.Reset()
	w.width = 0
	w.skipSpace = !force
	if line == "" && !force {
		return
	}
	w.lines = append(w.lines, layout.TextLine{Content: line, Width: lineWidth})
}

func breakWord(content string, limit float64, face *canvas.FontFace) []layout.TextLine {
	var lines []layout.TextLine
	var builder strings.Builder
	current := 0.0
	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{})
			}
			return
		}
		lines = append(lines, layout.TextLine{Content: builder.String(), Width: current})
		builder.Reset()
		current = 0
	}
	for _, r := range content {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			emit(true)
			continue
		}
		s := string(r)
		cw := face.TextWidth(s)
		if current > 0 && current+cw > limit {
			emit(false)
		}
		builder.WriteString(s)
		current += cw
	}
	emit(true)
	return lines
}

func isSpaceToken(token string) bool {
	return strings.TrimLeftFunc(token, unicode.IsSpace) == ""
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

// splitTokenByWidth 将超宽单词按字符切成不超过 limit 的片段；单个字符超宽时独占一段。
func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && face.TextWidth(string(current)) > limit {
			parts = append(parts, string(current[:len(current)-1]))
			current = []rune{r}
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}

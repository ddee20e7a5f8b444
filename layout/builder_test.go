package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"reflect"
	"strings"
	"testing"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 每个字符按 1mm 计宽，按空格贪心折行，超长单词按字符切分。
type stubTypesetter struct{}

func (stubTypesetter) LayoutLines(content string, width float64, _ FontResource, fontSize float64, _ float64, wrap string) ([]TextLine, error) {
	var out []TextLine
	for _, para := range strings.Split(content, "\n") {
		if wrap == "nowrap" || width <= 0 {
			out = append(out, TextLine{Content: para, Width: float64(len([]rune(para))), Height: fontSize})
			continue
		}
		limit := int(width)
		var line []rune
		flush := func() {
			out = append(out, TextLine{Content: string(line), Width: float64(len(line)), Height: fontSize})
			line = nil
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			flush()
			continue
		}
		for _, w := range words {
			word := []rune(w)
			for len(word) > limit {
				if len(line) > 0 {
					flush()
				}
				line = word[:limit]
				flush()
				word = word[limit:]
			}
			switch {
			case len(line) == 0:
				line = append(line, word...)
			case len(line)+1+len(word) <= limit:
				line = append(append(line, ' '), word...)
			default:
				flush()
				line = append(line, word...)
			}
		}
		if len(line) > 0 {
			flush()
		}
	}
	return out, nil
}

// itemsSection 返回含 n 条短内容的段落，每条折行后恰好占一行。
func itemsSection(title string, n int) Section {
	sec := Section{Title: title}
	for i := 1; i <= n; i++ {
		sec.ContentLines = append(sec.ContentLines, fmt.Sprintf("i%d", i))
	}
	return sec
}

func build(t *testing.T, sections []Section, mutate func(*BuildOptions)) *Result {
	t.Helper()
	opts := BuildOptions{Typesetter: stubTypesetter{}, Config: DefaultConfig()}
	if mutate != nil {
		mutate(&opts)
	}
	res, err := Build(sections, opts)
	if err != nil {
		t.Fatalf("构建布局失败: %v", err)
	}
	return res
}

func textsWithContent(page Page, content string) []TextBox {
	var out []TextBox
	for _, tb := range page.Texts {
		if tb.Content == content {
			out = append(out, tb)
		}
	}
	return out
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	if _, err := Build(nil, BuildOptions{Typesetter: stubTypesetter{}}); !errors.Is(err, ErrNoSections) {
		t.Fatalf("期望 ErrNoSections，实际 %v", err)
	}
	if _, err := Build([]Section{{Title: "A"}}, BuildOptions{}); !errors.Is(err, ErrNoTypesetter) {
		t.Fatalf("期望 ErrNoTypesetter，实际 %v", err)
	}
	bad := DefaultConfig()
	bad.Row.LineHeight = 0
	if _, err := Build([]Section{{Title: "A"}}, BuildOptions{Typesetter: stubTypesetter{}, Config: bad}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("期望 ErrInvalidConfig，实际 %v", err)
	}
}

// 场景 B：首行 5 行内容，高度 45，游标从 40 前进到 85。
func TestBuildFitAdvancesCursorByRowHeight(t *testing.T) {
	res := build(t, []Section{
		itemsSection("A", 5), itemsSection("B", 5),
		itemsSection("C", 1), itemsSection("D", 1),
	}, nil)

	if len(res.Pages) != 1 {
		t.Fatalf("期望 1 页，实际 %d", len(res.Pages))
	}
	first, second := res.Placements[0], res.Placements[1]
	if first.Decision != "fit" || first.Segments[0].YStart != 40 {
		t.Fatalf("首行落版不符: %+v", first)
	}
	if second.Segments[0].YStart != 85 {
		t.Fatalf("第二行应从 85 开始，实际 %g", second.Segments[0].YStart)
	}
}

// 首行 36 行内容后游标位于 240，剩余 42 > 33，第二行拆分且每页重复标题。
func TestBuildSplitRepeatsHeadersAndKeepsLines(t *testing.T) {
	left := itemsSection("RIESGOS RECONOCIDOS", 10)
	right := itemsSection("MEDIDAS DE PROTECCIÓN Y SEGURIDAD", 6)
	res := build(t, []Section{itemsSection("A", 36), itemsSection("B", 1), left, right}, nil)

	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	pl := res.Placements[1]
	if pl.Decision != "split" || pl.LinesFit != 4 || len(pl.Segments) != 2 {
		t.Fatalf("拆分决策不符: %+v", pl)
	}
	head, tail := pl.Segments[0], pl.Segments[1]
	if head.Page != 1 || head.YStart != 240 || tail.Page != 2 || tail.YStart != 20 {
		t.Fatalf("片段位置不符: head=%+v tail=%+v", head, tail)
	}
	if len(head.LeftLines) != 4 || len(head.RightLines) != 4 || len(tail.LeftLines) != 6 || len(tail.RightLines) != 2 {
		t.Fatalf("片段行数不符: head=%d/%d tail=%d/%d",
			len(head.LeftLines), len(head.RightLines), len(tail.LeftLines), len(tail.RightLines))
	}

	var wantLeft []string
	for _, l := range left.ContentLines {
		wantLeft = append(wantLeft, "• "+l)
	}
	if got := append(append([]string{}, head.LeftLines...), tail.LeftLines...); !reflect.DeepEqual(got, wantLeft) {
		t.Fatalf("拆分后左列内容丢失或重复: %v", got)
	}

	for i, page := range res.Pages {
		if n := len(textsWithContent(page, left.Title)); n != 1 {
			t.Fatalf("第 %d 页左列标题应出现 1 次，实际 %d", i+1, n)
		}
		if n := len(textsWithContent(page, right.Title)); n != 1 {
			t.Fatalf("第 %d 页右列标题应出现 1 次，实际 %d", i+1, n)
		}
	}

	// 续页片段高度 6*5+20=50，下一行应从 70 开始。
	res = build(t, []Section{itemsSection("A", 36), itemsSection("B", 1), left, right, itemsSection("E", 1)}, nil)
	if y := res.Placements[2].Segments[0].YStart; y != 70 {
		t.Fatalf("拆分后游标应前进续页片段高度，期望 70，实际 %g", y)
	}
}

// 首行 38 行内容后剩余 32 ≤ 33，第二行整体移到下一页。
func TestBuildJumpMovesWholeRow(t *testing.T) {
	res := build(t, []Section{itemsSection("A", 38), itemsSection("B", 1), itemsSection("SALTO", 10), itemsSection("OTRO", 2)}, nil)

	pl := res.Placements[1]
	if pl.Decision != "jump" || len(pl.Segments) != 1 {
		t.Fatalf("期望 jump，实际 %+v", pl)
	}
	if seg := pl.Segments[0]; seg.Page != 2 || seg.YStart != 20 || len(seg.LeftLines) != 10 {
		t.Fatalf("整行应出现在第 2 页顶部: %+v", seg)
	}
	if len(textsWithContent(res.Pages[0], "SALTO")) != 0 {
		t.Fatalf("跳页的行不应出现在第 1 页")
	}
	if len(textsWithContent(res.Pages[1], "SALTO")) != 1 {
		t.Fatalf("跳页的行应出现在第 2 页")
	}
}

// 超过整页高度的行只拆分一次，续页片段溢出而不再递归拆分。
func TestBuildOversizeRowIsNotResplit(t *testing.T) {
	res := build(t, []Section{itemsSection("ENORME", 100), itemsSection("B", 1)}, nil)
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	pl := res.Placements[0]
	if pl.Decision != "split" || pl.LinesFit != 44 || len(pl.Segments[1].LeftLines) != 56 {
		t.Fatalf("拆分不符: decision=%s linesFit=%d", pl.Decision, pl.LinesFit)
	}
}

func TestBuildDocumentHeaderOnlyOnFirstPage(t *testing.T) {
	cfg := DefaultConfig()
	sections := []Section{
		{Title: "IDENTIFICACIÓN DEL EQUIPO", ContentLines: []string{"Modelo: XR-100 (Ref. Pág.1)", "Peso: 10kg"}},
		itemsSection("B", 60),
	}
	res := build(t, sections, nil)
	if len(res.Pages) < 2 {
		t.Fatalf("期望多页")
	}
	titles := textsWithContent(res.Pages[0], cfg.Text.Title)
	if len(titles) != 1 || titles[0].Y != cfg.Header.TitleY || titles[0].Align != "right" {
		t.Fatalf("首页标题不符: %+v", titles)
	}
	if len(textsWithContent(res.Pages[0], "XR-100")) != 1 {
		t.Fatalf("首页应显示推断的设备名")
	}
	for i, page := range res.Pages[1:] {
		if len(textsWithContent(page, cfg.Text.Title)) != 0 {
			t.Fatalf("第 %d 页不应重复页首信息块", i+2)
		}
	}
	if len(res.Pages[0].Lines) != 2 {
		t.Fatalf("首页应有两条装饰线，实际 %d", len(res.Pages[0].Lines))
	}
}

func TestBuildFootersOnEveryPage(t *testing.T) {
	cfg := DefaultConfig()
	res := build(t, []Section{itemsSection("A", 36), itemsSection("B", 1), itemsSection("C", 10), itemsSection("D", 6)}, nil)
	total := len(res.Pages)
	footerY := cfg.Page.Height - cfg.Page.FooterOffset
	for i, page := range res.Pages {
		disclaimers := textsWithContent(page, cfg.Text.Disclaimer)
		if len(disclaimers) != 1 || disclaimers[0].Y != footerY || disclaimers[0].Align != "center" {
			t.Fatalf("第 %d 页免责声明不符: %+v", i+1, disclaimers)
		}
		marker := textsWithContent(page, fmt.Sprintf("%d-%d", i+1, total))
		if len(marker) != 1 || marker[0].Align != "right" {
			t.Fatalf("第 %d 页页码不符: %+v", i+1, marker)
		}
	}
}

func TestBuildCustomPageMarker(t *testing.T) {
	res := build(t, []Section{itemsSection("A", 1), itemsSection("B", 1)}, func(o *BuildOptions) {
		o.Config.Text.PageMarker = "Página ${page} de ${total}"
	})
	if len(textsWithContent(res.Pages[0], "Página 1 de 1")) != 1 {
		t.Fatalf("自定义页码模板未生效")
	}
}

func TestBuildSingleSectionMode(t *testing.T) {
	cfg := DefaultConfig()
	res := build(t, []Section{itemsSection("EQUIPOS DE PROTECCIÓN INDIVIDUAL (EPIs)", 3)}, nil)
	page := res.Pages[0]
	if page.Rects[0].Width != cfg.Page.ContentWidth() {
		t.Fatalf("单段模式列宽应为 %g，实际 %g", cfg.Page.ContentWidth(), page.Rects[0].Width)
	}
	if len(textsWithContent(page, "1-1")) != 0 {
		t.Fatalf("单段模式不输出页码")
	}
	if len(textsWithContent(page, cfg.Text.Disclaimer)) != 1 {
		t.Fatalf("单段模式仍需免责声明")
	}
}

func TestBuildOddSectionCountDrawsLeftOnly(t *testing.T) {
	res := build(t, []Section{itemsSection("A", 1), itemsSection("B", 1), itemsSection("C", 1)}, nil)
	seg := res.Placements[1].Segments[0]
	var rowRects int
	for _, rc := range res.Pages[0].Rects {
		if rc.Y >= seg.YStart {
			rowRects++
		}
	}
	if rowRects != 2 {
		t.Fatalf("奇数段落的最后一行只应绘制左侧两个单元格，实际 %d", rowRects)
	}
}

func TestBuildPlaceholderForEmptySection(t *testing.T) {
	cfg := DefaultConfig()
	res := build(t, []Section{
		{Title: "A", ContentLines: []string{"(Pág. 3)", "  ", "(Ref. 12)"}},
		{Title: "B"},
	}, nil)
	seg := res.Placements[0].Segments[0]
	if !reflect.DeepEqual(seg.LeftLines, []string{cfg.Text.Placeholder}) || !reflect.DeepEqual(seg.RightLines, []string{cfg.Text.Placeholder}) {
		t.Fatalf("空段落应只显示占位文字: %v / %v", seg.LeftLines, seg.RightLines)
	}
}

func TestBuildHeaderOffsetsAndContentBaselines(t *testing.T) {
	cfg := DefaultConfig()
	twoLine := "USO PREVISTO Y LIMITACIONES DE USO\nESTABLECIDAS POR EL FABRICANTE"
	res := build(t, []Section{itemsSection("RIESGOS", 2), itemsSection(twoLine, 1)}, nil)
	page := res.Pages[0]
	y := cfg.Page.BodyTop

	single := textsWithContent(page, "RIESGOS")
	if len(single) != 1 || single[0].Y != y+cfg.Row.HeaderSingleOffset || single[0].Align != "center" {
		t.Fatalf("单行标题位置不符: %+v", single)
	}
	multi := textsWithContent(page, twoLine)
	if len(multi) != 1 || multi[0].Y != y+cfg.Row.HeaderMultiOffset || len(multi[0].Lines) != 2 {
		t.Fatalf("双行标题位置不符: %+v", multi)
	}

	first := textsWithContent(page, "• i1")
	second := textsWithContent(page, "• i2")
	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("内容行数量不符")
	}
	base := y + cfg.Row.HeaderHeight + cfg.Row.ContentTextOffset
	if first[0].Y != base || second[0].Y != base+cfg.Row.LineHeight {
		t.Fatalf("内容基线不符: %g %g", first[0].Y, second[0].Y)
	}
	if first[0].X != cfg.Page.Margin+cfg.Row.CellInset {
		t.Fatalf("内容缩进不符: %g", first[0].X)
	}
}

func TestBuildCriticalHeaderColor(t *testing.T) {
	red := Color{R: 220, G: 38, B: 38}
	res := build(t, []Section{
		{Title: "A", ContentLines: []string{"x"}},
		{Title: "B", ContentLines: []string{"y"}, Critical: true},
	}, func(o *BuildOptions) { o.Config.Colors.Critical = &red })

	var fills []Color
	for _, rc := range res.Pages[0].Rects {
		if rc.Height == 12 && rc.FillColor != nil {
			fills = append(fills, *rc.FillColor)
		}
	}
	if len(fills) != 2 || fills[0] != DefaultConfig().Colors.Header || fills[1] != red {
		t.Fatalf("关键段落标题色不符: %+v", fills)
	}
}

func TestBuildLogo(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	res := build(t, []Section{itemsSection("A", 1)}, func(o *BuildOptions) { o.Logo = buf.Bytes() })
	images := res.Pages[0].Images
	if len(images) != 1 || images[0].Width != 45 || images[0].Height != 22.5 {
		t.Fatalf("logo 尺寸不符: %+v", images)
	}
	if len(res.Resources.Images["logo"].Data) == 0 {
		t.Fatalf("logo 数据应进入资源表")
	}

	// 无法解码的 logo 被跳过而不是报错。
	res = build(t, []Section{itemsSection("A", 1)}, func(o *BuildOptions) { o.Logo = []byte("not an image") })
	if len(res.Pages[0].Images) != 0 {
		t.Fatalf("无法解码的 logo 不应绘制")
	}
}

func TestBuildMetaDefaults(t *testing.T) {
	res := build(t, []Section{itemsSection("A", 1)}, func(o *BuildOptions) {
		o.Meta = DocumentMeta{Title: "Prensa"}
	})
	if res.Meta.Title != "Prensa" || res.Meta.Creator != "riskgrid" {
		t.Fatalf("元信息不符: %+v", res.Meta)
	}
	if _, ok := res.Resources.Fonts["Bold"]; !ok {
		t.Fatalf("资源表应包含粗体字体")
	}
}

package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidConfig 表示几何或排版参数不合法。
var ErrInvalidConfig = errors.New("layout: 配置不合法")

// Config 汇总一次渲染所需的全部可调参数（单位：mm）。
// 历史上仅颜色与页眉偏移不同的多个版本都收敛为这一份配置。
type Config struct {
	Page   PageConfig
	Header HeaderConfig
	Row    RowConfig
	Colors ColorConfig
	Fonts  FontConfig
	Text   TextConfig
}

// PageConfig 描述纸张与纵向安全区。
type PageConfig struct {
	Width  float64
	Height float64
	Margin float64
	// BodyTop 为首页正文起始 Y（位于页首信息块之下）。
	BodyTop float64
	// ContinuationTop 为后续页面正文起始 Y。
	ContinuationTop float64
	// BottomSafe 为底部安全区高度，正文不得越过 Height-BottomSafe。
	BottomSafe float64
	// FooterOffset 为页脚基线距页面底边的距离。
	FooterOffset float64
}

// UsableHeight 返回正文可用的最大 Y。
func (p PageConfig) UsableHeight() float64 { return p.Height - p.BottomSafe }

// ContentWidth 返回左右边距之间的宽度。
func (p PageConfig) ContentWidth() float64 { return p.Width - 2*p.Margin }

// HeaderConfig 描述首页页首信息块（logo、标题、设备名与装饰线）。
type HeaderConfig struct {
	LogoX      float64
	LogoY      float64
	LogoWidth  float64
	LogoHeight float64 // 0 表示按图片宽高比计算
	TitleY     float64
	NameY      float64
	LogoRuleY  float64
	TitleRuleY float64
	// TitleRuleLength 为标题右侧短装饰线长度。
	TitleRuleLength float64
}

// RowConfig 描述表格行的高度模型与单元格内的偏移。
type RowConfig struct {
	HeaderHeight  float64
	LineHeight    float64
	TopPadding    float64
	BottomPadding float64
	// MinSplitLines 为拆分一行时当前页至少要容纳的内容行数。
	MinSplitLines int
	// CellInset 为内容文字距单元格左边框的距离，折行宽度为 colWidth-2*CellInset。
	CellInset float64
	// HeaderInset 为标题文字左右留白，标题最大宽度为 colWidth-2*HeaderInset。
	HeaderInset float64
	// 标题单行/多行时首行基线距标题格顶部的偏移（经验值，并非字体度量）。
	HeaderSingleOffset float64
	HeaderMultiOffset  float64
	// ContentTextOffset 为首条内容基线距内容格顶部的偏移。
	ContentTextOffset float64
	BorderWidth       float64
}

// Metrics 返回纯函数使用的行高参数。
func (r RowConfig) Metrics() RowMetrics {
	return RowMetrics{
		HeaderHeight:  r.HeaderHeight,
		TopPadding:    r.TopPadding,
		BottomPadding: r.BottomPadding,
		LineHeight:    r.LineHeight,
		MinSplitLines: r.MinSplitLines,
	}
}

// ColorConfig 汇总各元素颜色。Critical 为空时关键段落沿用 Header。
type ColorConfig struct {
	Header     Color
	Critical   *Color
	HeaderText Color
	Border     Color
	Content    Color
	BodyText   Color
	Title      Color
	Subtitle   Color
	Footer     Color
	LogoRule   Color
	TitleRule  Color
}

// FontConfig 描述正文/粗体字体及各处字号（mm）。
type FontConfig struct {
	Body       FontResource
	Bold       FontResource
	BodySize   float64
	TitleSize  float64
	FooterSize float64
}

// TextConfig 保存固定文案。
type TextConfig struct {
	Title       string
	Disclaimer  string
	PageMarker  string // 支持 ${page} 与 ${total}；为空则不输出页码
	Placeholder string
	DefaultName string
	Bullet      string
	Creator     string
}

// DefaultConfig 返回 A4 纵向的默认参数。
func DefaultConfig() Config {
	return Config{
		Page: PageConfig{
			Width:           210,
			Height:          297,
			Margin:          15,
			BodyTop:         40,
			ContinuationTop: 20,
			BottomSafe:      15,
			FooterOffset:    10,
		},
		Header: HeaderConfig{
			LogoX:           15,
			LogoY:           10,
			LogoWidth:       45,
			TitleY:          18,
			NameY:           23,
			LogoRuleY:       28,
			TitleRuleY:      25,
			TitleRuleLength: 5,
		},
		Row: RowConfig{
			HeaderHeight:       12,
			LineHeight:         5,
			TopPadding:         6,
			BottomPadding:      2,
			MinSplitLines:      3,
			CellInset:          4,
			HeaderInset:        2,
			HeaderSingleOffset: 7,
			HeaderMultiOffset:  5,
			ContentTextOffset:  6,
			BorderWidth:        0.1,
		},
		Colors: ColorConfig{
			Header:     Color{R: 0, G: 159, B: 227},
			HeaderText: Color{R: 255, G: 255, B: 255},
			Border:     Color{},
			Content:    Color{R: 255, G: 255, B: 255},
			BodyText:   Color{},
			Title:      Color{R: 0, G: 159, B: 227},
			Subtitle:   Gray(100),
			Footer:     Gray(150),
			LogoRule:   Gray(200),
			TitleRule:  Gray(150),
		},
		Fonts: FontConfig{
			Body:       FontResource{Name: "Body", Src: "embed:go-regular", Family: "Body"},
			Bold:       FontResource{Name: "Bold", Src: "embed:go-bold", Family: "Bold", Style: "bold"},
			BodySize:   9 * PtToMm,
			TitleSize:  10 * PtToMm,
			FooterSize: 8 * PtToMm,
		},
		Text: TextConfig{
			Title:       "INFORMACIÓN PREVENCIÓN DE RIESGOS LABORALES",
			Disclaimer:  "Información Prevención de Riesgos Laborales - Apoyo Técnico IA",
			PageMarker:  "${page}-${total}",
			Placeholder: "No especificado",
			DefaultName: "EQUIPO DE TRABAJO",
			Bullet:      "• ",
			Creator:     "riskgrid",
		},
	}
}

// Validate 检查几何参数，避免分页循环在非正值上失去意义。
func (c Config) Validate() error {
	positives := []struct {
		name  string
		value float64
	}{
		{"page.width", c.Page.Width},
		{"page.height", c.Page.Height},
		{"row.headerHeight", c.Row.HeaderHeight},
		{"row.lineHeight", c.Row.LineHeight},
		{"fonts.bodySize", c.Fonts.BodySize},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s 必须大于 0（当前 %g）", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.Page.Margin < 0 {
		return fmt.Errorf("%w: 页边距不能为负（当前 %g）", ErrInvalidConfig, c.Page.Margin)
	}
	// 双栏时每列的折行宽度与标题宽度都必须为正，否则排版后端会把宽度视为不限。
	if col := c.Page.ContentWidth() / 2; col <= 2*c.Row.CellInset || col <= 2*c.Row.HeaderInset {
		return fmt.Errorf("%w: 双栏列宽 %g 不足以容纳单元格留白", ErrInvalidConfig, col)
	}
	if c.Row.TopPadding < 0 || c.Row.BottomPadding < 0 {
		return fmt.Errorf("%w: 行内边距不能为负", ErrInvalidConfig)
	}
	usable := c.Page.UsableHeight()
	if c.Page.BodyTop >= usable || c.Page.ContinuationTop >= usable {
		return fmt.Errorf("%w: 正文起点超出可用高度 %g", ErrInvalidConfig, usable)
	}
	return nil
}

var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
}

// PageSize 按预设名称返回纸张宽高，landscape 时交换二者。
func PageSize(name string, landscape bool) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", name)
	}
	width, height := base[0], base[1]
	if landscape {
		width, height = height, width
	}
	return width, height, nil
}

// ParseColor 解析 #rgb / #rrggbb / #rrggbbaa（忽略透明度）。
func ParseColor(value string) (Color, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(raw) {
	case 3:
		return hexColor(
			strings.Repeat(raw[0:1], 2),
			strings.Repeat(raw[1:2], 2),
			strings.Repeat(raw[2:3], 2),
			value,
		)
	case 6, 8:
		return hexColor(raw[0:2], raw[2:4], raw[4:6], value)
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func hexColor(r, g, b, original string) (Color, error) {
	var out [3]int
	for i, part := range []string{r, g, b} {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", original, err)
		}
		out[i] = int(v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

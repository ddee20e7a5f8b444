// Package config 读取 YAML 配置并覆盖到 layout.DefaultConfig 之上。
// 未出现的字段保持默认值；长度字段接受 "15"、"15mm"、"1.5cm"、"9pt" 等写法。
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/ByLCY/riskgrid/layout"
)

// MaxInputSize 限制配置文件大小。
const MaxInputSize = 1 << 20

var (
	ErrConfigNotFound = errors.New("config: 配置文件不存在")
	ErrConfigParse    = errors.New("config: 配置文件解析失败")
	ErrInvalidValue   = errors.New("config: 配置值不合法")
)

// Length 为 YAML 中的长度值，接受裸数字（mm）或带单位的字符串。
type Length string

// UnmarshalYAML 兼容数字与字符串两种写法。
func (l *Length) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	*l = Length(fmt.Sprint(v))
	return nil
}

// File 为 YAML 文件结构。
type File struct {
	Page   PageFile   `yaml:"page"`
	Header HeaderFile `yaml:"header"`
	Row    RowFile    `yaml:"row"`
	Colors ColorFile  `yaml:"colors"`
	Fonts  FontFile   `yaml:"fonts"`
	Text   TextFile   `yaml:"text"`
}

type PageFile struct {
	Size            string  `yaml:"size"` // A4 / A5 / Letter
	Landscape       bool    `yaml:"landscape"`
	Width           *Length `yaml:"width"`
	Height          *Length `yaml:"height"`
	Margin          *Length `yaml:"margin"`
	BodyTop         *Length `yaml:"bodyTop"`
	ContinuationTop *Length `yaml:"continuationTop"`
	BottomSafe      *Length `yaml:"bottomSafe"`
	FooterOffset    *Length `yaml:"footerOffset"`
}

type HeaderFile struct {
	LogoX           *Length `yaml:"logoX"`
	LogoY           *Length `yaml:"logoY"`
	LogoWidth       *Length `yaml:"logoWidth"`
	LogoHeight      *Length `yaml:"logoHeight"`
	TitleY          *Length `yaml:"titleY"`
	NameY           *Length `yaml:"nameY"`
	LogoRuleY       *Length `yaml:"logoRuleY"`
	TitleRuleY      *Length `yaml:"titleRuleY"`
	TitleRuleLength *Length `yaml:"titleRuleLength"`
}

type RowFile struct {
	HeaderHeight       *Length `yaml:"headerHeight"`
	LineHeight         *Length `yaml:"lineHeight"`
	TopPadding         *Length `yaml:"topPadding"`
	BottomPadding      *Length `yaml:"bottomPadding"`
	MinSplitLines      *int    `yaml:"minSplitLines"`
	CellInset          *Length `yaml:"cellInset"`
	HeaderInset        *Length `yaml:"headerInset"`
	HeaderSingleOffset *Length `yaml:"headerSingleOffset"`
	HeaderMultiOffset  *Length `yaml:"headerMultiOffset"`
	ContentTextOffset  *Length `yaml:"contentTextOffset"`
	BorderWidth        *Length `yaml:"borderWidth"`
}

type ColorFile struct {
	Header     *string `yaml:"header"`
	Critical   *string `yaml:"critical"`
	HeaderText *string `yaml:"headerText"`
	Border     *string `yaml:"border"`
	Content    *string `yaml:"content"`
	BodyText   *string `yaml:"bodyText"`
	Title      *string `yaml:"title"`
	Subtitle   *string `yaml:"subtitle"`
	Footer     *string `yaml:"footer"`
	LogoRule   *string `yaml:"logoRule"`
	TitleRule  *string `yaml:"titleRule"`
}

type FontFile struct {
	Body       *string `yaml:"body"` // "embed:go-regular" 或 TTF 路径
	Bold       *string `yaml:"bold"`
	BodySize   *Length `yaml:"bodySize"`
	TitleSize  *Length `yaml:"titleSize"`
	FooterSize *Length `yaml:"footerSize"`
}

type TextFile struct {
	Title       *string `yaml:"title"`
	Disclaimer  *string `yaml:"disclaimer"`
	PageMarker  *string `yaml:"pageMarker"`
	Placeholder *string `yaml:"placeholder"`
	DefaultName *string `yaml:"defaultName"`
	Bullet      *string `yaml:"bullet"`
	Creator     *string `yaml:"creator"`
}

// Load 读取 path 指向的 YAML 文件；path 为空时直接返回默认配置。
func Load(path string) (layout.Config, error) {
	if path == "" {
		return layout.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return layout.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return layout.Config{}, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容，未知字段视为错误。
func Parse(data []byte) (layout.Config, error) {
	if len(data) > MaxInputSize {
		return layout.Config{}, fmt.Errorf("%w: 配置超过 %d 字节", ErrConfigParse, MaxInputSize)
	}
	var file File
	if len(data) > 0 {
		if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
			return layout.Config{}, fmt.Errorf("%w: %w", ErrConfigParse, err)
		}
	}
	cfg, err := file.Apply(layout.DefaultConfig())
	if err != nil {
		return layout.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return layout.Config{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return cfg, nil
}

// Apply 将文件中出现的字段覆盖到 base 上。
func (f File) Apply(base layout.Config) (layout.Config, error) {
	cfg := base
	o := &overlay{}

	if f.Page.Size != "" || f.Page.Landscape {
		size := f.Page.Size
		if size == "" {
			size = "A4"
		}
		w, h, err := layout.PageSize(size, f.Page.Landscape)
		if err != nil {
			return cfg, fmt.Errorf("%w: page.size: %w", ErrInvalidValue, err)
		}
		cfg.Page.Width, cfg.Page.Height = w, h
	}
	o.length(&cfg.Page.Width, f.Page.Width, "page.width")
	o.length(&cfg.Page.Height, f.Page.Height, "page.height")
	o.length(&cfg.Page.Margin, f.Page.Margin, "page.margin")
	o.length(&cfg.Page.BodyTop, f.Page.BodyTop, "page.bodyTop")
	o.length(&cfg.Page.ContinuationTop, f.Page.ContinuationTop, "page.continuationTop")
	o.length(&cfg.Page.BottomSafe, f.Page.BottomSafe, "page.bottomSafe")
	o.length(&cfg.Page.FooterOffset, f.Page.FooterOffset, "page.footerOffset")

	o.length(&cfg.Header.LogoX, f.Header.LogoX, "header.logoX")
	o.length(&cfg.Header.LogoY, f.Header.LogoY, "header.logoY")
	o.length(&cfg.Header.LogoWidth, f.Header.LogoWidth, "header.logoWidth")
	o.length(&cfg.Header.LogoHeight, f.Header.LogoHeight, "header.logoHeight")
	o.length(&cfg.Header.TitleY, f.Header.TitleY, "header.titleY")
	o.length(&cfg.Header.NameY, f.Header.NameY, "header.nameY")
	o.length(&cfg.Header.LogoRuleY, f.Header.LogoRuleY, "header.logoRuleY")
	o.length(&cfg.Header.TitleRuleY, f.Header.TitleRuleY, "header.titleRuleY")
	o.length(&cfg.Header.TitleRuleLength, f.Header.TitleRuleLength, "header.titleRuleLength")

	o.length(&cfg.Row.HeaderHeight, f.Row.HeaderHeight, "row.headerHeight")
	o.length(&cfg.Row.LineHeight, f.Row.LineHeight, "row.lineHeight")
	o.length(&cfg.Row.TopPadding, f.Row.TopPadding, "row.topPadding")
	o.length(&cfg.Row.BottomPadding, f.Row.BottomPadding, "row.bottomPadding")
	o.length(&cfg.Row.CellInset, f.Row.CellInset, "row.cellInset")
	o.length(&cfg.Row.HeaderInset, f.Row.HeaderInset, "row.headerInset")
	o.length(&cfg.Row.HeaderSingleOffset, f.Row.HeaderSingleOffset, "row.headerSingleOffset")
	o.length(&cfg.Row.HeaderMultiOffset, f.Row.HeaderMultiOffset, "row.headerMultiOffset")
	o.length(&cfg.Row.ContentTextOffset, f.Row.ContentTextOffset, "row.contentTextOffset")
	o.length(&cfg.Row.BorderWidth, f.Row.BorderWidth, "row.borderWidth")
	if f.Row.MinSplitLines != nil {
		cfg.Row.MinSplitLines = *f.Row.MinSplitLines
	}

	o.color(&cfg.Colors.Header, f.Colors.Header, "colors.header")
	if f.Colors.Critical != nil {
		var c layout.Color
		o.color(&c, f.Colors.Critical, "colors.critical")
		cfg.Colors.Critical = &c
	}
	o.color(&cfg.Colors.HeaderText, f.Colors.HeaderText, "colors.headerText")
	o.color(&cfg.Colors.Border, f.Colors.Border, "colors.border")
	o.color(&cfg.Colors.Content, f.Colors.Content, "colors.content")
	o.color(&cfg.Colors.BodyText, f.Colors.BodyText, "colors.bodyText")
	o.color(&cfg.Colors.Title, f.Colors.Title, "colors.title")
	o.color(&cfg.Colors.Subtitle, f.Colors.Subtitle, "colors.subtitle")
	o.color(&cfg.Colors.Footer, f.Colors.Footer, "colors.footer")
	o.color(&cfg.Colors.LogoRule, f.Colors.LogoRule, "colors.logoRule")
	o.color(&cfg.Colors.TitleRule, f.Colors.TitleRule, "colors.titleRule")

	if f.Fonts.Body != nil {
		cfg.Fonts.Body.Src = *f.Fonts.Body
	}
	if f.Fonts.Bold != nil {
		cfg.Fonts.Bold.Src = *f.Fonts.Bold
	}
	o.length(&cfg.Fonts.BodySize, f.Fonts.BodySize, "fonts.bodySize")
	o.length(&cfg.Fonts.TitleSize, f.Fonts.TitleSize, "fonts.titleSize")
	o.length(&cfg.Fonts.FooterSize, f.Fonts.FooterSize, "fonts.footerSize")

	text(&cfg.Text.Title, f.Text.Title)
	text(&cfg.Text.Disclaimer, f.Text.Disclaimer)
	text(&cfg.Text.PageMarker, f.Text.PageMarker)
	text(&cfg.Text.Placeholder, f.Text.Placeholder)
	text(&cfg.Text.DefaultName, f.Text.DefaultName)
	text(&cfg.Text.Bullet, f.Text.Bullet)
	text(&cfg.Text.Creator, f.Text.Creator)

	return cfg, o.err
}

// overlay 记录第一个解析错误，之后的字段不再处理。
type overlay struct {
	err error
}

func (o *overlay) length(dst *float64, src *Length, field string) {
	if o.err != nil || src == nil {
		return
	}
	l, err := layout.ParseRawLengthStr(string(*src))
	if err != nil {
		o.err = fmt.Errorf("%w: %s: %w", ErrInvalidValue, field, err)
		return
	}
	*dst = l.ToMM()
}

func (o *overlay) color(dst *layout.Color, src *string, field string) {
	if o.err != nil || src == nil {
		return
	}
	c, err := layout.ParseColor(*src)
	if err != nil {
		o.err = fmt.Errorf("%w: %s: %w", ErrInvalidValue, field, err)
		return
	}
	*dst = c
}

func text(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/riskgrid/binding"
)

const (
	logoResourceName = "logo"
	headerRuleWidth  = 0.2
)

var (
	ErrNoSections   = errors.New("layout: 没有可渲染的段落")
	ErrNoTypesetter = errors.New("layout: 缺少排版后端 Typesetter")
)

// PageCursor 为当前页码（从 1 开始）与正文写入位置，只由分页器修改。
type PageCursor struct {
	Page int     `json:"page"`
	Y    float64 `json:"y"`
}

// Placement 记录一行的分页决策及其落版片段。
type Placement struct {
	Row      int          `json:"row"`
	Decision string       `json:"decision"`
	LinesFit int          `json:"linesFit,omitempty"`
	Segments []RowSegment `json:"segments"`
}

// Build 将段落排成双栏分页文档：首页页首信息块、逐行落版，最后回写每页页脚。
// 只有一个段落时进入单段导出模式：单栏占满内容宽度且不输出页码。
func Build(sections []Section, opts BuildOptions) (*Result, error) {
	if len(sections) == 0 {
		return nil, ErrNoSections
	}
	if opts.Typesetter == nil {
		return nil, ErrNoTypesetter
	}
	cfg := opts.Config
	if cfg.Page.Width == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	single := len(sections) == 1
	colWidth := cfg.Page.ContentWidth()
	if !single {
		colWidth /= 2
	}

	surface := NewRecorder(cfg.Page.Width, cfg.Page.Height, opts.Typesetter)
	pg := &paginator{
		cfg:      cfg,
		surface:  surface,
		ts:       opts.Typesetter,
		logger:   opts.logger(),
		colWidth: colWidth,
		cursor:   PageCursor{Page: 1, Y: cfg.Page.BodyTop},
	}
	pg.painter = &rowPainter{
		surface:   surface,
		cfg:       cfg,
		colWidth:  colWidth,
		wrapTitle: pg.wrapper(cfg.Fonts.Bold, colWidth-2*cfg.Row.HeaderInset),
	}

	if err := pg.drawDocumentHeader(sections[0], opts.Logo); err != nil {
		return nil, fmt.Errorf("绘制页首失败: %w", err)
	}

	bodyWrap := pg.wrapper(cfg.Fonts.Body, colWidth-2*cfg.Row.CellInset)
	wrapped := make([]WrappedSection, 0, len(sections))
	for _, sec := range sections {
		ws, err := NormalizeSection(sec, bodyWrap, cfg.Text.Bullet, cfg.Text.Placeholder)
		if err != nil {
			return nil, fmt.Errorf("段落 %q 折行失败: %w", sec.Title, err)
		}
		wrapped = append(wrapped, ws)
	}

	var placements []Placement
	for i, row := range PairSections(wrapped) {
		pl, err := pg.placeRow(i, row)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行落版失败: %w", i+1, err)
		}
		placements = append(placements, pl)
	}

	if err := pg.drawFooters(!single); err != nil {
		return nil, fmt.Errorf("绘制页脚失败: %w", err)
	}

	meta := opts.Meta
	if meta.Creator == "" {
		meta.Creator = cfg.Text.Creator
	}
	res := surface.Result(meta)
	res.Placements = placements
	return res, nil
}

type paginator struct {
	cfg      Config
	surface  Surface
	ts       Typesetter
	logger   *log.Logger
	painter  *rowPainter
	colWidth float64
	cursor   PageCursor
}

// wrapper 返回按给定字体与宽度折行的函数。
func (pg *paginator) wrapper(font FontResource, width float64) WrapFunc {
	return func(text string) ([]string, error) {
		lines, err := pg.ts.LayoutLines(text, width, font, pg.cfg.Fonts.BodySize, pg.cfg.Row.LineHeight, "anywhere")
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(lines))
		for _, ln := range lines {
			out = append(out, ln.Content)
		}
		if len(out) == 0 {
			out = append(out, text)
		}
		return out, nil
	}
}

func (pg *paginator) placeRow(index int, row Row) (Placement, error) {
	m := pg.cfg.Row.Metrics()
	left := row.Left.WrappedLines
	var right []string
	if row.Right != nil {
		right = row.Right.WrappedLines
	}

	rowHeight := m.RowHeight(len(left), len(right))
	spaceLeft := pg.cfg.Page.UsableHeight() - pg.cursor.Y
	decision := Decide(rowHeight, spaceLeft, m)
	pl := Placement{Row: index, Decision: decision.Kind.String()}

	switch decision.Kind {
	case Fit:
		seg, err := pg.drawSegment(row, left, right, true, true)
		if err != nil {
			return pl, err
		}
		pl.Segments = append(pl.Segments, seg)
		pg.cursor.Y += rowHeight

	case Split:
		pg.logger.Debug("行跨页拆分",
			"row", index+1, "title", row.Left.Title,
			"spaceLeft", spaceLeft, "rowHeight", rowHeight, "linesFit", decision.LinesFit)
		pl.LinesFit = decision.LinesFit
		leftHead, leftTail := SplitLines(left, decision.LinesFit)
		rightHead, rightTail := SplitLines(right, decision.LinesFit)

		first, err := pg.drawSegment(row, leftHead, rightHead, true, false)
		if err != nil {
			return pl, err
		}
		pg.newPage()
		// 续页重复两列标题。
		second, err := pg.drawSegment(row, leftTail, rightTail, false, true)
		if err != nil {
			return pl, err
		}
		pl.Segments = append(pl.Segments, first, second)
		pg.advance(second.Height(m), row)

	case Jump:
		pg.logger.Debug("剩余空间不足以拆分，整行移到下一页",
			"row", index+1, "title", row.Left.Title, "spaceLeft", spaceLeft, "rowHeight", rowHeight)
		pg.newPage()
		seg, err := pg.drawSegment(row, left, right, true, true)
		if err != nil {
			return pl, err
		}
		pl.Segments = append(pl.Segments, seg)
		pg.advance(rowHeight, row)
	}
	return pl, nil
}

func (pg *paginator) drawSegment(row Row, left, right []string, first, last bool) (RowSegment, error) {
	seg := RowSegment{
		Page:         pg.cursor.Page,
		YStart:       pg.cursor.Y,
		LeftLines:    left,
		RightLines:   right,
		IsFirstChunk: first,
		IsLastChunk:  last,
	}
	return seg, pg.painter.draw(row, seg)
}

// advance 移动游标；新页上的片段本身超出整页时不再递归拆分，只记录警告。
func (pg *paginator) advance(height float64, row Row) {
	pg.cursor.Y += height
	if pg.cursor.Y > pg.cfg.Page.UsableHeight() {
		pg.logger.Warn("单行内容超过整页高度，将溢出页面底部",
			"page", pg.cursor.Page, "title", row.Left.Title, "bottom", pg.cursor.Y)
	}
}

func (pg *paginator) newPage() {
	pg.surface.AddPage()
	pg.cursor = PageCursor{Page: pg.surface.PageCount(), Y: pg.cfg.Page.ContinuationTop}
}

// drawDocumentHeader 只在首页绘制一次：logo、报告标题、推断的设备名称与装饰线。
func (pg *paginator) drawDocumentHeader(first Section, logo []byte) error {
	cfg := pg.cfg
	hc := cfg.Header
	right := cfg.Page.Width - cfg.Page.Margin

	if len(logo) > 0 {
		if w, h, err := pg.logoSize(logo); err != nil {
			pg.logger.Warn("logo 无法解码，已跳过", "err", err)
		} else {
			pg.surface.Image(logoResourceName, logo, hc.LogoX, hc.LogoY, w, h)
		}
	}

	pg.surface.SetFont(cfg.Fonts.Bold, cfg.Fonts.TitleSize)
	pg.surface.SetTextColor(cfg.Colors.Title)
	if err := pg.surface.Text(cfg.Text.Title, right, hc.TitleY, TextOptions{Align: "right"}); err != nil {
		return err
	}

	name := ExtractTitle(first.ContentLines, cfg.Text.DefaultName)
	pg.surface.SetTextColor(cfg.Colors.Subtitle)
	if err := pg.surface.Text(name, right, hc.NameY, TextOptions{Align: "right"}); err != nil {
		return err
	}

	pg.surface.SetLineWidth(headerRuleWidth)
	pg.surface.SetDrawColor(cfg.Colors.LogoRule)
	pg.surface.Line(cfg.Page.Margin, hc.LogoRuleY, cfg.Page.Margin+hc.LogoWidth, hc.LogoRuleY)
	pg.surface.SetDrawColor(cfg.Colors.TitleRule)
	pg.surface.Line(right-hc.TitleRuleLength, hc.TitleRuleY, right, hc.TitleRuleY)
	return nil
}

func (pg *paginator) logoSize(data []byte) (float64, float64, error) {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	if imgCfg.Width <= 0 || imgCfg.Height <= 0 {
		return 0, 0, fmt.Errorf("图片尺寸无效 %dx%d", imgCfg.Width, imgCfg.Height)
	}
	w := pg.cfg.Header.LogoWidth
	h := pg.cfg.Header.LogoHeight
	if h <= 0 {
		h = w * float64(imgCfg.Height) / float64(imgCfg.Width)
	}
	return w, h, nil
}

// drawFooters 在正文全部落版后回写每一页：居中免责声明与右下角页码。
// 页码依赖最终页数，因此只能在第二遍进行。
func (pg *paginator) drawFooters(withMarker bool) error {
	cfg := pg.cfg
	total := pg.surface.PageCount()
	y := cfg.Page.Height - cfg.Page.FooterOffset
	for i := 1; i <= total; i++ {
		pg.surface.SetPage(i)
		pg.surface.SetFont(cfg.Fonts.Body, cfg.Fonts.FooterSize)
		pg.surface.SetTextColor(cfg.Colors.Footer)
		if cfg.Text.Disclaimer != "" {
			if err := pg.surface.Text(cfg.Text.Disclaimer, cfg.Page.Width/2, y, TextOptions{Align: "center"}); err != nil {
				return err
			}
		}
		if !withMarker || cfg.Text.PageMarker == "" {
			continue
		}
		marker := binding.Interpolate(cfg.Text.PageMarker, map[string]any{"page": i, "total": total})
		if err := pg.surface.Text(marker, cfg.Page.Width-cfg.Page.Margin, y, TextOptions{Align: "right"}); err != nil {
			return err
		}
	}
	return nil
}

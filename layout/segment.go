package layout

// RowSegment 为一次落版的行片段：整行或拆分行的前/后半段。
type RowSegment struct {
	Page         int      `json:"page"`
	YStart       float64  `json:"yStart"`
	LeftLines    []string `json:"leftLines"`
	RightLines   []string `json:"rightLines,omitempty"`
	IsFirstChunk bool     `json:"isFirstChunk"`
	IsLastChunk  bool     `json:"isLastChunk"`
}

// Height 返回片段按自身行数计算的高度。
func (s RowSegment) Height(m RowMetrics) float64 {
	return m.RowHeight(len(s.LeftLines), len(s.RightLines))
}

// rowPainter 绘制行片段：每列一个填充标题格和一个白色内容格。
type rowPainter struct {
	surface   Surface
	cfg       Config
	colWidth  float64
	wrapTitle WrapFunc
}

func (p *rowPainter) draw(row Row, seg RowSegment) error {
	x := p.cfg.Page.Margin
	if err := p.drawHeader(row.Left, x, seg.YStart); err != nil {
		return err
	}
	if row.Right != nil {
		if err := p.drawHeader(*row.Right, x+p.colWidth, seg.YStart); err != nil {
			return err
		}
	}

	rc := p.cfg.Row
	contentY := seg.YStart + rc.HeaderHeight
	// 内容格高度只按本片段行数计算，而不是整行。
	boxH := float64(max(len(seg.LeftLines), len(seg.RightLines)))*rc.LineHeight + rc.TopPadding + rc.BottomPadding

	p.surface.SetFont(p.cfg.Fonts.Body, p.cfg.Fonts.BodySize)
	p.surface.SetTextColor(p.cfg.Colors.BodyText)
	if err := p.drawContent(seg.LeftLines, x, contentY, boxH); err != nil {
		return err
	}
	if row.Right != nil {
		if err := p.drawContent(seg.RightLines, x+p.colWidth, contentY, boxH); err != nil {
			return err
		}
	}
	return nil
}

func (p *rowPainter) drawHeader(sec WrappedSection, x, y float64) error {
	rc := p.cfg.Row
	fill := p.cfg.Colors.Header
	if sec.Critical && p.cfg.Colors.Critical != nil {
		fill = *p.cfg.Colors.Critical
	}
	p.surface.SetFillColor(fill)
	p.surface.SetDrawColor(p.cfg.Colors.Border)
	p.surface.SetLineWidth(rc.BorderWidth)
	p.surface.Rect(x, y, p.colWidth, rc.HeaderHeight, RectFillStroke)

	p.surface.SetFont(p.cfg.Fonts.Bold, p.cfg.Fonts.BodySize)
	p.surface.SetTextColor(p.cfg.Colors.HeaderText)
	maxWidth := p.colWidth - 2*rc.HeaderInset
	lines, err := p.wrapTitle(sec.Title)
	if err != nil {
		return err
	}
	// 经验偏移：多行标题整体上移，单行标题靠下居中。
	offset := rc.HeaderSingleOffset
	if len(lines) > 1 {
		offset = rc.HeaderMultiOffset
	}
	return p.surface.Text(sec.Title, x+p.colWidth/2, y+offset, TextOptions{Align: "center", MaxWidth: maxWidth})
}

func (p *rowPainter) drawContent(lines []string, x, y, boxH float64) error {
	rc := p.cfg.Row
	p.surface.SetFillColor(p.cfg.Colors.Content)
	p.surface.SetDrawColor(p.cfg.Colors.Border)
	p.surface.SetLineWidth(rc.BorderWidth)
	p.surface.Rect(x, y, p.colWidth, boxH, RectFillStroke)

	baseline := y + rc.ContentTextOffset
	for _, line := range lines {
		if err := p.surface.Text(line, x+rc.CellInset, baseline, TextOptions{}); err != nil {
			return err
		}
		baseline += rc.LineHeight
	}
	return nil
}

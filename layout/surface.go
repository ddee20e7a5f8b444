package layout

import (
	"fmt"
	"strings"
)

// textLineFactor 为多行文字的行距系数（相对字号）。
const textLineFactor = 1.15

// RectStyle 控制矩形的填充与描边。
type RectStyle int

const (
	RectFill RectStyle = 1 << iota
	RectStroke

	RectFillStroke = RectFill | RectStroke
)

// TextOptions 控制单次文字绘制：Align 取 left/center/right，x 为对应锚点；
// MaxWidth > 0 时按该宽度折行。
type TextOptions struct {
	Align    string
	MaxWidth float64
}

// Surface 是分页器与行渲染器唯一接触的绘图表面，坐标单位为 mm，原点在左上角。
// Text 的 y 为首行基线。
type Surface interface {
	AddPage()
	PageCount() int
	// SetPage 切换当前页（从 1 开始），用于收尾阶段回写页脚。
	SetPage(n int)
	SetFillColor(c Color)
	SetDrawColor(c Color)
	SetTextColor(c Color)
	SetFont(font FontResource, size float64)
	SetLineWidth(w float64)
	Rect(x, y, w, h float64, style RectStyle)
	Line(x1, y1, x2, y2 float64)
	Text(s string, x, y float64, opts TextOptions) error
	Image(name string, data []byte, x, y, w, h float64)
}

type pageAccumulator struct {
	texts  []TextBox
	images []ImageBox
	lines  []Line
	rects  []Rect
}

// Recorder 实现 Surface，把绘制指令记录为 Result，交给 Renderer 输出。
type Recorder struct {
	width      float64
	height     float64
	typesetter Typesetter

	accs    []*pageAccumulator
	current int

	fillColor Color
	drawColor Color
	textColor Color
	font      FontResource
	fontSize  float64
	lineWidth float64

	fonts  map[string]FontResource
	images map[string]ImageResource
}

var _ Surface = (*Recorder)(nil)

// NewRecorder 创建只含第一页的记录表面。
func NewRecorder(width, height float64, ts Typesetter) *Recorder {
	r := &Recorder{
		width:      width,
		height:     height,
		typesetter: ts,
		fontSize:   12 * PtToMm,
		lineWidth:  0.2,
		fonts:      map[string]FontResource{},
		images:     map[string]ImageResource{},
	}
	r.AddPage()
	return r
}

func (r *Recorder) AddPage() {
	r.accs = append(r.accs, &pageAccumulator{})
	r.current = len(r.accs) - 1
}

func (r *Recorder) PageCount() int { return len(r.accs) }

func (r *Recorder) SetPage(n int) {
	if n < 1 || n > len(r.accs) {
		return
	}
	r.current = n - 1
}

func (r *Recorder) SetFillColor(c Color)   { r.fillColor = c }
func (r *Recorder) SetDrawColor(c Color)   { r.drawColor = c }
func (r *Recorder) SetTextColor(c Color)   { r.textColor = c }
func (r *Recorder) SetLineWidth(w float64) { r.lineWidth = w }

func (r *Recorder) SetFont(font FontResource, size float64) {
	r.font = font
	if size > 0 {
		r.fontSize = size
	}
	if font.Name != "" {
		r.fonts[font.Name] = font
	}
}

func (r *Recorder) curr() *pageAccumulator { return r.accs[r.current] }

func (r *Recorder) Rect(x, y, w, h float64, style RectStyle) {
	rc := Rect{X: x, Y: y, Width: w, Height: h, StrokeWidth: r.lineWidth}
	if style&RectFill != 0 {
		fill := r.fillColor
		rc.FillColor = &fill
	}
	if style&RectStroke != 0 {
		stroke := r.drawColor
		rc.StrokeColor = &stroke
	}
	r.curr().rects = append(r.curr().rects, rc)
}

func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.curr().lines = append(r.curr().lines, Line{
		X1: x1, Y1: y1, X2: x2, Y2: y2,
		Color: r.drawColor,
		Width: r.lineWidth,
	})
}

func (r *Recorder) Text(s string, x, y float64, opts TextOptions) error {
	pitch := r.fontSize * textLineFactor
	lines, err := r.measure(s, opts.MaxWidth, pitch)
	if err != nil {
		return fmt.Errorf("排版文字 %q 失败: %w", s, err)
	}
	width := opts.MaxWidth
	if width <= 0 {
		for _, ln := range lines {
			width = max(width, ln.Width)
		}
	}

	align := strings.ToLower(opts.Align)
	left := x
	switch align {
	case "center":
		left = x - width/2
	case "right":
		left = x - width
	default:
		align = ""
	}

	r.curr().texts = append(r.curr().texts, TextBox{
		Content:    s,
		X:          left,
		Y:          y,
		Width:      width,
		LineHeight: pitch,
		Font:       r.font.Name,
		FontSize:   r.fontSize,
		Color:      r.textColor,
		Lines:      lines,
		Align:      align,
	})
	return nil
}

func (r *Recorder) measure(s string, maxWidth, pitch float64) ([]TextLine, error) {
	if r.typesetter == nil {
		parts := strings.Split(s, "\n")
		out := make([]TextLine, 0, len(parts))
		for _, p := range parts {
			out = append(out, TextLine{Content: p, Height: r.fontSize})
		}
		return out, nil
	}
	wrap := "anywhere"
	if maxWidth <= 0 {
		wrap = "nowrap"
	}
	return r.typesetter.LayoutLines(s, maxWidth, r.font, r.fontSize, pitch, wrap)
}

func (r *Recorder) Image(name string, data []byte, x, y, w, h float64) {
	if _, ok := r.images[name]; !ok {
		r.images[name] = ImageResource{Name: name, Data: data, Width: w, Height: h}
	}
	r.curr().images = append(r.curr().images, ImageBox{Name: name, X: x, Y: y, Width: w, Height: h})
}

// Result 汇总所有页面，返回可直接渲染的布局结果。
func (r *Recorder) Result(meta DocumentMeta) *Result {
	pages := make([]Page, len(r.accs))
	for i, acc := range r.accs {
		pages[i] = Page{
			Width:  r.width,
			Height: r.height,
			Texts:  acc.texts,
			Images: acc.images,
			Lines:  acc.lines,
			Rects:  acc.rects,
		}
	}
	return &Result{
		Pages: pages,
		Resources: ResourceSet{
			Fonts:  r.fonts,
			Images: r.images,
		},
		Meta: meta,
	}
}

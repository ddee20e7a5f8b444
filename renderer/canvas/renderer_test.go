package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/riskgrid/fonts"
	"github.com/ByLCY/riskgrid/layout"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 0, G: 159, B: 227, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderProducesPDF(t *testing.T) {
	blue := layout.Color{R: 0, G: 159, B: 227}
	border := layout.Gray(200)
	logo := samplePNG(t)
	result := &layout.Result{
		Pages: []layout.Page{{
			Width:  210,
			Height: 297,
			Rects: []layout.Rect{
				{X: 15, Y: 40, Width: 90, Height: 12, FillColor: &blue, StrokeColor: &border, StrokeWidth: 0.1},
				{X: 15, Y: 52, Width: 90, Height: 13, StrokeColor: &border},
			},
			Lines: []layout.Line{{X1: 15, Y1: 28, X2: 60, Y2: 28, Color: blue, Width: 0.2}},
			Texts: []layout.TextBox{
				{Content: "RIESGOS RECONOCIDOS", X: 17, Y: 47, Width: 86, LineHeight: 3.6, Font: "Bold", FontSize: 9 * layout.PtToMm, Align: "center",
					Lines: []layout.TextLine{{Content: "RIESGOS RECONOCIDOS"}}},
				{Content: "• Caída de objetos", X: 19, Y: 58, Font: "Body", FontSize: 9 * layout.PtToMm},
			},
			Images: []layout.ImageBox{{Name: "logo", X: 15, Y: 10, Width: 45, Height: 22.5}},
		}, {
			Width:  210,
			Height: 297,
			Texts:  []layout.TextBox{{Content: "2-2", X: 180, Y: 287, Width: 15, Font: "Body", FontSize: 8 * layout.PtToMm, Align: "right"}},
		}},
		Resources: layout.ResourceSet{
			Fonts: map[string]layout.FontResource{
				"Body": {Name: "Body", Src: "embed:go-regular"},
				"Bold": {Name: "Bold", Src: "embed:go-bold", Style: "bold"},
			},
			Images: map[string]layout.ImageResource{"logo": {Name: "logo", Data: logo}},
		},
		Meta: layout.DocumentMeta{Title: "Grúa torre", Creator: "riskgrid", Keywords: []string{"grúa"}},
	}

	out, err := NewRenderer("").Render(result)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 8)])
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil result should fail")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("result without pages should fail")
	}
}

func TestRenderRequiresImageData(t *testing.T) {
	withData := &layout.Result{
		Pages: []layout.Page{{
			Width: 100, Height: 100,
			Images: []layout.ImageBox{{Name: "logo", X: 5, Y: 5, Width: 20, Height: 10}},
		}},
		Resources: layout.ResourceSet{Images: map[string]layout.ImageResource{"logo": {Name: "logo", Data: samplePNG(t)}}},
	}
	if _, err := NewRenderer("").Render(withData); err != nil {
		t.Fatalf("image carried by the layout should render: %v", err)
	}

	missing := &layout.Result{Pages: []layout.Page{{
		Width: 100, Height: 100,
		Images: []layout.ImageBox{{Name: "absent", X: 5, Y: 5, Width: 20, Height: 10}},
	}}}
	if _, err := NewRenderer(t.TempDir()).Render(missing); err == nil {
		t.Fatalf("missing image should fail")
	}
}

func TestFontFileResolvedAgainstBaseDir(t *testing.T) {
	dir := t.TempDir()
	data, err := fonts.Load("go-bold")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "fonts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "fonts", "custom.ttf"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(dir)
	width := func(font layout.FontResource) float64 {
		t.Helper()
		lines, err := r.LayoutLines("MEDIDAS DE PROTECCIÓN", 0, font, fontSizeMM, lineHeightMM, "nowrap")
		if err != nil {
			t.Fatalf("layout lines: %v", err)
		}
		return lines[0].Width
	}
	custom := width(layout.FontResource{Name: "Custom", Family: "Custom", Src: "fonts/custom.ttf", Style: "bold"})
	bold := width(layout.FontResource{Name: "Bold", Family: "Bold", Src: "embed:go-bold", Style: "bold"})
	regular := width(bodyFont)
	if math.Abs(custom-bold) > 1e-9 {
		t.Fatalf("font file should match embedded bold metrics: %g vs %g", custom, bold)
	}
	if math.Abs(custom-regular) < 1e-9 {
		t.Fatalf("font file was not loaded, fallback metrics used")
	}
}

func TestParseFontStyle(t *testing.T) {
	if parseFontStyle("bold") == parseFontStyle("") {
		t.Fatalf("bold should differ from regular")
	}
	if parseFontStyle("semibold") == parseFontStyle("bold") {
		t.Fatalf("semibold should not collapse into bold")
	}
}

// Package report 是一次报告生成的最外层边界：加载 logo、分页布局、渲染 PDF。
// 任何失败都以 ErrGenerate 的形式返回给调用方，内部细节只写入日志与包装链。
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ByLCY/riskgrid/layout"
	"github.com/ByLCY/riskgrid/logo"
	"github.com/ByLCY/riskgrid/renderer"
	canvasrenderer "github.com/ByLCY/riskgrid/renderer/canvas"
)

// ErrGenerate 是报告生成失败的统一信号。
var ErrGenerate = errors.New("report: 生成报告失败")

// Options 控制一次生成。零值可用：默认配置、无 logo、canvas 渲染器、丢弃日志。
type Options struct {
	Config   layout.Config
	Logo     logo.Loader
	Renderer renderer.TypesettingRenderer
	Logger   *log.Logger
	Meta     layout.DocumentMeta
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

// Build 只做布局，返回可供渲染或调试输出的 Result。
func Build(ctx context.Context, sections []layout.Section, opts Options) (res *layout.Result, err error) {
	defer recoverInto(&err)
	res, _, err = build(ctx, sections, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return res, nil
}

// Generate 生成完整报告的 PDF 字节。
func Generate(ctx context.Context, sections []layout.Section, opts Options) (pdf []byte, err error) {
	defer recoverInto(&err)
	logger := opts.logger()

	res, r, err := build(ctx, sections, opts)
	if err != nil {
		logger.Error("布局失败", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	pdf, err = r.Render(res)
	if err != nil {
		logger.Error("渲染失败", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	logger.Info("报告已生成", "sections", len(sections), "pages", len(res.Pages), "bytes", len(pdf))
	return pdf, nil
}

// GenerateSingle 导出单个段落：标题转为大写，单栏占满内容宽度，不输出页码。
func GenerateSingle(ctx context.Context, section layout.Section, opts Options) ([]byte, error) {
	return Generate(ctx, []layout.Section{SingleSection(section)}, opts)
}

// SingleSection 返回单段导出时实际绘制的段落（标题按西班牙语规则大写）。
func SingleSection(section layout.Section) layout.Section {
	section.Title = cases.Upper(language.Spanish).String(section.Title)
	return section
}

func build(ctx context.Context, sections []layout.Section, opts Options) (*layout.Result, renderer.TypesettingRenderer, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	logger := opts.logger()
	r := opts.Renderer
	if r == nil {
		r = canvasrenderer.NewRenderer("")
	}

	var logoBytes []byte
	if opts.Logo != nil {
		data, err := opts.Logo.Load(ctx)
		if err != nil {
			logger.Warn("logo 加载失败，报告将不含 logo", "err", err)
		} else {
			logoBytes = data
		}
	}

	logger.Debug("开始布局", "sections", len(sections))
	res, err := layout.Build(sections, layout.BuildOptions{
		Typesetter: r,
		Config:     opts.Config,
		Logo:       logoBytes,
		Meta:       opts.Meta,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return res, r, nil
}

// recoverInto 把绘图后端的 panic 转为 ErrGenerate，避免调用方进程崩溃。
func recoverInto(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("%w: %v", ErrGenerate, p)
	}
}

// SelectSection 按 1 起始序号取出段落，用于单段导出。
func SelectSection(sections []layout.Section, n int) (layout.Section, error) {
	if n < 1 || n > len(sections) {
		titles := make([]string, 0, len(sections))
		for i, s := range sections {
			titles = append(titles, fmt.Sprintf("%d=%s", i+1, strings.ReplaceAll(s.Title, "\n", " ")))
		}
		return layout.Section{}, fmt.Errorf("段落序号 %d 超出范围（%s）", n, strings.Join(titles, ", "))
	}
	return sections[n-1], nil
}

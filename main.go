package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/ByLCY/riskgrid/config"
	"github.com/ByLCY/riskgrid/dsl"
	"github.com/ByLCY/riskgrid/layout"
	"github.com/ByLCY/riskgrid/logo"
	canvasrenderer "github.com/ByLCY/riskgrid/renderer/canvas"
	"github.com/ByLCY/riskgrid/report"
)

// cliOptions 汇总命令行参数。
type cliOptions struct {
	input   string
	output  string
	config  string
	logo    string
	debug   string
	section int
	verbose bool
}

func main() {
	var opts cliOptions
	flag.StringVarP(&opts.input, "in", "i", "examples/demo.riskgrid", "段落输入文件（.riskgrid 或 .json）")
	flag.StringVarP(&opts.output, "out", "o", "output/report.pdf", "PDF 输出路径")
	flag.StringVarP(&opts.config, "config", "c", "", "YAML 配置文件路径")
	flag.StringVar(&opts.logo, "logo", "", "logo 图片路径或 http(s) 地址")
	flag.StringVar(&opts.debug, "debug", "", "布局调试 JSON 输出路径")
	flag.IntVar(&opts.section, "section", 0, "仅导出第 N 个段落（从 1 开始）")
	flag.BoolVarP(&opts.verbose, "verbose", "v", false, "输出分页决策等调试日志")
	flag.Parse()

	level := log.InfoLevel
	if opts.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Fatal("生成 PDF 失败", "err", err)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联输入解析、布局与渲染。
func run(ctx context.Context, opts cliOptions, logger *log.Logger) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}

	doc, err := parseInput(opts.input)
	if err != nil {
		return err
	}
	sections := layout.SectionsFromDocument(doc)
	if opts.section > 0 {
		sec, err := report.SelectSection(sections, opts.section)
		if err != nil {
			return err
		}
		sections = []layout.Section{report.SingleSection(sec)}
	}

	genOpts := report.Options{
		Config:   cfg,
		Logo:     loadLogo(ctx, opts.logo, logger),
		Renderer: canvasrenderer.NewRenderer(filepath.Dir(opts.input)),
		Logger:   logger,
		Meta:     layout.MetaFromDocument(doc, cfg.Text.Creator),
	}

	if opts.debug != "" {
		res, err := report.Build(ctx, sections, genOpts)
		if err != nil {
			return err
		}
		if err := layout.WriteDebugJSON(res, opts.debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
		logger.Debug("已写入调试 JSON", "path", opts.debug)
	}

	// 单段导出的标题已在上面转为大写，调试 JSON 与 PDF 使用同一份段落。
	pdfBytes, err := report.Generate(ctx, sections, genOpts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

// loadLogo 只读取一次 logo，调试输出与 PDF 共用同一份字节；失败时不含 logo 继续生成。
func loadLogo(ctx context.Context, src string, logger *log.Logger) logo.Loader {
	loader := logo.FromSource(src)
	if loader == nil {
		return nil
	}
	data, err := loader.Load(ctx)
	if err != nil {
		logger.Warn("logo 加载失败，报告将不含 logo", "src", src, "err", err)
		return nil
	}
	return logo.Bytes(data)
}

// parseInput 按扩展名选择 JSON 或 .riskgrid 解析。
func parseInput(path string) (*dsl.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开输入文件 %s: %w", path, err)
	}
	defer file.Close()

	var parse func(io.Reader) (*dsl.Document, error) = dsl.Parse
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parse = dsl.ParseJSON
	}
	doc, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析输入 %s 失败: %w", path, err)
	}
	return doc, nil
}

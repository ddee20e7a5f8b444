package renderer

import "github.com/ByLCY/riskgrid/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// TypesettingRenderer 同时负责测量与折行。分页前必须按最终输出字体测量，
// 否则行数与实际绘制不一致，因此报告生成优先使用此类渲染器。
type TypesettingRenderer interface {
	Renderer
	layout.Typesetter
}

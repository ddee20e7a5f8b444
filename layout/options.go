package layout

import (
	"io"

	"github.com/charmbracelet/log"
)

// BuildOptions 配置分页阶段所需的依赖，例如排版后端与 logo 数据。
type BuildOptions struct {
	Typesetter Typesetter
	Config     Config
	// Logo 为 logo 图片的编码字节；为空表示不绘制图片。
	Logo   []byte
	Meta   DocumentMeta
	Logger *log.Logger
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// width <= 0 表示不限宽度；wrap 取值 anywhere(默认)/break-word/nowrap。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

func (o BuildOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

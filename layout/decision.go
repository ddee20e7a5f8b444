package layout

import "math"

const defaultMinSplitLines = 3

// RowMetrics 为行高模型与分页决策使用的常量（mm）。
type RowMetrics struct {
	HeaderHeight  float64
	TopPadding    float64
	BottomPadding float64
	LineHeight    float64
	MinSplitLines int
}

// Overhead 为一行除内容行外的固定高度 H+Tp+Bp。
func (m RowMetrics) Overhead() float64 {
	return m.HeaderHeight + m.TopPadding + m.BottomPadding
}

// RowHeight 返回左右两列中较多行数决定的整行高度。
func (m RowMetrics) RowHeight(linesLeft, linesRight int) float64 {
	return float64(max(linesLeft, linesRight))*m.LineHeight + m.Overhead()
}

// MinSplitHeight 为值得拆分时剩余空间的下限：标题格加若干内容行。
func (m RowMetrics) MinSplitHeight() float64 {
	n := m.MinSplitLines
	if n <= 0 {
		n = defaultMinSplitLines
	}
	return m.HeaderHeight + m.TopPadding + float64(n)*m.LineHeight
}

// DecisionKind 标识一行的分页处理方式。
type DecisionKind int

const (
	// Fit 整行放在当前位置。
	Fit DecisionKind = iota
	// Split 当前页放前 LinesFit 行，其余行带重复标题放到下一页。
	Split
	// Jump 整行移到下一页。
	Jump
)

func (k DecisionKind) String() string {
	switch k {
	case Fit:
		return "fit"
	case Split:
		return "split"
	case Jump:
		return "jump"
	default:
		return "unknown"
	}
}

// RowDecision 为 Decide 的结果，仅 Split 时 LinesFit 有意义。
type RowDecision struct {
	Kind     DecisionKind
	LinesFit int
}

// Decide 根据整行高度与当前页剩余空间选择 Fit/Split/Jump，不依赖绘图表面。
func Decide(rowHeight, spaceLeft float64, m RowMetrics) RowDecision {
	if rowHeight <= spaceLeft {
		return RowDecision{Kind: Fit}
	}
	if spaceLeft > m.MinSplitHeight() {
		// 浮点误差下 22/5 之类的商可能略小于整数，补一个极小量再取整。
		fit := math.Floor((spaceLeft-m.HeaderHeight-m.TopPadding)/m.LineHeight + 1e-9)
		return RowDecision{Kind: Split, LinesFit: int(fit)}
	}
	return RowDecision{Kind: Jump}
}

// SplitLines 在 at 处切分，at 超出长度时前半段取全部、后半段为空。
// 两段拼接始终等于原切片。
func SplitLines(lines []string, at int) (head, tail []string) {
	if at < 0 {
		at = 0
	}
	if at > len(lines) {
		at = len(lines)
	}
	return lines[:at:at], lines[at:]
}

package layout

import (
	"errors"
	"reflect"
	"testing"
)

func defaultMetrics() RowMetrics { return DefaultConfig().Row.Metrics() }

func TestRowHeightUsesTallerColumn(t *testing.T) {
	m := defaultMetrics()
	if got := m.RowHeight(10, 6); got != 70 {
		t.Fatalf("期望 70，实际 %g", got)
	}
	if got := m.RowHeight(0, 0); got != 20 {
		t.Fatalf("空行应只含固定高度 20，实际 %g", got)
	}
	if got := m.MinSplitHeight(); got != 33 {
		t.Fatalf("期望 33，实际 %g", got)
	}
}

func TestDecideScenarios(t *testing.T) {
	m := defaultMetrics()
	cases := []struct {
		name      string
		rowHeight float64
		spaceLeft float64
		want      RowDecision
	}{
		{"jump when too little space", 70, 17, RowDecision{Kind: Jump}},
		{"fit", 45, 242, RowDecision{Kind: Fit}},
		{"fit exactly", 45, 45, RowDecision{Kind: Fit}},
		{"split", 70, 40, RowDecision{Kind: Split, LinesFit: 4}},
		{"boundary jumps", 70, 33, RowDecision{Kind: Jump}},
		{"just above boundary", 70, 33.5, RowDecision{Kind: Split, LinesFit: 3}},
		{"float quotient", 70, 40.000000000001, RowDecision{Kind: Split, LinesFit: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.rowHeight, tc.spaceLeft, m); got != tc.want {
				t.Fatalf("期望 %+v，实际 %+v", tc.want, got)
			}
		})
	}
}

func TestMinSplitLinesDefaultsToThree(t *testing.T) {
	m := defaultMetrics()
	m.MinSplitLines = 0
	if got := m.MinSplitHeight(); got != 33 {
		t.Fatalf("MinSplitLines<=0 应按 3 行计算，实际 %g", got)
	}
	m.MinSplitLines = 5
	if got := m.MinSplitHeight(); got != 43 {
		t.Fatalf("期望 43，实际 %g", got)
	}
	if got := Decide(70, 40, m); got.Kind != Jump {
		t.Fatalf("提高最少行数后应跳页，实际 %s", got.Kind)
	}
}

func TestSplitLines(t *testing.T) {
	lines := []string{"a", "b", "c"}
	for _, at := range []int{-1, 0, 2, 3, 9} {
		head, tail := SplitLines(lines, at)
		if got := append(append([]string{}, head...), tail...); !reflect.DeepEqual(got, lines) {
			t.Fatalf("at=%d 拼接后不等于原内容: %v", at, got)
		}
	}
	head, tail := SplitLines(lines, 9)
	if len(head) != 3 || len(tail) != 0 {
		t.Fatalf("超出长度时后半段应为空")
	}
	head, _ = SplitLines(lines, 1)
	head = append(head, "x")
	if lines[1] != "b" {
		t.Fatalf("向前半段追加不应改写原切片")
	}
}

func TestDecisionKindString(t *testing.T) {
	if Fit.String() != "fit" || Split.String() != "split" || Jump.String() != "jump" || DecisionKind(9).String() != "unknown" {
		t.Fatalf("决策名称不符")
	}
}

func TestValidateRejectsNarrowColumns(t *testing.T) {
	cases := map[string]func(*Config){
		"negative margin":       func(c *Config) { c.Page.Margin = -1 },
		"cell inset too wide":   func(c *Config) { c.Row.CellInset = 45 },
		"header inset too wide": func(c *Config) { c.Row.HeaderInset = 50 },
		"margin eats columns":   func(c *Config) { c.Page.Margin = 98 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("期望 ErrInvalidConfig，实际 %v", err)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("默认配置应合法: %v", err)
	}
}

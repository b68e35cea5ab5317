package session

import (
	"math"

	"github.com/ByLCY/memecanvas/layout"
)

// BoxSizer 给出文本框在容器中的显示尺寸，用于创建时居中和拖动夹紧。
type BoxSizer interface {
	BoxSize(box layout.TextBox) (width, height float64)
}

// FixedSizer 对所有文本框返回同一尺寸。
type FixedSizer struct {
	Width, Height float64
}

func (f FixedSizer) BoxSize(layout.TextBox) (float64, float64) { return f.Width, f.Height }

// MeasuredSizer 按文字实际宽度估算显示尺寸：最长一行加两侧内边距，高度为行数乘行高加内边距。
type MeasuredSizer struct {
	Measurer layout.Measurer
	Family   string
}

func (m MeasuredSizer) BoxSize(box layout.TextBox) (float64, float64) {
	scene := layout.Scene{Family: m.Family}
	font := scene.Font(box.FontSize)
	lines := layout.Wrap(m.Measurer, font, box.Text, math.Inf(1))

	var widest float64
	for _, line := range lines {
		widest = math.Max(widest, m.Measurer.MeasureText(font, line))
	}
	lineHeight := float64(box.FontSize) * layout.LineHeightFactor
	return widest + 2*layout.Padding, float64(len(lines))*lineHeight + 2*layout.Padding
}

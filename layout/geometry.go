package layout

import "math"

// 排版常量（单位 px）。
const (
	Padding            = 12.0
	MinBoxWidth        = 80.0
	MinLineWidth       = 40.0
	FallbackWidthRatio = 0.9
	LineHeightFactor   = 1.2

	DefaultFamily = "Go"
	DefaultStyle  = "bold"
)

// ResolveGeometry 计算文本框在画布上的原点与宽度。
// live 非空时以实时矩形的位置与宽度为准，否则使用保存的 X/Y 与解析估算宽度。
// 宽度最终夹紧到 [MinBoxWidth, canvasWidth-2*Padding]，下限优先。
func ResolveGeometry(box TextBox, live *Rect, canvasWidth, canvasHeight float64) Geometry {
	maxWidth := canvasWidth - 2*Padding
	width := math.Min(maxWidth, canvasWidth*FallbackWidthRatio)
	originX, originY := box.X, box.Y
	if live != nil {
		originX, originY = live.X, live.Y
		if live.Width > 0 {
			width = live.Width
		}
	}
	return Geometry{
		OriginX:  originX,
		OriginY:  originY,
		BoxWidth: math.Max(MinBoxWidth, math.Min(maxWidth, width)),
	}
}

// clampRange 与 max(lo, min(v, hi)) 等价：区间为空时取下限。
func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

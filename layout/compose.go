package layout

import "math"

// Compose 计算场景中每个文本框的排版结果（按插入顺序，即绘制顺序）。
// 空文本的文本框被跳过。结果只依赖输入，多次调用完全一致。
func Compose(scene *Scene, m Measurer) []Caption {
	if scene == nil || m == nil {
		return nil
	}
	provider := scene.Layout
	if provider == nil {
		provider = AnalyticLayout{}
	}
	canvasW, canvasH := float64(scene.Width), float64(scene.Height)

	captions := make([]Caption, 0, len(scene.Boxes))
	for _, box := range scene.Boxes {
		if box.Text == "" {
			continue
		}
		var live *Rect
		if r, ok := provider.BoxRect(box.ID); ok {
			live = &r
		}
		geo := ResolveGeometry(box, live, canvasW, canvasH)
		font := scene.Font(box.FontSize)

		lineWidth := math.Max(MinLineWidth, geo.BoxWidth-2*Padding)
		lines := Wrap(m, font, box.Text, lineWidth)

		lineHeight := float64(box.FontSize) * LineHeightFactor
		totalHeight := math.Max(lineHeight, float64(len(lines))*lineHeight)

		halfW, halfH := geo.BoxWidth/2, totalHeight/2
		centerX := clampRange(geo.OriginX+halfW, halfW+Padding, canvasW-halfW-Padding)
		centerY := clampRange(geo.OriginY+halfH, halfH+Padding, canvasH-halfH-Padding)

		captions = append(captions, Caption{
			BoxID:       box.ID,
			Font:        font,
			Geometry:    geo,
			Lines:       lines,
			LineHeight:  lineHeight,
			TotalHeight: totalHeight,
			CenterX:     centerX,
			CenterY:     centerY,
		})
	}
	return captions
}

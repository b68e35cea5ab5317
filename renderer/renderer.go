package renderer

import (
	"image"

	"github.com/ByLCY/memecanvas/layout"
)

// Renderer 将场景合成为像素画布。每次调用都重新生成，不修改已有结果。
// 同一场景多次渲染必须得到逐字节相同的像素。
type Renderer interface {
	layout.Measurer
	Render(scene *layout.Scene) (*image.RGBA, error)
}

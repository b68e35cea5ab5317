package layout

import (
	"errors"
	"image"
)

// ErrInvalidInput 表示空文本或未加载底图等无效输入。会话操作遇到它时静默忽略。
var ErrInvalidInput = errors.New("layout: invalid input")

// Measurer 负责测量文本宽度（px）。实现必须与最终绘制使用同一字体参数。
type Measurer interface {
	MeasureText(font FontSpec, text string) float64
}

// LayoutProvider 提供文本框的实时显示矩形。拿不到时返回 false，合成器退回解析估算。
type LayoutProvider interface {
	BoxRect(id int) (Rect, bool)
}

// AnalyticLayout never has live geometry; every box uses the analytic fallback width.
type AnalyticLayout struct{}

func (AnalyticLayout) BoxRect(int) (Rect, bool) { return Rect{}, false }

// StaticLayout 是按文本框 ID 保存的固定矩形表，用于脚本、测试和无界面渲染。
type StaticLayout map[int]Rect

func (s StaticLayout) BoxRect(id int) (Rect, bool) {
	r, ok := s[id]
	return r, ok
}

// ImageLoader 根据脚本中的 src 加载底图。
type ImageLoader func(src string) (image.Image, error)

// BuildOptions 配置脚本构建阶段所需的依赖。
type BuildOptions struct {
	LoadImage ImageLoader
}

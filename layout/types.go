package layout

// 该文件定义场景、文本框与排版结果，供会话、合成器、渲染器与调试 JSON 共用。

import (
	"fmt"
	"image"
)

// Point 是容器像素坐标系中的一个点（或向量）。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect 描述文本框在容器内的实际显示矩形（相对容器左上角）。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FontSpec 描述测量与绘制共用的字体参数，二者必须完全一致。
type FontSpec struct {
	Family string  `json:"family"`
	Style  string  `json:"style"`
	Size   float64 `json:"size"` // px
}

// String 返回 CSS 风格的字体描述，例如 "bold 48px Go"。
func (f FontSpec) String() string {
	return fmt.Sprintf("%s %gpx %s", f.Style, f.Size, f.Family)
}

// Image 是解码后的底图。宽高为原始像素；Display* 为预览画布尺寸，在加载时计算一次。
type Image struct {
	Source        image.Image `json:"-"`
	Src           string      `json:"src,omitempty"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	DisplayWidth  int         `json:"displayWidth"`
	DisplayHeight int         `json:"displayHeight"`
}

// NewImage wraps a decoded image and computes its preview size.
func NewImage(img image.Image, src string) *Image {
	b := img.Bounds()
	w, h := FitPreview(b.Dx(), b.Dy())
	return &Image{
		Source:        img,
		Src:           src,
		Width:         b.Dx(),
		Height:        b.Dy(),
		DisplayWidth:  w,
		DisplayHeight: h,
	}
}

// TextBox 表示一个可拖动的文字框，坐标为容器像素坐标。
type TextBox struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	FontSize   int     `json:"fontSize"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Dragging   bool    `json:"isDragging,omitempty"`
	DragOffset Point   `json:"dragOffset"`
}

// Scene 是一次合成所需的全部输入：底图、按插入顺序排列的文本框与目标画布尺寸。
type Scene struct {
	Image  *Image         `json:"image"`
	Boxes  []TextBox      `json:"boxes"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Family string         `json:"family,omitempty"`
	Layout LayoutProvider `json:"-"`
}

// Font returns the font used both to measure and to draw a box of the given size.
func (s *Scene) Font(size int) FontSpec {
	family := s.Family
	if family == "" {
		family = DefaultFamily
	}
	return FontSpec{Family: family, Style: DefaultStyle, Size: float64(size)}
}

// Geometry 是解析后的文本框几何信息（画布像素）。
type Geometry struct {
	OriginX  float64 `json:"originX"`
	OriginY  float64 `json:"originY"`
	BoxWidth float64 `json:"boxWidth"`
}

// Caption 是单个文本框排版完成后的结果：已换行的行、行高与夹紧后的中心点。
type Caption struct {
	BoxID       int      `json:"boxId"`
	Font        FontSpec `json:"font"`
	Geometry    Geometry `json:"geometry"`
	Lines       []string `json:"lines"`
	LineHeight  float64  `json:"lineHeight"`
	TotalHeight float64  `json:"totalHeight"`
	CenterX     float64  `json:"centerX"`
	CenterY     float64  `json:"centerY"`
}

// LineY 返回第 i 行的垂直中心（middle 基线）。
func (c Caption) LineY(i int) float64 {
	return c.CenterY - c.TotalHeight/2 + c.LineHeight/2 + float64(i)*c.LineHeight
}

package canvasrenderer

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/memecanvas/fonts"
	"github.com/ByLCY/memecanvas/layout"
	"github.com/ByLCY/memecanvas/renderer"
)

// Caption stroke parameters. Round joins make the miter limit of 2 irrelevant, so the
// joiner alone carries it.
const (
	strokeWidth = 4.0

	// One canvas unit is one output pixel: the canvas is laid out in "millimetres" and
	// rasterized at 1 dot per millimetre. Font sizes are in points, hence the conversion.
	ptPerPx = 72.0 / 25.4
)

var (
	strokeColor = canvas.Black
	fillColor   = canvas.White
)

// Renderer composites captions onto images via github.com/tdewolff/canvas.
type Renderer struct {
	fontBlobs map[string][]byte // injected font bytes by family name
	fontErrs  map[string]error  // families whose Path could not be read

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	Fonts map[string]Resource // extra families, registered under their map key
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer that only knows the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs:    map[string][]byte{},
		fontErrs:     map[string]error{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				r.fontErrs[name] = fmt.Errorf("读取字体 %s 失败: %w", res.Path, err)
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// MeasureText implements layout.Measurer with the same face used for drawing.
func (r *Renderer) MeasureText(font layout.FontSpec, text string) float64 {
	face, err := r.fontFace(font)
	if err != nil {
		// 字体不可用时只做估算，Render 会把同一个错误返回给调用方
		return float64(utf8.RuneCountInString(text)) * font.Size * 0.6
	}
	return face.TextWidth(text)
}

// Render draws the scene image scaled to fill scene.Width×scene.Height, then every
// caption in insertion order: black outline first, white fill on top.
func (r *Renderer) Render(scene *layout.Scene) (*image.RGBA, error) {
	if scene == nil || scene.Image == nil || scene.Image.Source == nil {
		return nil, fmt.Errorf("渲染场景缺少底图")
	}
	if scene.Width <= 0 || scene.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", scene.Width, scene.Height)
	}

	surface := image.NewRGBA(image.Rect(0, 0, scene.Width, scene.Height))
	src := scene.Image.Source
	xdraw.CatmullRom.Scale(surface, surface.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	captions := layout.Compose(scene, r)
	if len(captions) == 0 {
		return surface, nil
	}

	c := canvas.New(float64(scene.Width), float64(scene.Height))
	ctx := canvas.NewContext(c)
	for _, caption := range captions {
		if err := r.drawCaption(ctx, caption, float64(scene.Height)); err != nil {
			return nil, err
		}
	}

	overlay := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	draw.Draw(surface, surface.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
	return surface, nil
}

// drawCaption 按 middle 基线居中绘制每一行：先描边再填充。
// 排版坐标以左上角为原点、y 向下；canvas 默认 y 向上，这里逐行翻转。
func (r *Renderer) drawCaption(ctx *canvas.Context, caption layout.Caption, height float64) error {
	face, err := r.fontFace(caption.Font)
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	middle := (metrics.Ascent - math.Abs(metrics.Descent)) / 2

	for i, line := range caption.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		path, _, err := face.ToPath(line)
		if err != nil {
			return fmt.Errorf("生成文字轮廓失败 %q: %w", line, err)
		}
		x := caption.CenterX - face.TextWidth(line)/2
		baseline := caption.LineY(i) + middle
		y := height - baseline

		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(strokeColor)
		ctx.SetStrokeWidth(strokeWidth)
		ctx.SetStrokeJoiner(canvas.RoundJoin)
		ctx.SetStrokeCapper(canvas.RoundCap)
		ctx.DrawPath(x, y, path)

		ctx.SetStrokeColor(canvas.Transparent)
		ctx.SetFillColor(fillColor)
		ctx.DrawPath(x, y, path)
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontSpec) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(font.Size*ptPerPx, fillColor, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontSpec) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}
	// 配置了路径却读不到时报错，不静默换成内置字体
	if err, ok := r.fontErrs[font.Family]; ok {
		return nil, canvas.FontRegular, err
	}

	style := parseFontStyle(font.Style)
	family := canvas.NewFontFamily(font.Family)
	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbErr := r.fallback(style)
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: style}
		return fallback, style, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontSpec, style canvas.FontStyle) error {
	data, ok := r.fontBlobs[font.Family]
	if !ok {
		var err error
		data, err = fonts.Load(fonts.Key(font.Family, font.Style))
		if err != nil {
			return err
		}
	}
	return family.LoadFont(data, 0, style)
}

// fallback loads the built-in bold face under the requested style so that
// Face lookups with that style resolve.
func (r *Renderer) fallback(style canvas.FontStyle) (*canvas.FontFamily, error) {
	data, err := fonts.Load(fonts.Fallback)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("memecanvas-fallback")
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, err
	}
	return family, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontSpec) string {
	return font.Family + "|" + strings.ToLower(font.Style)
}

package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/memecanvas/layout"
)

func greyScene(w, h int, boxes ...layout.TextBox) *layout.Scene {
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.RGBA{128, 128, 128, 255}}, image.Point{}, draw.Src)
	img := layout.NewImage(src, "grey")
	return &layout.Scene{
		Image:  img,
		Boxes:  boxes,
		Width:  img.DisplayWidth,
		Height: img.DisplayHeight,
	}
}

func TestMeasureTextUsesFontSize(t *testing.T) {
	r := NewRenderer()
	small := layout.FontSpec{Family: layout.DefaultFamily, Style: layout.DefaultStyle, Size: 24}
	big := small
	big.Size = 48

	w1 := r.MeasureText(small, "HELLO")
	w2 := r.MeasureText(big, "HELLO")
	if w1 <= 0 || w2 <= w1 {
		t.Fatalf("expected width to grow with size: %g -> %g", w1, w2)
	}
	if r.MeasureText(big, "") != 0 {
		t.Fatalf("empty text must measure 0")
	}
	if whole := r.MeasureText(big, "HELLO WORLD"); whole <= w2 {
		t.Fatalf("longer text must be wider: %g <= %g", whole, w2)
	}
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	r := NewRenderer()
	font := layout.FontSpec{Family: "Impact", Style: "bold", Size: 48}
	if w := r.MeasureText(font, "HELLO"); w <= 0 {
		t.Fatalf("fallback face should measure text, got %g", w)
	}
}

func TestMissingFontPathFailsLoudly(t *testing.T) {
	r := NewRendererWithOptions(Options{Fonts: map[string]Resource{
		"Typo": {Path: "does/not/exist.ttf"},
	}})
	font := layout.FontSpec{Family: "Typo", Style: "bold", Size: 48}
	if _, err := r.fontFace(font); err == nil {
		t.Fatalf("expected an error for an unreadable font path")
	}

	scene := greyScene(600, 400, layout.TextBox{ID: 0, Text: "HELLO", FontSize: 48})
	scene.Family = "Typo"
	if _, err := r.Render(scene); err == nil {
		t.Fatalf("render must report the unreadable font")
	}
}

func TestComposeWithRealFontWrapsHelloWorld(t *testing.T) {
	r := NewRenderer()
	scene := greyScene(600, 400, layout.TextBox{ID: 0, Text: "HELLO WORLD", FontSize: 48, X: 20, Y: 20})
	scene.Layout = layout.StaticLayout{0: {X: 20, Y: 20, Width: 300, Height: 60}}

	captions := layout.Compose(scene, r)
	if len(captions) != 1 {
		t.Fatalf("expected 1 caption, got %d", len(captions))
	}
	lines := captions[0].Lines
	if len(lines) != 2 || lines[0] != "HELLO" || lines[1] != "WORLD" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if want := 2 * captions[0].LineHeight; math.Abs(captions[0].TotalHeight-want) > 1e-9 {
		t.Fatalf("unexpected total height %g", captions[0].TotalHeight)
	}
}

// 200px 的框里 Go Bold 48 的 "WORLD" 单独也放不下 176px，只能按字符拆开。
func TestComposeWithRealFontNarrowBoxBreaksWord(t *testing.T) {
	r := NewRenderer()
	scene := greyScene(600, 400, layout.TextBox{ID: 0, Text: "HELLO WORLD", FontSize: 48, X: 20, Y: 20})
	scene.Layout = layout.StaticLayout{0: {X: 20, Y: 20, Width: 200, Height: 60}}

	captions := layout.Compose(scene, r)
	if len(captions) != 1 {
		t.Fatalf("expected 1 caption, got %d", len(captions))
	}
	lines := captions[0].Lines
	if len(lines) != 3 || lines[0] != "HELLO" || lines[1] != "WORL" || lines[2] != "D" {
		t.Fatalf("unexpected lines: %q", lines)
	}
	limit := captions[0].Geometry.BoxWidth - 2*layout.Padding
	for _, line := range lines {
		if w := r.MeasureText(captions[0].Font, line); w > limit {
			t.Fatalf("line %q is %g wide, limit %g", line, w, limit)
		}
	}
}

func TestRenderSurfaceMatchesScene(t *testing.T) {
	r := NewRenderer()
	scene := greyScene(1000, 1000)
	out, err := r.Render(scene)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out.Bounds().Dx() != 600 || out.Bounds().Dy() != 600 {
		t.Fatalf("unexpected surface %v", out.Bounds())
	}
	if got := out.RGBAAt(300, 300); got.A != 255 || got.R < 125 || got.R > 131 {
		t.Fatalf("base image not drawn, got %v", got)
	}
}

func TestRenderDrawsOutlinedWhiteText(t *testing.T) {
	r := NewRenderer()
	scene := greyScene(600, 400, layout.TextBox{ID: 0, Text: "MEME", FontSize: 72, X: 100, Y: 100})
	out, err := r.Render(scene)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var white, dark int
	for y := 0; y < out.Bounds().Dy(); y++ {
		for x := 0; x < out.Bounds().Dx(); x++ {
			c := out.RGBAAt(x, y)
			switch {
			case c.R > 245 && c.G > 245 && c.B > 245:
				white++
			case c.R < 40 && c.G < 40 && c.B < 40:
				dark++
			}
		}
	}
	if white == 0 || dark == 0 {
		t.Fatalf("expected white fill and black outline, white=%d dark=%d", white, dark)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer()
	scene := greyScene(640, 480,
		layout.TextBox{ID: 0, Text: "TOP TEXT", FontSize: 48, X: 10, Y: 10},
		layout.TextBox{ID: 1, Text: "BOTTOM\nTEXT", FontSize: 36, X: 200, Y: 380},
	)
	first, err := r.Render(scene)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := NewRenderer().Render(scene)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Fatalf("rendering the same scene twice must be pixel identical")
	}
}

func TestRenderRejectsMissingImage(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(&layout.Scene{Width: 10, Height: 10}); err == nil {
		t.Fatalf("expected error without base image")
	}
	scene := greyScene(10, 10)
	scene.Width = 0
	if _, err := r.Render(scene); err == nil {
		t.Fatalf("expected error for empty surface")
	}
}

func TestParseFontStyle(t *testing.T) {
	if parseFontStyle("bold") != canvas.FontBold {
		t.Fatalf("bold should map to FontBold")
	}
	if parseFontStyle("Bold Italic")&canvas.FontItalic == 0 {
		t.Fatalf("italic flag missing")
	}
}

package layout

import (
	"math"
	"reflect"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < eps }

func TestResolveGeometryFallbackWidth(t *testing.T) {
	geo := ResolveGeometry(TextBox{X: 15, Y: 25}, nil, 600, 400)
	// min(600-24, 600*0.9) = 540
	if !almostEqual(geo.BoxWidth, 540) || geo.OriginX != 15 || geo.OriginY != 25 {
		t.Fatalf("unexpected fallback geometry: %+v", geo)
	}
}

func TestResolveGeometryPrefersLiveRect(t *testing.T) {
	live := &Rect{X: 40, Y: 50, Width: 200, Height: 70}
	geo := ResolveGeometry(TextBox{X: 1, Y: 2}, live, 600, 400)
	if geo.OriginX != 40 || geo.OriginY != 50 || geo.BoxWidth != 200 {
		t.Fatalf("live rect must win: %+v", geo)
	}
}

func TestResolveGeometryClampsWidth(t *testing.T) {
	cases := []struct {
		name    string
		live    *Rect
		canvasW float64
		want    float64
	}{
		{"narrow live box", &Rect{Width: 20}, 600, MinBoxWidth},
		{"wide live box", &Rect{Width: 5000}, 600, 600 - 2*Padding},
		{"zero live width falls back", &Rect{Width: 0}, 600, 540},
		{"tiny canvas keeps minimum", nil, 50, MinBoxWidth},
	}
	for _, tc := range cases {
		geo := ResolveGeometry(TextBox{}, tc.live, tc.canvasW, 300)
		if !almostEqual(geo.BoxWidth, tc.want) {
			t.Fatalf("%s: width=%g want=%g", tc.name, geo.BoxWidth, tc.want)
		}
	}
}

func helloScene() *Scene {
	return &Scene{
		Width:  600,
		Height: 600,
		Boxes: []TextBox{
			{ID: 0, Text: "HELLO WORLD", FontSize: 48, X: 10, Y: 20},
		},
		Layout: StaticLayout{0: {X: 10, Y: 20, Width: 200}},
	}
}

func TestComposeCentersAndClamps(t *testing.T) {
	caps := Compose(helloScene(), &stubMeasurer{})
	if len(caps) != 1 {
		t.Fatalf("expected one caption, got %d", len(caps))
	}
	c := caps[0]
	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", c.Lines)
	}
	if !almostEqual(c.LineHeight, 57.6) || !almostEqual(c.TotalHeight, 115.2) {
		t.Fatalf("unexpected line metrics: %g %g", c.LineHeight, c.TotalHeight)
	}
	// 原始中心 x=110，低于 100+12，被夹紧到 112
	if !almostEqual(c.CenterX, 112) {
		t.Fatalf("centerX=%g want 112", c.CenterX)
	}
	if !almostEqual(c.CenterY, 77.6) {
		t.Fatalf("centerY=%g want 77.6", c.CenterY)
	}
	if !almostEqual(c.LineY(0), 48.8) || !almostEqual(c.LineY(1), 106.4) {
		t.Fatalf("unexpected line positions: %g %g", c.LineY(0), c.LineY(1))
	}
	if c.Font.String() != "bold 48px Go" {
		t.Fatalf("unexpected font: %s", c.Font)
	}
}

func TestComposeClampsToFarEdge(t *testing.T) {
	scene := &Scene{
		Width:  400,
		Height: 300,
		Boxes:  []TextBox{{ID: 3, Text: "BOTTOM", FontSize: 20, X: 5000, Y: 5000}},
	}
	c := Compose(scene, &stubMeasurer{})[0]
	// 解析宽度 min(376, 360) = 360
	if !almostEqual(c.CenterX, 400-180-Padding) {
		t.Fatalf("centerX=%g", c.CenterX)
	}
	if !almostEqual(c.CenterY, 300-12-Padding) {
		t.Fatalf("centerY=%g", c.CenterY)
	}
}

func TestComposeSkipsEmptyTextAndKeepsOrder(t *testing.T) {
	scene := &Scene{
		Width:  300,
		Height: 300,
		Boxes: []TextBox{
			{ID: 4, Text: "top", FontSize: 20},
			{ID: 5, Text: "", FontSize: 20},
			{ID: 6, Text: "bottom", FontSize: 20, Y: 200},
		},
	}
	caps := Compose(scene, &stubMeasurer{})
	if len(caps) != 2 || caps[0].BoxID != 4 || caps[1].BoxID != 6 {
		t.Fatalf("unexpected captions: %+v", caps)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	a := Compose(helloScene(), &stubMeasurer{})
	b := Compose(helloScene(), &stubMeasurer{})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("compose must be deterministic")
	}
}

func TestComposeNilInputs(t *testing.T) {
	if Compose(nil, &stubMeasurer{}) != nil {
		t.Fatalf("nil scene should compose to nothing")
	}
	if Compose(helloScene(), nil) != nil {
		t.Fatalf("nil measurer should compose to nothing")
	}
}

package layout

import (
	"math"
	"strconv"
	"strings"
)

// This file holds the size helpers shared by the session and the script builder.

// Preview bounds and font size domain, in pixels.
const (
	MaxPreviewWidth  = 800
	MaxPreviewHeight = 600

	MinFontSize     = 12
	MaxFontSize     = 120
	DefaultFontSize = 48
)

// FitPreview scales (w, h) down to fit MaxPreviewWidth×MaxPreviewHeight while keeping
// the aspect ratio. Images that already fit are never scaled up.
func FitPreview(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= MaxPreviewWidth && h <= MaxPreviewHeight {
		return w, h
	}
	scale := math.Min(float64(MaxPreviewWidth)/float64(w), float64(MaxPreviewHeight)/float64(h))
	// 画布尺寸按整数截断；加极小量抵消 0.6*1000 之类的浮点误差。
	return int(math.Floor(float64(w)*scale + 1e-9)), int(math.Floor(float64(h)*scale + 1e-9))
}

// ClampFontSize limits n to [MinFontSize, MaxFontSize].
func ClampFontSize(n int) int {
	if n < MinFontSize {
		return MinFontSize
	}
	if n > MaxFontSize {
		return MaxFontSize
	}
	return n
}

// ParseFontSize parses a numeric-field input. Like an HTML number field it reads the
// leading integer ("36px" -> 36). Input without a leading integer returns current
// unchanged; anything parsed is clamped.
func ParseFontSize(input string, current int) int {
	s := strings.TrimSpace(input)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return current
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// 超出 int 范围的数字仍按方向夹紧
		if strings.HasPrefix(s, "-") {
			return MinFontSize
		}
		return MaxFontSize
	}
	return ClampFontSize(n)
}

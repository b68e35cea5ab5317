package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// builtin 内置字体，键为 "<family>-<Style>"。
var builtin = map[string][]byte{
	"Go-Regular":    goregular.TTF,
	"Go-Bold":       gobold.TTF,
	"Go-BoldItalic": gobolditalic.TTF,
	"GoMono-Bold":   gomonobold.TTF,
}

// Fallback 是找不到字体时使用的内置字体。
const Fallback = "Go-Bold"

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"。
func Load(name string) ([]byte, error) {
	clean := strings.TrimPrefix(name, "embed:")
	data, ok := builtin[clean]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", clean)
	}
	return data, nil
}

// Key 根据字体族与样式生成内置字体名，例如 ("Go", "bold") -> "Go-Bold"。
func Key(family, style string) string {
	s := strings.ToLower(strings.TrimSpace(style))
	var suffix string
	switch {
	case strings.Contains(s, "bold") && (strings.Contains(s, "italic") || strings.Contains(s, "oblique")):
		suffix = "BoldItalic"
	case strings.Contains(s, "bold"):
		suffix = "Bold"
	default:
		suffix = "Regular"
	}
	return family + "-" + suffix
}

// Names 列出全部内置字体名（已排序）。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

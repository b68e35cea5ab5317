package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholder matches ${path} and ${path | filter}.
var placeholder = regexp.MustCompile(`\$\{\s*([^}|]+?)\s*(?:\|\s*([A-Za-z]+)\s*)?\}`)

// Interpolate 把 caption 文本中的 ${path.to.value} 替换为 data 中对应的值，
// 支持 upper/lower 过滤器，例如 ${user.name | upper}。路径不存在时保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		val, ok := Lookup(data, groups[1])
		if !ok {
			return match
		}
		return applyFilter(fmt.Sprint(val), groups[2])
	})
}

// Lookup resolves a dotted path such as "items.0.name" against decoded JSON data.
func Lookup(data any, path string) (any, bool) {
	current := data
	for _, key := range strings.Split(path, ".") {
		if key == "" {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func applyFilter(s, filter string) string {
	switch strings.ToLower(filter) {
	case "upper":
		return strings.ToUpper(s)
	case "lower":
		return strings.ToLower(s)
	default:
		return s
	}
}

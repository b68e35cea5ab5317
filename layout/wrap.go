package layout

import (
	"math"
	"strings"
)

// Wrap 使用贪心算法把 text 拆成不超过 maxWidth 的行。
// 显式换行划分段落，空段落输出一个空行；单个超宽单词按字符拆分。
// 非空段落之间不插入间隔行："a\nb" 得到 ["a","b"]，"a\n\nb" 得到 ["a","","b"]。
// 若要在每个换行后都加一行间隔，"a\n\nb" 就会变成 4 行，与空段落只占一行的规则冲突，
// 因此需要间隔时请显式写空行。
// 结果至少包含一行，空输入返回一个空行。
func Wrap(m Measurer, font FontSpec, text string, maxWidth float64) []string {
	limit := math.Max(MinLineWidth, maxWidth)
	measure := func(s string) float64 { return m.MeasureText(font, s) }

	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(measure, paragraph, limit)...)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func wrapParagraph(measure func(string) float64, paragraph string, limit float64) []string {
	words := splitWords(paragraph)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		tentative := word
		if current != "" {
			tentative = current + " " + word
		}
		// 恰好等宽也接受
		if measure(tentative) <= limit {
			current = tentative
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		if measure(word) <= limit {
			current = word
			continue
		}
		segments := breakWord(measure, word, limit)
		lines = append(lines, segments[:len(segments)-1]...)
		current = segments[len(segments)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// splitWords 按单个空格切分，丢弃连续空格产生的空串。
func splitWords(paragraph string) []string {
	parts := strings.Split(paragraph, " ")
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// breakWord 逐字符累积，溢出时另起一段；每段至少包含一个字符以保证前进。
func breakWord(measure func(string) float64, word string, limit float64) []string {
	var segments []string
	var builder strings.Builder
	for _, r := range word {
		if builder.Len() == 0 {
			builder.WriteRune(r)
			continue
		}
		if measure(builder.String()+string(r)) <= limit {
			builder.WriteRune(r)
			continue
		}
		segments = append(segments, builder.String())
		builder.Reset()
		builder.WriteRune(r)
	}
	if builder.Len() > 0 {
		segments = append(segments, builder.String())
	}
	return segments
}

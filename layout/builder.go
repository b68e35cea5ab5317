package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/memecanvas/binding"
	"github.com/ByLCY/memecanvas/dsl"
)

// Build 根据脚本 AST 构建可直接合成的场景。
// 文档级赋值：image、family、width、height；命令：text [size N] [at X Y] [width W] { "..." }。
// 文本为空白的 text 命令被静默忽略，与交互式添加文字的规则一致。
func Build(script *dsl.Script, data any, opts BuildOptions) (*Scene, error) {
	if script == nil || script.Body == nil {
		return nil, fmt.Errorf("脚本为空")
	}
	if opts.LoadImage == nil {
		return nil, fmt.Errorf("layout: 缺少图片加载器 LoadImage")
	}

	scene := &Scene{}
	static := StaticLayout{}
	var src string
	var pending []*dsl.Command
	var overrideW, overrideH int
	for _, st := range script.Body.Statements {
		switch {
		case st.Assignment != nil:
			a := st.Assignment
			switch strings.ToLower(a.Key) {
			case "image":
				src = a.Value.Raw()
			case "family", "font":
				scene.Family = a.Value.Raw()
			case "width":
				n, err := parseInt(a.Value.Raw())
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("第 %d 行: width 无效: %q", a.Pos.Line, a.Value.Raw())
				}
				overrideW = n
			case "height":
				n, err := parseInt(a.Value.Raw())
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("第 %d 行: height 无效: %q", a.Pos.Line, a.Value.Raw())
				}
				overrideH = n
			}
		case st.Command != nil:
			switch st.Command.Name {
			case "image":
				if len(st.Command.Args) == 0 {
					return nil, fmt.Errorf("第 %d 行: image 缺少路径", st.Command.Pos.Line)
				}
				src = st.Command.Args[0].Value
			case "text":
				pending = append(pending, st.Command)
			}
		}
	}

	if src == "" {
		return nil, fmt.Errorf("脚本缺少 image")
	}
	img, err := opts.LoadImage(src)
	if err != nil {
		return nil, fmt.Errorf("加载图片 %s 失败: %w", src, err)
	}
	scene.Image = NewImage(img, src)
	scene.Width, scene.Height = scene.Image.DisplayWidth, scene.Image.DisplayHeight
	if overrideW > 0 {
		scene.Width = overrideW
	}
	if overrideH > 0 {
		scene.Height = overrideH
	}

	for _, cmd := range pending {
		box, width, err := buildTextBox(cmd, len(scene.Boxes), data)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(box.Text) == "" {
			continue
		}
		if width > 0 {
			static[box.ID] = Rect{X: box.X, Y: box.Y, Width: width}
		}
		scene.Boxes = append(scene.Boxes, box)
	}
	if len(static) > 0 {
		scene.Layout = static
	}
	return scene, nil
}

// buildTextBox 解析 text 命令的参数与文本块。多个字符串字面量按行拼接。
func buildTextBox(cmd *dsl.Command, id int, data any) (TextBox, float64, error) {
	box := TextBox{ID: id, FontSize: DefaultFontSize}
	var width float64

	args := cmd.Args
	for i := 0; i < len(args); i++ {
		key := strings.ToLower(args[i].Value)
		need := func(n int) error {
			if i+n >= len(args) {
				return fmt.Errorf("第 %d 行: text 参数 %s 缺少取值", cmd.Pos.Line, key)
			}
			return nil
		}
		switch key {
		case "size":
			if err := need(1); err != nil {
				return box, 0, err
			}
			n, err := parseInt(args[i+1].Value)
			if err != nil {
				return box, 0, fmt.Errorf("第 %d 行: 字号无效 %q", cmd.Pos.Line, args[i+1].Value)
			}
			box.FontSize = ClampFontSize(n)
			i++
		case "at":
			if err := need(2); err != nil {
				return box, 0, err
			}
			x, errX := parseFloat(args[i+1].Value)
			y, errY := parseFloat(args[i+2].Value)
			if errX != nil || errY != nil {
				return box, 0, fmt.Errorf("第 %d 行: 坐标无效 %q %q", cmd.Pos.Line, args[i+1].Value, args[i+2].Value)
			}
			box.X, box.Y = x, y
			i += 2
		case "width":
			if err := need(1); err != nil {
				return box, 0, err
			}
			w, err := parseFloat(args[i+1].Value)
			if err != nil || w <= 0 {
				return box, 0, fmt.Errorf("第 %d 行: 宽度无效 %q", cmd.Pos.Line, args[i+1].Value)
			}
			width = w
			i++
		default:
			if args[i].Type == "String" && box.Text == "" {
				box.Text = args[i].Value
				continue
			}
			return box, 0, fmt.Errorf("第 %d 行: 未知的 text 参数 %q", cmd.Pos.Line, args[i].Raw)
		}
	}

	if cmd.Block != nil {
		var parts []string
		for _, st := range cmd.Block.Statements {
			if st.Text != nil {
				parts = append(parts, string(st.Text.Value))
			}
		}
		if len(parts) > 0 {
			box.Text = strings.Join(parts, "\n")
		}
	}
	box.Text = strings.TrimSpace(binding.Interpolate(box.Text, data))
	return box, width, nil
}

func parseInt(v string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
}

func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
}

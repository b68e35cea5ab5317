package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/ByLCY/memecanvas/layout"
)

// DownloadName 是下载文件的固定文件名。
const DownloadName = "meme.png"

const pngDataURLPrefix = "data:image/png;base64,"

// ErrDecode 表示图片数据无法识别或解码。
var ErrDecode = errors.New("export: cannot decode image")

// DecodeImage 先用文件头识别类型，再解码 png/jpeg/gif。失败时返回包装了 ErrDecode 的错误。
func DecodeImage(data []byte) (image.Image, error) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return nil, fmt.Errorf("%w: unknown image type", ErrDecode)
	}
	switch kind.Extension {
	case "png", "jpg", "gif":
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrDecode, kind.MIME.Value)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DecodeDataURL 解析 "data:<mime>;base64,<payload>" 形式的图片。
func DecodeDataURL(dataURL string) (image.Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URL", ErrDecode)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL must be base64", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return DecodeImage(data)
}

// LoadFile 读取并解码图片文件，返回计算好预览尺寸的底图。
func LoadFile(path string) (*layout.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", path, err)
	}
	return layout.NewImage(img, path), nil
}

// EncodePNG 无损编码画布。
func EncodePNG(surface image.Image) ([]byte, error) {
	if surface == nil {
		return nil, layout.ErrInvalidInput
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL 返回 "data:image/png;base64,..." 形式的画布。
func DataURL(surface image.Image) (string, error) {
	data, err := EncodePNG(surface)
	if err != nil {
		return "", err
	}
	return PNGDataURL(data), nil
}

// PNGDataURL wraps already encoded PNG bytes.
func PNGDataURL(data []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(data)
}

// WriteDownload 把画布写入 dir/meme.png，返回完整路径。
func WriteDownload(dir string, surface image.Image) (string, error) {
	return WriteFile(filepath.Join(dir, DownloadName), surface)
}

// WriteFile 把画布以 PNG 写入指定路径，必要时创建目录。
func WriteFile(path string, surface image.Image) (string, error) {
	data, err := EncodePNG(surface)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return path, nil
}

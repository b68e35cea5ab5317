package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSurface() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 30), uint8(y * 40), 200, 255})
		}
	}
	return img
}

func TestPNGRoundTripIsLossless(t *testing.T) {
	surface := sampleSurface()
	data, err := EncodePNG(surface)
	require.NoError(t, err)

	decoded, err := DecodeImage(data)
	require.NoError(t, err)
	require.Equal(t, surface.Bounds(), decoded.Bounds())
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, surface.RGBAAt(x, y), color.RGBAModel.Convert(decoded.At(x, y)))
		}
	}
}

func TestDataURL(t *testing.T) {
	surface := sampleSurface()
	url, err := DataURL(surface)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	decoded, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, surface.Bounds(), decoded.Bounds())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeDataURL("data:image/png,raw")
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeDataURL("data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrDecode)

	// 文件头是 PNG 但内容被截断
	data, err := EncodePNG(sampleSurface())
	require.NoError(t, err)
	_, err = DecodeImage(data[:20])
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sampleSurface(), nil))
	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestWriteDownloadAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDownload(dir, sampleSurface())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "meme.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	img, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 6, img.DisplayHeight)
	assert.Equal(t, path, img.Src)

	_, err = LoadFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestEncodeNil(t *testing.T) {
	_, err := EncodePNG(nil)
	assert.Error(t, err)
}

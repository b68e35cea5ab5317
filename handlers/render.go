package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/export"
	"github.com/ByLCY/memecanvas/layout"
	"github.com/ByLCY/memecanvas/renderer"
	"github.com/ByLCY/memecanvas/session"
)

const maxBodyBytes = 10 << 20

// RenderBox is one caption in a render request. Width > 0 pins the box width.
type RenderBox struct {
	Text     string  `json:"text"`
	FontSize int     `json:"fontSize"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
}

// RenderRequest 描述一次无界面合成：底图为 data URL 或内置模板路径。
type RenderRequest struct {
	Image  string      `json:"image"`
	Family string      `json:"family,omitempty"`
	Boxes  []RenderBox `json:"boxes"`
	Format string      `json:"format,omitempty"` // "png"（默认）或 "dataurl"
}

// Templates loads the built-in template images from a directory.
type Templates struct {
	Dir string
}

// Load returns the template at path, which must be one of session.Templates.
func (t Templates) Load(path string) (*layout.Image, error) {
	clean := strings.TrimPrefix(path, "/")
	if !slices.Contains(session.Templates, clean) {
		return nil, fmt.Errorf("%w: unknown template %s", layout.ErrInvalidInput, path)
	}
	img, err := export.LoadFile(filepath.Join(t.Dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, err
	}
	img.Src = clean
	return img, nil
}

func (req *RenderRequest) scene(templates Templates) (*layout.Scene, error) {
	var img *layout.Image
	if strings.HasPrefix(req.Image, "data:") {
		decoded, err := export.DecodeDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		img = layout.NewImage(decoded, "")
	} else {
		loaded, err := templates.Load(req.Image)
		if err != nil {
			return nil, err
		}
		img = loaded
	}

	scene := &layout.Scene{
		Image:  img,
		Width:  img.DisplayWidth,
		Height: img.DisplayHeight,
		Family: req.Family,
	}
	rects := layout.StaticLayout{}
	for i, b := range req.Boxes {
		size := b.FontSize
		if size == 0 {
			size = layout.DefaultFontSize
		}
		scene.Boxes = append(scene.Boxes, layout.TextBox{
			ID:       i,
			Text:     strings.TrimSpace(b.Text),
			FontSize: layout.ClampFontSize(size),
			X:        b.X,
			Y:        b.Y,
		})
		if b.Width > 0 {
			rects[i] = layout.Rect{X: b.X, Y: b.Y, Width: b.Width}
		}
	}
	scene.Layout = rects
	return scene, nil
}

// HandleRender composites the requested scene and returns a PNG or a data URL.
func HandleRender(r renderer.Renderer, templates Templates) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body RenderRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&body); err != nil {
			renderError(w, req, http.StatusBadRequest, "Invalid request body")
			return
		}
		scene, err := body.scene(templates)
		if err != nil {
			logrus.WithError(err).Warn("Failed to prepare scene")
			renderError(w, req, statusFor(err), err.Error())
			return
		}
		surface, err := r.Render(scene)
		if err != nil {
			logrus.WithError(err).Error("Failed to render scene")
			renderError(w, req, http.StatusInternalServerError, "Failed to render")
			return
		}

		if body.Format == "dataurl" {
			url, err := export.DataURL(surface)
			if err != nil {
				renderError(w, req, http.StatusInternalServerError, "Failed to encode")
				return
			}
			render.JSON(w, req, map[string]string{"dataUrl": url})
			return
		}
		data, err := export.EncodePNG(surface)
		if err != nil {
			renderError(w, req, http.StatusInternalServerError, "Failed to encode")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DownloadName))
		w.Write(data)
	}
}

// HandleTemplates lists the built-in templates.
func HandleTemplates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, session.Templates)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, export.ErrDecode), errors.Is(err, layout.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return statusForFeed(err)
	}
}

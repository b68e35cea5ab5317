package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/memecanvas/export"
	"github.com/ByLCY/memecanvas/feed"
	"github.com/ByLCY/memecanvas/feed/memory"
	canvasrenderer "github.com/ByLCY/memecanvas/renderer/canvas"
	"github.com/ByLCY/memecanvas/session"
)

var testSecret = []byte("test-secret")

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	base := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: color.RGBA{90, 90, 90, 255}}, image.Point{}, draw.Src)
	_, err := export.WriteFile(filepath.Join(dir, session.Templates[0]), base)
	require.NoError(t, err)

	store := memory.NewStore()
	router := NewRouter(Config{
		Feed:        feed.NewService(store, nil, feed.Options{Seeds: true}),
		Renderer:    canvasrenderer.NewRenderer(),
		TemplateDir: dir,
		JWTSecret:   testSecret,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := IssueToken(testSecret, user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	url, err := export.DataURL(image.NewRGBA(image.Rect(0, 0, 20, 10)))
	require.NoError(t, err)
	return url
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(testSecret, "alice", time.Hour)
	require.NoError(t, err)
	user, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	_, err = ParseToken([]byte("other"), token)
	assert.Error(t, err)

	expired, err := IssueToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestInvalidTokenRejected(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/memes", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTemplatesList(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/api/templates", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, session.Templates, got)
}

func TestRenderTemplateToPNG(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodPost, "/api/render", "", RenderRequest{
		Image: "/" + session.Templates[0],
		Boxes: []RenderBox{{Text: "HELLO WORLD", FontSize: 48, X: 20, Y: 20, Width: 200}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "meme.png")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	img, err := export.DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 600), img.Bounds())
}

func TestRenderDataURLAndErrors(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodPost, "/api/render", "", RenderRequest{
		Image:  pngDataURL(t),
		Boxes:  []RenderBox{{Text: "hi"}},
		Format: "dataurl",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, strings.HasPrefix(out["dataUrl"], "data:image/png;base64,"))

	resp = srv.do(t, http.MethodPost, "/api/render", "", RenderRequest{Image: "data:image/png;base64,AAAA"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/render", "", RenderRequest{Image: "../../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostRequiresUser(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodPost, "/api/memes", "", PostRequest{Image: pngDataURL(t)})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostFeedAndUpvote(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/memes", "alice", PostRequest{Image: pngDataURL(t)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var meme feed.Meme
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meme))
	assert.Equal(t, "alice", meme.UserID)

	resp = srv.do(t, http.MethodGet, "/api/memes?sort=newest", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var memes []feed.Meme
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&memes))
	require.Len(t, memes, 5)
	assert.Equal(t, meme.ID, memes[0].ID)

	path := "/api/memes/" + meme.ID + "/upvote"
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, path, "", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, path, "alice", nil).StatusCode)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, path, "bob", nil).StatusCode)
	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, path, "bob", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/api/memes/seed-dog-bird/upvote", "bob", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/api/memes/missing/upvote", "bob", nil).StatusCode)

	resp = srv.do(t, http.MethodGet, path, "bob", nil)
	var status map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status["upvoted"])

	stored, err := srv.store.GetMeme(context.Background(), meme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UpvoteCount)
}

func TestTemplatesLoadRejectsUnknown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "templates"), 0o755))
	_, err := Templates{Dir: dir}.Load("templates/other.png")
	assert.Error(t, err)
}

func TestCORSPreflightWithoutCredentials(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/memes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

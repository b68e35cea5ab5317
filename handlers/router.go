package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ByLCY/memecanvas/feed"
	"github.com/ByLCY/memecanvas/renderer"
)

// Config wires the HTTP API.
type Config struct {
	Feed        *feed.Service
	Renderer    renderer.Renderer
	TemplateDir string
	JWTSecret   []byte
}

// NewRouter builds the API router.
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "X-Requested-With"},
		AllowCredentials: false, // 身份走 Bearer token，不依赖 cookie
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(Identify(cfg.JWTSecret))

		r.Get("/templates", HandleTemplates())
		r.Post("/render", HandleRender(cfg.Renderer, Templates{Dir: cfg.TemplateDir}))

		r.Route("/memes", func(r chi.Router) {
			r.Get("/", HandleListMemes(cfg.Feed))
			r.With(RequireUser).Post("/", HandlePostMeme(cfg.Feed))
			r.Route("/{id}/upvote", func(r chi.Router) {
				r.Get("/", HandleUpvoteStatus(cfg.Feed))
				r.With(RequireUser).Post("/", HandleUpvote(cfg.Feed))
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

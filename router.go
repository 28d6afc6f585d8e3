package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpSwagger "github.com/swaggo/http-swagger"
)

// routes wires middlewares and endpoints. CORS origins come from config.
func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "time": a.now().UTC()})
	})
	r.Handle("/metrics", a.metrics.handler())

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})

	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", a.handleRegister)
		api.Post("/auth/login", a.handleLogin)
		api.Post("/advise", a.handleAdvise)

		api.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware)
			pr.Get("/me", a.handleMe)

			pr.Route("/fields", func(fr chi.Router) {
				fr.Get("/", a.handleListFields)
				fr.Post("/", a.handleCreateField)
				fr.Get("/{id}", a.handleGetField)
				fr.Put("/{id}", a.handleUpdateField)
				fr.Delete("/{id}", a.handleDeleteField)
			})

			pr.Route("/recommendations", func(rr chi.Router) {
				rr.Get("/", a.handleListRecommendations)
				rr.Post("/", a.handleCreateRecommendation)
				rr.Get("/{id}", a.handleGetRecommendation)
				rr.Delete("/{id}", a.handleDeleteRecommendation)
			})

			pr.Route("/datasets", func(dr chi.Router) {
				dr.Get("/sample", a.handleSampleDataset)
				dr.Post("/publish", a.handlePublishDataset)
			})
		})
	})

	return r
}

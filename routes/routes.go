package routes

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/em0-omg/pdf-highlight-api/config"
	"github.com/em0-omg/pdf-highlight-api/controllers"
	auth "github.com/em0-omg/pdf-highlight-api/middleware"
)

func SetupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := strings.Split(config.GetEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"), ",")

	// CORS Configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Detection-Count"},
		AllowCredentials: config.GetEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           300,
	}))

	r.Get("/", controllers.Health)

	// Processing endpoints (API Key protected)
	r.Group(func(r chi.Router) {
		r.Use(auth.APIKeyMiddleware)
		r.Post("/pdf/to-images", controllers.PDFToImages)
		r.Post("/pdf/text", controllers.ExtractText)
		r.Post("/pdf/analyze", controllers.AnalyzePDF)
		r.Post("/pdf/highlight", controllers.HighlightPDF)
		r.Post("/pdf/annotate", controllers.AnnotatePDF)
		r.Post("/jobs/highlight", controllers.SubmitHighlightJob)
	})

	// Job status is readable without a key
	r.Get("/jobs/{job_id}", controllers.GetJob)

	// Server-Sent Events for real-time job updates
	r.Get("/sse/jobs", JobsSSE)

	return r
}

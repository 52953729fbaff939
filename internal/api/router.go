package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hoanghai1803/mdreadtime/internal/api/handlers"
	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/feeds"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(store *storage.Store, fetcher *feeds.Fetcher, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)
	r.Use(LimitBody)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handlers.Health())

		api.Post("/estimate", handlers.EstimateContent(store, cfg))
		api.Post("/estimate/url", handlers.EstimateURL(store, fetcher, cfg))

		api.Get("/estimates", handlers.ListEstimates(store))
		api.Get("/estimates/totals", handlers.GetTotals(store))
		api.Get("/estimates/search", handlers.SearchEstimates(store))
		api.Get("/estimates/{id}", handlers.GetEstimate(store))
		api.Delete("/estimates/{id}", handlers.DeleteEstimate(store))

		api.Get("/tags", handlers.GetAllTags(store))
		api.Post("/estimates/{id}/tags", handlers.AddTag(store))
		api.Delete("/estimates/{id}/tags/{tag}", handlers.RemoveTag(store))

		api.Post("/feeds/estimate", handlers.EstimateFeed(fetcher, cfg))

		api.Get("/sources", handlers.GetSources(store))
		api.Post("/sources", handlers.AddSource(store))
		api.Post("/sources/estimate", handlers.ScanSources(store, fetcher, cfg))
		api.Put("/sources/{id}", handlers.ToggleSource(store))
		api.Delete("/sources/{id}", handlers.DeleteSource(store))
	})

	return r
}

package rest

import (
	"net/http"

	customMW "github.com/KotFed0t/portfolio_tracker/internal/transport/rest/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(ctrl *Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(customMW.Logger, middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", ctrl.Health)

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", ctrl.ListHoldings)
			r.Post("/", ctrl.CreateHolding)
			r.Get("/search", ctrl.SearchSymbols)
			r.Get("/{id}", ctrl.GetHolding)
			r.Put("/{id}", ctrl.UpdateHolding)
			r.Delete("/{id}", ctrl.DeleteHolding)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", ctrl.GetPortfolio)
			r.Get("/distribution.png", ctrl.DistributionChart)
			r.Get("/report", ctrl.DownloadReport)
			r.Post("/report/upload", ctrl.UploadReport)
		})
	})

	return r
}

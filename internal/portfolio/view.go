// Package portfolio computes derived analytics of a list of holdings.
//
// All functions are pure: they only read the given snapshot and return fresh
// values, so they can be called concurrently without coordination.
package portfolio

import "github.com/KotFed0t/portfolio_tracker/internal/model"

// View combines all analytics computed from one holdings snapshot.
type View struct {
	Metrics      Metrics      `json:"metrics"`
	Distribution Distribution `json:"distribution"`
	Ranking      Ranking      `json:"ranking"`
}

func ComputePortfolioView(holdings []model.Holding) View {
	return View{
		Metrics:      ComputeMetrics(holdings),
		Distribution: ComputeDistribution(holdings),
		Ranking:      ComputeRanking(holdings),
	}
}

package portfolio

import "github.com/KotFed0t/portfolio_tracker/internal/model"

// Metrics are the aggregate totals of a portfolio. Values are not rounded.
type Metrics struct {
	TotalValue       float64 `json:"totalValue"`
	TotalInvestment  float64 `json:"totalInvestment"`
	TotalGainLoss    float64 `json:"totalGainLoss"`
	PercentageReturn Ratio   `json:"percentageReturn"`
}

// ComputeMetrics sums value, investment and gain/loss over the holdings.
//
// Unpriced holdings are valued at their buy price and contribute nothing to
// the gain/loss. PercentageReturn is undefined when the total investment is 0.
func ComputeMetrics(holdings []model.Holding) Metrics {
	var m Metrics
	for _, h := range holdings {
		m.TotalValue += h.MarketValue()
		m.TotalInvestment += h.Cost()
		if gl, ok := h.GainLoss(); ok {
			m.TotalGainLoss += gl
		}
	}
	m.PercentageReturn = Percent(m.TotalGainLoss, m.TotalInvestment)
	return m
}

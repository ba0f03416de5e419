package portfolio

import "github.com/KotFed0t/portfolio_tracker/internal/model"

func price(v float64) *float64 { return &v }

// holdingWithPerformance builds a holding whose current price gives the requested performance.
func holdingWithPerformance(id int64, ticker string, perf float64) model.Holding {
	return model.Holding{
		ID:           id,
		Name:         ticker + " corp",
		Ticker:       ticker,
		Quantity:     1,
		BuyPrice:     100,
		CurrentPrice: price(100 + perf),
	}
}

func tickers(ranked []RankedHolding) []string {
	res := make([]string, 0, len(ranked))
	for _, r := range ranked {
		res = append(res, r.Ticker)
	}
	return res
}

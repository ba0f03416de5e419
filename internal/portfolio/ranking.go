package portfolio

import (
	"cmp"
	"slices"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
)

// TopN is the length limit of the gainers and losers lists.
const TopN = 3

type RankedHolding struct {
	model.Holding
	Performance float64 `json:"performance"`
}

type Ranking struct {
	Gainers []RankedHolding `json:"gainers"`
	Losers  []RankedHolding `json:"losers"`
}

// Performance returns the price change of the holding in percent, 0 when it is unpriced.
func Performance(h model.Holding) float64 {
	if h.CurrentPrice == nil {
		return 0
	}
	return (*h.CurrentPrice - h.BuyPrice) / h.BuyPrice * 100
}

func ComputeRanking(holdings []model.Holding) Ranking {
	return ComputeRankingN(holdings, TopN)
}

// ComputeRankingN ranks the holdings by performance. Gainers are the best
// performing holdings with positive performance, losers are the worst ones
// with negative performance, most negative first. Both lists are cut to n
// entries, n < 0 keeps all. Ties keep the input order.
func ComputeRankingN(holdings []model.Holding, n int) Ranking {
	ranked := make([]RankedHolding, 0, len(holdings))
	for _, h := range holdings {
		ranked = append(ranked, RankedHolding{Holding: h, Performance: Performance(h)})
	}

	// descending master ranking
	slices.SortStableFunc(ranked, func(a, b RankedHolding) int {
		return cmp.Compare(b.Performance, a.Performance)
	})

	gainers := make([]RankedHolding, 0, TopN)
	losers := make([]RankedHolding, 0, TopN)
	for _, r := range ranked {
		switch {
		case r.Performance > 0:
			gainers = append(gainers, r)
		case r.Performance < 0:
			losers = append(losers, r)
		}
	}

	// losers get their own ascending sort so that truncation keeps the most negative ones
	slices.SortStableFunc(losers, func(a, b RankedHolding) int {
		return cmp.Compare(a.Performance, b.Performance)
	})

	return Ranking{
		Gainers: truncate(gainers, n),
		Losers:  truncate(losers, n),
	}
}

func truncate(ranked []RankedHolding, n int) []RankedHolding {
	if n < 0 || len(ranked) <= n {
		return ranked
	}
	return slices.Clip(ranked[:n])
}

package portfolio

import (
	"testing"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance(t *testing.T) {
	assert.Equal(t, 0.0, Performance(model.Holding{BuyPrice: 100}))
	assert.Equal(t, 50.0, Performance(model.Holding{BuyPrice: 100, CurrentPrice: price(150)}))
	assert.Equal(t, -25.0, Performance(model.Holding{BuyPrice: 200, CurrentPrice: price(150)}))
}

func TestComputeRanking_GainersAndLosers(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "A", 30),
		holdingWithPerformance(2, "B", -10),
		holdingWithPerformance(3, "C", -40),
		holdingWithPerformance(4, "D", 5),
	}

	r := ComputeRanking(holdings)

	assert.Equal(t, []string{"A", "D"}, tickers(r.Gainers))
	assert.Equal(t, []string{"C", "B"}, tickers(r.Losers))
	assert.InDelta(t, 30, r.Gainers[0].Performance, 1e-9)
	assert.InDelta(t, -40, r.Losers[0].Performance, 1e-9)
}

func TestComputeRanking_KeepsMostNegativeLosers(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "L1", -1),
		holdingWithPerformance(2, "L2", -50),
		holdingWithPerformance(3, "L3", -5),
		holdingWithPerformance(4, "L4", -30),
		holdingWithPerformance(5, "L5", -2),
	}

	r := ComputeRanking(holdings)

	assert.Empty(t, r.Gainers)
	assert.Equal(t, []string{"L2", "L4", "L3"}, tickers(r.Losers))
}

func TestComputeRanking_TruncatesGainers(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "G1", 1),
		holdingWithPerformance(2, "G2", 40),
		holdingWithPerformance(3, "G3", 10),
		holdingWithPerformance(4, "G4", 20),
	}

	r := ComputeRanking(holdings)

	assert.Equal(t, []string{"G2", "G4", "G3"}, tickers(r.Gainers))
	assert.Empty(t, r.Losers)
}

func TestComputeRanking_ZeroPerformanceExcluded(t *testing.T) {
	holdings := []model.Holding{
		{ID: 1, Ticker: "UNPRICED", BuyPrice: 100, Quantity: 5},
		{ID: 2, Ticker: "FLAT", BuyPrice: 100, CurrentPrice: price(100), Quantity: 1},
	}

	r := ComputeRanking(holdings)

	assert.Empty(t, r.Gainers)
	assert.Empty(t, r.Losers)
	assert.NotNil(t, r.Gainers)
	assert.NotNil(t, r.Losers)
}

func TestComputeRanking_TiesKeepInputOrder(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "X", 10),
		holdingWithPerformance(2, "Y", 10),
		holdingWithPerformance(3, "Z", 10),
		holdingWithPerformance(4, "W", 10),
		holdingWithPerformance(5, "P", -10),
		holdingWithPerformance(6, "Q", -10),
	}

	r := ComputeRanking(holdings)

	assert.Equal(t, []string{"X", "Y", "Z"}, tickers(r.Gainers))
	assert.Equal(t, []string{"P", "Q"}, tickers(r.Losers))
}

func TestComputeRanking_Idempotent(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "A", 3),
		holdingWithPerformance(2, "B", 3),
		holdingWithPerformance(3, "C", -7),
		holdingWithPerformance(4, "D", 12),
		holdingWithPerformance(5, "E", -7),
		{ID: 6, Ticker: "F", BuyPrice: 10, Quantity: 1},
	}

	first := ComputeRanking(holdings)
	second := ComputeRanking(holdings)

	assert.Equal(t, first, second)
}

func TestComputeRanking_Bounds(t *testing.T) {
	perfs := []float64{-80, 15, -3, 0, 42, -12, 7, 0.5, -0.1, 99}
	holdings := make([]model.Holding, 0, len(perfs))
	for i, p := range perfs {
		holdings = append(holdings, holdingWithPerformance(int64(i+1), string(rune('A'+i)), p))
	}

	r := ComputeRanking(holdings)

	require.Len(t, r.Gainers, TopN)
	require.Len(t, r.Losers, TopN)
	for _, g := range r.Gainers {
		assert.Greater(t, g.Performance, 0.0)
	}
	for _, l := range r.Losers {
		assert.Less(t, l.Performance, 0.0)
	}
}

func TestComputeRanking_DoesNotMutateInput(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "A", -5),
		holdingWithPerformance(2, "B", 5),
	}

	_ = ComputeRanking(holdings)

	assert.Equal(t, "A", holdings[0].Ticker)
	assert.Equal(t, "B", holdings[1].Ticker)
}

func TestComputeRankingN_All(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "A", 1),
		holdingWithPerformance(2, "B", 2),
		holdingWithPerformance(3, "C", 3),
		holdingWithPerformance(4, "D", 4),
	}

	r := ComputeRankingN(holdings, -1)
	assert.Equal(t, []string{"D", "C", "B", "A"}, tickers(r.Gainers))
}

func TestComputeRanking_TruncatedListsHaveNoSpareCapacity(t *testing.T) {
	holdings := []model.Holding{
		holdingWithPerformance(1, "A", 10),
		holdingWithPerformance(2, "B", 20),
		holdingWithPerformance(3, "C", 30),
		holdingWithPerformance(4, "D", 40),
		holdingWithPerformance(5, "E", -10),
		holdingWithPerformance(6, "F", -20),
		holdingWithPerformance(7, "G", -30),
		holdingWithPerformance(8, "H", -40),
	}

	r := ComputeRanking(holdings)
	require.Len(t, r.Gainers, TopN)
	require.Len(t, r.Losers, TopN)
	assert.Equal(t, len(r.Gainers), cap(r.Gainers))
	assert.Equal(t, len(r.Losers), cap(r.Losers))

	gainers := append(r.Gainers, RankedHolding{Holding: model.Holding{Ticker: "X"}})
	assert.Equal(t, []string{"D", "C", "B", "X"}, tickers(gainers))
	assert.Equal(t, []string{"D", "C", "B"}, tickers(r.Gainers))
}

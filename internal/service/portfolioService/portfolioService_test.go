package portfolioService

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/moexModel"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/chartGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	svc   *PortfolioService
	repo  *fakeRepo
	cache *fakeCache
	moex  *fakeMoex
}

func newEnv(storage CloudStorage, holdings ...model.Holding) env {
	cfg := &config.Config{}
	cfg.API.MoexApi.SearchLimit = 10

	e := env{
		repo:  newFakeRepo(holdings...),
		cache: newFakeCache(),
		moex:  &fakeMoex{stocks: map[string]moexModel.StockInfo{}},
	}
	e.svc = New(cfg, e.repo, e.cache, e.moex, xslsxGenerator.New(), chartGenerator.New(), storage)
	e.svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func ptr(v float64) *float64 { return &v }

func TestCreateHolding_Invalid(t *testing.T) {
	e := newEnv(nil)

	_, err := e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: "S", Ticker: "SBER", Quantity: 1, BuyPrice: 1})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: "Sber", Ticker: "SBER", Quantity: 0, BuyPrice: 1})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: "Sber", Ticker: "SBER", Quantity: math.Inf(1), BuyPrice: 1})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	holdings, err := e.svc.ListHoldings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestCreateHolding_FetchesPrice(t *testing.T) {
	e := newEnv(nil)
	e.moex.stocks["SBER"] = stock("SBER", "300.5")

	id, err := e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: " Sberbank ", Ticker: "sber", Quantity: 10, BuyPrice: 250})
	require.NoError(t, err)

	h, err := e.svc.GetHolding(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "SBER", h.Ticker)
	assert.Equal(t, "Sberbank", h.Name)

	require.Eventually(t, func() bool {
		_, ok := e.repo.price("SBER")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateHolding_UnknownTickerStaysUnpriced(t *testing.T) {
	e := newEnv(nil)

	id, err := e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: "Nope", Ticker: "NOPE", Quantity: 1, BuyPrice: 10})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return e.moex.singleCalls() == 1 }, 2*time.Second, 10*time.Millisecond)

	h, err := e.svc.GetHolding(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, h.CurrentPrice)
	_, ok := e.repo.price("NOPE")
	assert.False(t, ok)
}

func TestGetHolding_NotFound(t *testing.T) {
	e := newEnv(nil)

	_, err := e.svc.GetHolding(context.Background(), 42)
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = e.svc.UpdateHolding(context.Background(), 42, model.HoldingFields{Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 1})
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, e.svc.DeleteHolding(context.Background(), 42), service.ErrNotFound)
}

func TestUpdateAndDeleteHolding(t *testing.T) {
	e := newEnv(nil, model.Holding{ID: 1, Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 100, CurrentPrice: ptr(120)})

	err := e.svc.UpdateHolding(context.Background(), 1, model.HoldingFields{Name: "Gazprom", Ticker: "gazp", Quantity: 2, BuyPrice: 150})
	require.NoError(t, err)

	h, err := e.svc.GetHolding(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "GAZP", h.Ticker)
	assert.Nil(t, h.CurrentPrice)

	require.NoError(t, e.svc.DeleteHolding(context.Background(), 1))
	_, err = e.svc.GetHolding(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSearchSymbols(t *testing.T) {
	e := newEnv(nil)
	e.moex.candidates = []model.SymbolCandidate{{Symbol: "SBER", Name: "Sberbank"}}

	res, err := e.svc.SearchSymbols(context.Background(), " s ")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, 0, e.moex.calls())

	res, err = e.svc.SearchSymbols(context.Background(), "sb")
	require.NoError(t, err)
	assert.Equal(t, e.moex.candidates, res)
	assert.Equal(t, 1, e.moex.calls())

	require.Eventually(t, func() bool { return e.cache.searchCached("sb") }, 2*time.Second, 10*time.Millisecond)

	res, err = e.svc.SearchSymbols(context.Background(), "sb")
	require.NoError(t, err)
	assert.Equal(t, e.moex.candidates, res)
	assert.Equal(t, 1, e.moex.calls())
}

func TestRefreshPrices_SkipsUnpriced(t *testing.T) {
	e := newEnv(nil,
		model.Holding{ID: 1, Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 100},
		model.Holding{ID: 2, Name: "Halted", Ticker: "HALT", Quantity: 1, BuyPrice: 100},
		model.Holding{ID: 3, Name: "Unknown", Ticker: "NOPE", Quantity: 1, BuyPrice: 100},
	)
	e.moex.stocks["SBER"] = stock("SBER", "150")
	e.moex.stocks["HALT"] = stock("HALT", "")

	require.NoError(t, e.svc.RefreshPrices(context.Background()))

	p, ok := e.repo.price("SBER")
	require.True(t, ok)
	assert.Equal(t, "150", p.String())

	_, ok = e.repo.price("HALT")
	assert.False(t, ok)
	_, ok = e.repo.price("NOPE")
	assert.False(t, ok)

	view, err := e.svc.GetPortfolioView(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 350, view.Metrics.TotalValue, 1e-9)
	assert.InDelta(t, 300, view.Metrics.TotalInvestment, 1e-9)
}

func TestRefreshPrices_Empty(t *testing.T) {
	e := newEnv(nil)
	assert.NoError(t, e.svc.RefreshPrices(context.Background()))
}

func TestGetPortfolioView(t *testing.T) {
	e := newEnv(nil,
		model.Holding{ID: 1, Name: "Sber", Ticker: "SBER", Quantity: 10, BuyPrice: 100, CurrentPrice: ptr(150)},
		model.Holding{ID: 2, Name: "Gazprom", Ticker: "GAZP", Quantity: 10, BuyPrice: 100, CurrentPrice: ptr(50)},
	)

	view, err := e.svc.GetPortfolioView(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2000, view.Metrics.TotalValue, 1e-9)
	require.Len(t, view.Distribution.Slices, 2)
	require.Len(t, view.Ranking.Gainers, 1)
	assert.Equal(t, "SBER", view.Ranking.Gainers[0].Ticker)
	assert.Equal(t, "GAZP", view.Ranking.Losers[0].Ticker)
}

func TestRenderDistributionChart(t *testing.T) {
	e := newEnv(nil)

	_, err := e.svc.RenderDistributionChart(context.Background())
	assert.ErrorIs(t, err, service.ErrEmptyPortfolio)

	_, err = e.svc.CreateHolding(context.Background(), model.HoldingFields{Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 100})
	require.NoError(t, err)

	png, err := e.svc.RenderDistributionChart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestGenerateReport(t *testing.T) {
	e := newEnv(nil, model.Holding{ID: 1, Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 100})

	b, ext, err := e.svc.GenerateReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)
	assert.NotEmpty(t, b)
}

func TestUploadReport(t *testing.T) {
	_, err := newEnv(nil).svc.UploadReport(context.Background())
	assert.ErrorIs(t, err, service.ErrStorageDisabled)

	storage := &fakeStorage{}
	e := newEnv(storage, model.Holding{ID: 1, Name: "Sber", Ticker: "SBER", Quantity: 1, BuyPrice: 100})

	link, err := e.svc.UploadReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01_12-00-00.xlsx", storage.filename)
	assert.Equal(t, "https://drive.example/2024-05-01_12-00-00.xlsx", link)
	assert.NotEmpty(t, storage.content)
}

func TestCleanupReports_Disabled(t *testing.T) {
	assert.NoError(t, newEnv(nil).svc.CleanupReports(context.Background()))
	assert.NoError(t, newEnv(&fakeStorage{}).svc.CleanupReports(context.Background()))
}

package portfolioService

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/cache"
	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/moexModel"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	mu       sync.Mutex
	holdings map[int64]model.Holding
	nextID   int64
	prices   map[string]decimal.Decimal
}

func newFakeRepo(holdings ...model.Holding) *fakeRepo {
	r := &fakeRepo{holdings: map[int64]model.Holding{}, prices: map[string]decimal.Decimal{}}
	for _, h := range holdings {
		r.holdings[h.ID] = h
		if h.ID > r.nextID {
			r.nextID = h.ID
		}
	}
	return r
}

func (r *fakeRepo) ListHoldings(ctx context.Context) ([]model.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]model.Holding, 0, len(r.holdings))
	for id := int64(1); id <= r.nextID; id++ {
		if h, ok := r.holdings[id]; ok {
			res = append(res, h)
		}
	}
	return res, nil
}

func (r *fakeRepo) GetHolding(ctx context.Context, id int64) (model.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holdings[id]
	if !ok {
		return model.Holding{}, repository.ErrNotFound
	}
	return h, nil
}

func (r *fakeRepo) CreateHolding(ctx context.Context, fields model.HoldingFields) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.holdings[r.nextID] = model.Holding{
		ID:       r.nextID,
		Name:     fields.Name,
		Ticker:   fields.Ticker,
		Quantity: fields.Quantity,
		BuyPrice: fields.BuyPrice,
	}
	return r.nextID, nil
}

func (r *fakeRepo) UpdateHolding(ctx context.Context, id int64, fields model.HoldingFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holdings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if h.Ticker != fields.Ticker {
		h.CurrentPrice = nil
	}
	h.Name, h.Ticker, h.Quantity, h.BuyPrice = fields.Name, fields.Ticker, fields.Quantity, fields.BuyPrice
	r.holdings[id] = h
	return nil
}

func (r *fakeRepo) DeleteHolding(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holdings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.holdings, id)
	return nil
}

func (r *fakeRepo) ListTickers(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	res := make([]string, 0)
	for id := int64(1); id <= r.nextID; id++ {
		if h, ok := r.holdings[id]; ok && !seen[h.Ticker] {
			seen[h.Ticker] = true
			res = append(res, h.Ticker)
		}
	}
	return res, nil
}

func (r *fakeRepo) UpdateCurrentPrices(ctx context.Context, prices map[string]decimal.Decimal, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ticker, price := range prices {
		r.prices[ticker] = price
		p := price.InexactFloat64()
		for id, h := range r.holdings {
			if h.Ticker == ticker {
				h.CurrentPrice = &p
				r.holdings[id] = h
			}
		}
	}
	return nil
}

func (r *fakeRepo) price(ticker string) (decimal.Decimal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prices[ticker]
	return p, ok
}

type fakeCache struct {
	mu     sync.Mutex
	stocks map[string]moexModel.StockInfo
	search map[string][]model.SymbolCandidate
}

func newFakeCache() *fakeCache {
	return &fakeCache{stocks: map[string]moexModel.StockInfo{}, search: map[string][]model.SymbolCandidate{}}
}

func (c *fakeCache) SetStocks(ctx context.Context, stocks []moexModel.StockInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range stocks {
		c.stocks[s.Ticker] = s
	}
	return nil
}

func (c *fakeCache) GetStocks(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := map[string]moexModel.StockInfo{}
	for _, t := range tickers {
		s, ok := c.stocks[t]
		if !ok {
			return nil, cache.ErrCacheMiss
		}
		res[t] = s
	}
	return res, nil
}

func (c *fakeCache) SetSearchResults(ctx context.Context, query string, candidates []model.SymbolCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search[query] = candidates
	return nil
}

func (c *fakeCache) GetSearchResults(ctx context.Context, query string) ([]model.SymbolCandidate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.search[query]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return res, nil
}

func (c *fakeCache) searchCached(query string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.search[query]
	return ok
}

type fakeMoex struct {
	mu          sync.Mutex
	stocks      map[string]moexModel.StockInfo
	candidates  []model.SymbolCandidate
	searchCalls int
	stockCalls  int
}

func (m *fakeMoex) GetStockInfo(ctx context.Context, ticker string) (moexModel.StockInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockCalls++
	s, ok := m.stocks[ticker]
	if !ok {
		return moexModel.StockInfo{}, externalApi.ErrNotFound
	}
	return s, nil
}

func (m *fakeMoex) singleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stockCalls
}

func (m *fakeMoex) GetStocksInfo(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := map[string]moexModel.StockInfo{}
	for _, t := range tickers {
		if s, ok := m.stocks[t]; ok {
			res[t] = s
		}
	}
	return res, nil
}

func (m *fakeMoex) SearchSecurities(ctx context.Context, query string, limit int) ([]model.SymbolCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	return m.candidates, nil
}

func (m *fakeMoex) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

type fakeStorage struct {
	filename string
	content  []byte
}

func (s *fakeStorage) UploadFile(ctx context.Context, reader io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.filename, s.content = filename, b
	return "https://drive.example/" + filename, nil
}

func (s *fakeStorage) DeleteOldFiles(ctx context.Context) (int, error) {
	return 0, nil
}

func stock(ticker string, price string) moexModel.StockInfo {
	s := moexModel.StockInfo{Ticker: ticker, Status: true}
	if price != "" {
		s.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	return s
}

package portfolioService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/moexModel"
	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/KotFed0t/portfolio_tracker/internal/reportGenerator/chartGenerator"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

// minSearchQueryLength - более короткие запросы не уходят во внешний API
const minSearchQueryLength = 2

const reportTimeLayout = "2006-01-02_15-04-05"

type Repository interface {
	ListHoldings(ctx context.Context) ([]model.Holding, error)
	GetHolding(ctx context.Context, id int64) (model.Holding, error)
	CreateHolding(ctx context.Context, fields model.HoldingFields) (int64, error)
	UpdateHolding(ctx context.Context, id int64, fields model.HoldingFields) error
	DeleteHolding(ctx context.Context, id int64) error
	ListTickers(ctx context.Context) ([]string, error)
	UpdateCurrentPrices(ctx context.Context, prices map[string]decimal.Decimal, updatedAt time.Time) error
}

type Cache interface {
	SetStocks(ctx context.Context, stocks []moexModel.StockInfo) error
	GetStocks(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error)
	SetSearchResults(ctx context.Context, query string, candidates []model.SymbolCandidate) error
	GetSearchResults(ctx context.Context, query string) ([]model.SymbolCandidate, error)
}

type MoexApi interface {
	GetStockInfo(ctx context.Context, ticker string) (moexModel.StockInfo, error)
	GetStocksInfo(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error)
	SearchSecurities(ctx context.Context, query string, limit int) ([]model.SymbolCandidate, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, holdings []model.Holding, view portfolio.View) (fileBytes []byte, fileExtension string, err error)
}

type ChartGenerator interface {
	RenderDistribution(ctx context.Context, distribution portfolio.Distribution) ([]byte, error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) (int, error)
}

type PortfolioService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	moexApi         MoexApi
	reportGenerator ReportGenerator
	chartGenerator  ChartGenerator
	cloudStorage    CloudStorage
	now             func() time.Time
}

// New создает сервис. cloudStorage может быть nil, тогда выгрузка отчетов отключена.
func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	moexApi MoexApi,
	reportGenerator ReportGenerator,
	chartGenerator ChartGenerator,
	cloudStorage CloudStorage,
) *PortfolioService {
	return &PortfolioService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		moexApi:         moexApi,
		reportGenerator: reportGenerator,
		chartGenerator:  chartGenerator,
		cloudStorage:    cloudStorage,
		now:             time.Now,
	}
}

func (s *PortfolioService) ListHoldings(ctx context.Context) ([]model.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.ListHoldings"

	slog.Debug("ListHoldings start", slog.String("rqID", rqID), slog.String("op", op))

	holdings, err := s.repo.ListHoldings(ctx)
	if err != nil {
		slog.Error("got error from repo.ListHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return holdings, nil
}

func (s *PortfolioService) GetHolding(ctx context.Context, id int64) (model.Holding, error) {
	holding, err := s.repo.GetHolding(ctx, id)
	if err != nil {
		return model.Holding{}, mapRepoErr(err)
	}
	return holding, nil
}

func (s *PortfolioService) CreateHolding(ctx context.Context, fields model.HoldingFields) (id int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.CreateHolding"

	slog.Debug("CreateHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("fields", fields))
	defer func() {
		slog.Debug("CreateHolding finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id))
	}()

	fields = fields.Normalize()
	if err = fields.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s", service.ErrInvalidInput, err.Error())
	}

	id, err = s.repo.CreateHolding(ctx, fields)
	if err != nil {
		slog.Error("got error from repo.CreateHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, mapRepoErr(err)
	}

	go s.fillPrice(context.WithoutCancel(ctx), fields.Ticker)

	return id, nil
}

func (s *PortfolioService) UpdateHolding(ctx context.Context, id int64, fields model.HoldingFields) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UpdateHolding"

	slog.Debug("UpdateHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id), slog.Any("fields", fields))

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, err.Error())
	}

	if err := s.repo.UpdateHolding(ctx, id, fields); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.UpdateHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return mapRepoErr(err)
	}

	// при смене тикера цена сбрасывается в репозитории, подтягиваем новую
	go s.fillPrice(context.WithoutCancel(ctx), fields.Ticker)

	return nil
}

func (s *PortfolioService) DeleteHolding(ctx context.Context, id int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.DeleteHolding"

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id))

	if err := s.repo.DeleteHolding(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.DeleteHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return mapRepoErr(err)
	}

	return nil
}

// SearchSymbols returns up to SearchLimit traded shares matching the query.
// Queries shorter than two characters yield an empty list.
func (s *PortfolioService) SearchSymbols(ctx context.Context, query string) ([]model.SymbolCandidate, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.SearchSymbols"

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQueryLength {
		return []model.SymbolCandidate{}, nil
	}

	slog.Debug("SearchSymbols start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))

	candidates, err := s.cache.GetSearchResults(ctx, query)
	if err == nil {
		return candidates, nil
	}
	slog.Debug("can't get search results from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

	candidates, err = s.moexApi.SearchSecurities(ctx, query, s.cfg.API.MoexApi.SearchLimit)
	if err != nil {
		slog.Error("got error from moexApi.SearchSecurities", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	go func(ctx context.Context) {
		if err := s.cache.SetSearchResults(ctx, query, candidates); err != nil {
			slog.Warn("can't cache search results", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}(context.WithoutCancel(ctx))

	return candidates, nil
}

// GetPortfolioView computes all aggregate views from a single snapshot of holdings.
func (s *PortfolioService) GetPortfolioView(ctx context.Context) (portfolio.View, error) {
	_, view, err := s.snapshot(ctx)
	return view, err
}

func (s *PortfolioService) snapshot(ctx context.Context) ([]model.Holding, portfolio.View, error) {
	holdings, err := s.ListHoldings(ctx)
	if err != nil {
		return nil, portfolio.View{}, err
	}
	return holdings, portfolio.ComputePortfolioView(holdings), nil
}

// RefreshPrices запрашивает свежие котировки всех тикеров портфеля и сохраняет их.
// Тикеры без рыночной цены остаются без цены.
func (s *PortfolioService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshPrices"

	tickers, err := s.repo.ListTickers(ctx)
	if err != nil {
		slog.Error("got error from repo.ListTickers", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(tickers) == 0 {
		slog.Debug("no tickers to refresh", slog.String("rqID", rqID), slog.String("op", op))
		return nil
	}

	stocks, err := s.moexApi.GetStocksInfo(ctx, tickers)
	if err != nil {
		return fmt.Errorf("get stocks info: %w", err)
	}

	if err = s.cache.SetStocks(ctx, mapValues(stocks)); err != nil {
		slog.Warn("can't cache stocks", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	updated, err := s.storePrices(ctx, stocks)
	if err != nil {
		return err
	}

	slog.Info("prices refreshed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)), slog.Int("updated", updated))

	return nil
}

// fillPrice подтягивает цену нового тикера: сначала кэш, потом MOEX.
// Неизвестный MOEX тикер остается без цены.
func (s *PortfolioService) fillPrice(ctx context.Context, ticker string) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.fillPrice"

	stocks, err := s.cache.GetStocks(ctx, []string{ticker})
	if err != nil {
		var stock moexModel.StockInfo
		stock, err = s.moexApi.GetStockInfo(ctx, ticker)
		if err != nil {
			if errors.Is(err, externalApi.ErrNotFound) {
				slog.Info("ticker not found on moex", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker))
				return
			}
			slog.Warn("can't fetch price", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return
		}
		stocks = map[string]moexModel.StockInfo{ticker: stock}

		if err = s.cache.SetStocks(ctx, mapValues(stocks)); err != nil {
			slog.Warn("can't cache stocks", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	if _, err = s.storePrices(ctx, stocks); err != nil {
		slog.Warn("can't store prices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

func (s *PortfolioService) storePrices(ctx context.Context, stocks map[string]moexModel.StockInfo) (int, error) {
	prices := make(map[string]decimal.Decimal, len(stocks))
	for ticker, stock := range stocks {
		if stock.HasPrice() {
			prices[ticker] = stock.Price.Decimal
		}
	}

	if len(prices) == 0 {
		return 0, nil
	}

	if err := s.repo.UpdateCurrentPrices(ctx, prices, s.now()); err != nil {
		return 0, fmt.Errorf("update current prices: %w", err)
	}

	return len(prices), nil
}

// GenerateReport returns an xlsx workbook of the current portfolio.
func (s *PortfolioService) GenerateReport(ctx context.Context) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GenerateReport"

	holdings, view, err := s.snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	fileBytes, fileExtension, err = s.reportGenerator.Generate(ctx, holdings, view)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fileExtension, nil
}

// RenderDistributionChart returns a PNG pie chart of the distribution.
func (s *PortfolioService) RenderDistributionChart(ctx context.Context) ([]byte, error) {
	view, err := s.GetPortfolioView(ctx)
	if err != nil {
		return nil, err
	}

	png, err := s.chartGenerator.RenderDistribution(ctx, view.Distribution)
	if err != nil {
		if errors.Is(err, chartGenerator.ErrNothingToRender) {
			return nil, service.ErrEmptyPortfolio
		}
		return nil, err
	}

	return png, nil
}

func (s *PortfolioService) UploadReport(ctx context.Context) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.UploadReport"

	if s.cloudStorage == nil {
		return "", service.ErrStorageDisabled
	}

	fileBytes, ext, err := s.GenerateReport(ctx)
	if err != nil {
		return "", err
	}

	filename := s.ReportFilename(ext)
	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Info("report uploaded", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))

	return downloadLink, nil
}

// CleanupReports удаляет устаревшие выгруженные отчеты, без облака ничего не делает.
func (s *PortfolioService) CleanupReports(ctx context.Context) error {
	if s.cloudStorage == nil {
		return nil
	}

	_, err := s.cloudStorage.DeleteOldFiles(ctx)
	return err
}

func (s *PortfolioService) ReportFilename(ext string) string {
	return fmt.Sprintf("%s%s", s.now().Format(reportTimeLayout), ext)
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}

func mapValues(stocks map[string]moexModel.StockInfo) []moexModel.StockInfo {
	res := make([]moexModel.StockInfo, 0, len(stocks))
	for _, stock := range stocks {
		res = append(res, stock)
	}
	return res
}

package moexApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/moexModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	securitiesColumns = "SECID,SHORTNAME,LOTSIZE,CURRENCYID,STATUS"
	marketdataColumns = "SECID,MARKETPRICE"
	searchColumns     = "secid,shortname,name,is_traded,group"
	sharesGroup       = "stock_shares"
)

type MoexApi struct {
	client *resty.Client
	board  string
}

func New(cfg *config.Config) *MoexApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.MoexApi.Url)
	return &MoexApi{client: client, board: cfg.API.MoexApi.Board}
}

func (a *MoexApi) securitiesURL() string {
	return fmt.Sprintf("/iss/engines/stock/markets/shares/boards/%s/securities.json", a.board)
}

// GetStocksInfo returns market info of the given tickers, unknown tickers are absent from the result.
func (a *MoexApi) GetStocksInfo(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MoexApi.GetStocksInfo"

	if len(tickers) == 0 {
		return map[string]moexModel.StockInfo{}, nil
	}

	params := map[string]string{
		"iss.meta":           "off",
		"securities.columns": securitiesColumns,
		"marketdata.columns": marketdataColumns,
		"securities":         strings.Join(tickers, ","),
	}

	slog.Debug("start MoexApi.GetStocksInfo request", slog.String("rqID", rqID), slog.String("op", op), slog.Any("tickers", tickers))

	rawStocksInfo := moexModel.RawStocksInfo{}
	if err := a.get(ctx, a.securitiesURL(), params, &rawStocksInfo); err != nil {
		slog.Error("MoexApi request failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	res, err := parseRawStocksInfoToMap(rawStocksInfo)
	if err != nil {
		slog.Error("can't parse raw data", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("MoexApi.GetStocksInfo request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int("found", len(res)))

	return res, nil
}

func (a *MoexApi) GetStockInfo(ctx context.Context, ticker string) (moexModel.StockInfo, error) {
	stocks, err := a.GetStocksInfo(ctx, []string{ticker})
	if err != nil {
		return moexModel.StockInfo{}, err
	}

	stock, ok := stocks[ticker]
	if !ok {
		return moexModel.StockInfo{}, externalApi.ErrNotFound
	}

	return stock, nil
}

// SearchSecurities looks up traded shares whose ticker or name matches the query.
func (a *MoexApi) SearchSecurities(ctx context.Context, query string, limit int) ([]model.SymbolCandidate, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MoexApi.SearchSecurities"

	params := map[string]string{
		"iss.meta":           "off",
		"q":                  query,
		"securities.columns": searchColumns,
		"limit":              fmt.Sprint(limit),
	}

	slog.Debug("start MoexApi.SearchSecurities request", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))

	raw := moexModel.RawSearchResult{}
	if err := a.get(ctx, "/iss/securities.json", params, &raw); err != nil {
		slog.Error("MoexApi request failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	res, err := parseSearchResult(raw)
	if err != nil {
		slog.Error("can't parse raw data", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("MoexApi.SearchSecurities request complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int("found", len(res)))

	return res, nil
}

func (a *MoexApi) get(ctx context.Context, url string, params map[string]string, dest any) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return fmt.Errorf("dialing MoexApi: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("MoexApi responded with status %d", resp.StatusCode())
	}

	if err = json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("unmarshal MoexApi response: %w", err)
	}

	return nil
}

func parseRawStocksInfoToMap(rawStocksInfo moexModel.RawStocksInfo) (map[string]moexModel.StockInfo, error) {
	res := make(map[string]moexModel.StockInfo, len(rawStocksInfo.Marketdata.Data))

	err := handleRawStocksInfo(rawStocksInfo, func(stock moexModel.StockInfo) {
		res[stock.Ticker] = stock
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func handleRawStocksInfo(rawStocksInfo moexModel.RawStocksInfo, handleFn func(stock moexModel.StockInfo)) error {
	if len(rawStocksInfo.Marketdata.Data) != len(rawStocksInfo.Securities.Data) {
		return errors.New("lengths Marketdata != Securities")
	}

	for i := 0; i < len(rawStocksInfo.Marketdata.Data); i++ {
		if len(rawStocksInfo.Marketdata.Data[i]) != len(rawStocksInfo.Marketdata.Columns) {
			return errors.New("invalid Marketdata")
		}

		if len(rawStocksInfo.Securities.Data[i]) != len(rawStocksInfo.Securities.Columns) {
			return errors.New("invalid Securities")
		}

		stockInfo := moexModel.StockInfo{}

		for j, column := range rawStocksInfo.Marketdata.Columns {
			value := rawStocksInfo.Marketdata.Data[i][j]
			ok := true
			switch column {
			case "SECID":
				stockInfo.Ticker, ok = value.(string)
			case "MARKETPRICE":
				// null - цены нет (например, торги еще не начинались)
				if value != nil {
					var price float64
					price, ok = value.(float64)
					if ok {
						stockInfo.Price = decimal.NewNullDecimal(decimal.NewFromFloat(price))
					}
				}
			default:
				return fmt.Errorf("unknown column %s", column)
			}

			if !ok {
				return fmt.Errorf("invalid type %s = %v", column, value)
			}
		}

		for j, column := range rawStocksInfo.Securities.Columns {
			value := rawStocksInfo.Securities.Data[i][j]
			ok := true
			switch column {
			case "SECID":
				if value != stockInfo.Ticker {
					return fmt.Errorf("secID in securities and market data is not equal %v and %s", value, stockInfo.Ticker)
				}
			case "SHORTNAME":
				stockInfo.Shortname, ok = value.(string)
			case "LOTSIZE":
				var f float64
				f, ok = value.(float64)
				if ok {
					stockInfo.Lotsize = int(f)
				}
			case "CURRENCYID":
				stockInfo.CurrencyID, ok = value.(string)
				if ok && stockInfo.CurrencyID == "SUR" {
					stockInfo.CurrencyID = "RUB"
				}
			case "STATUS":
				var status string
				status, ok = value.(string)
				if ok && status == "A" {
					stockInfo.Status = true
				}
			default:
				return fmt.Errorf("unknown column %s", column)
			}

			if !ok {
				return fmt.Errorf("invalid type %s = %v", column, value)
			}
		}
		handleFn(stockInfo)
	}
	return nil
}

func parseSearchResult(raw moexModel.RawSearchResult) ([]model.SymbolCandidate, error) {
	res := make([]model.SymbolCandidate, 0, len(raw.Securities.Data))

	for _, row := range raw.Securities.Data {
		if len(row) != len(raw.Securities.Columns) {
			return nil, errors.New("invalid Securities")
		}

		var (
			candidate model.SymbolCandidate
			shortname string
			traded    bool
			group     string
		)

		for j, column := range raw.Securities.Columns {
			switch column {
			case "secid":
				candidate.Symbol, _ = row[j].(string)
			case "shortname":
				shortname, _ = row[j].(string)
			case "name":
				candidate.Name, _ = row[j].(string)
			case "is_traded":
				f, _ := row[j].(float64)
				traded = f == 1
			case "group":
				group, _ = row[j].(string)
			}
		}

		if !traded || group != sharesGroup || candidate.Symbol == "" {
			continue
		}
		if candidate.Name == "" {
			candidate.Name = shortname
		}
		res = append(res, candidate)
	}

	return res, nil
}

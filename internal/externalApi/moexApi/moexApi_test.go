package moexApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const securitiesResponse = `{
	"securities": {
		"columns": ["SECID", "SHORTNAME", "LOTSIZE", "CURRENCYID", "STATUS"],
		"data": [
			["GAZP", "ГАЗПРОМ ао", 10, "SUR", "A"],
			["SBER", "Сбербанк", 10, "SUR", "A"],
			["DELIST", "Old", 1, "SUR", "N"]
		]
	},
	"marketdata": {
		"columns": ["SECID", "MARKETPRICE"],
		"data": [
			["GAZP", 128.5],
			["SBER", 301.25],
			["DELIST", null]
		]
	}
}`

const searchResponse = `{
	"securities": {
		"columns": ["secid", "shortname", "name", "is_traded", "group"],
		"data": [
			["SBER", "Сбербанк", "Сбербанк России ПАО ао", 1, "stock_shares"],
			["SBERP", "Сбербанк-п", "", 1, "stock_shares"],
			["RU000A0JX0J2", "Сбер Бонд", "Облигации", 1, "stock_bonds"],
			["SBERX", "Old", "Delisted", 0, "stock_shares"]
		]
	}
}`

func newTestApi(t *testing.T, handler http.HandlerFunc) *MoexApi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{API: config.API{
		Timeout: 5 * time.Second,
		MoexApi: config.MoexApi{Url: srv.URL, Board: "TQBR"},
	}}
	return New(cfg)
}

func TestMoexApi_GetStocksInfo(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iss/engines/stock/markets/shares/boards/TQBR/securities.json", r.URL.Path)
		assert.Equal(t, "GAZP,SBER,DELIST", r.URL.Query().Get("securities"))
		assert.Equal(t, "off", r.URL.Query().Get("iss.meta"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(securitiesResponse))
	})

	stocks, err := api.GetStocksInfo(context.Background(), []string{"GAZP", "SBER", "DELIST"})
	require.NoError(t, err)
	require.Len(t, stocks, 3)

	sber := stocks["SBER"]
	assert.Equal(t, "Сбербанк", sber.Shortname)
	assert.Equal(t, 10, sber.Lotsize)
	assert.Equal(t, "RUB", sber.CurrencyID)
	assert.True(t, sber.HasPrice())
	assert.Equal(t, "301.25", sber.Price.Decimal.String())

	delisted := stocks["DELIST"]
	assert.False(t, delisted.Status)
	assert.False(t, delisted.Price.Valid)
	assert.False(t, delisted.HasPrice())
}

func TestMoexApi_GetStocksInfo_NoTickers(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	stocks, err := api.GetStocksInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, stocks)
}

func TestMoexApi_GetStockInfo_NotFound(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"securities": {"columns": ["SECID"], "data": []}, "marketdata": {"columns": ["SECID"], "data": []}}`))
	})

	_, err := api.GetStockInfo(context.Background(), "NOPE")
	assert.ErrorIs(t, err, externalApi.ErrNotFound)
}

func TestMoexApi_ServerError(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := api.GetStocksInfo(context.Background(), []string{"SBER"})
	assert.Error(t, err)
}

func TestMoexApi_InvalidPayload(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"securities": {"columns": ["SECID", "SHORTNAME"], "data": [["SBER", "Сбербанк"]]},
			"marketdata": {"columns": ["SECID", "MARKETPRICE"], "data": [["GAZP", 1.5]]}
		}`))
	})

	_, err := api.GetStocksInfo(context.Background(), []string{"SBER"})
	assert.Error(t, err)
}

func TestMoexApi_SearchSecurities(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iss/securities.json", r.URL.Path)
		assert.Equal(t, "sber", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(searchResponse))
	})

	candidates, err := api.SearchSecurities(context.Background(), "sber", 5)
	require.NoError(t, err)
	assert.Equal(t, []model.SymbolCandidate{
		{Symbol: "SBER", Name: "Сбербанк России ПАО ао"},
		{Symbol: "SBERP", Name: "Сбербанк-п"},
	}, candidates)
}

package moexModel

import "github.com/shopspring/decimal"

// ISS отдает данные в колоночном формате: список колонок и строки значений
type Block struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

type RawStocksInfo struct {
	Securities Block `json:"securities"`
	Marketdata Block `json:"marketdata"`
}

type RawSearchResult struct {
	Securities Block `json:"securities"`
}

type StockInfo struct {
	Ticker     string              `json:"ticker"`
	Shortname  string              `json:"shortname"`
	Lotsize    int                 `json:"lotsize"`
	CurrencyID string              `json:"currency_id"`
	Status     bool                `json:"status"`
	Price      decimal.NullDecimal `json:"price"`
}

// HasPrice reports whether the security is traded and has a market price.
func (s StockInfo) HasPrice() bool {
	return s.Status && s.Price.Valid
}

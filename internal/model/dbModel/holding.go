package dbModel

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Holding struct {
	ID             int64               `db:"id"`
	Name           string              `db:"name"`
	Ticker         string              `db:"ticker"`
	Quantity       decimal.Decimal     `db:"quantity"`
	BuyPrice       decimal.Decimal     `db:"buy_price"`
	CurrentPrice   decimal.NullDecimal `db:"current_price"`
	PriceUpdatedAt sql.NullTime        `db:"price_updated_at"`
}

type HoldingFields struct {
	Name     string          `db:"name"`
	Ticker   string          `db:"ticker"`
	Quantity decimal.Decimal `db:"quantity"`
	BuyPrice decimal.Decimal `db:"buy_price"`
}

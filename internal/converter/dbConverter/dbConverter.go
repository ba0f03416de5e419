package dbConverter

import (
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func ConvertHolding(dbHolding dbModel.Holding) model.Holding {
	holding := model.Holding{
		ID:       dbHolding.ID,
		Name:     dbHolding.Name,
		Ticker:   dbHolding.Ticker,
		Quantity: dbHolding.Quantity.InexactFloat64(),
		BuyPrice: dbHolding.BuyPrice.InexactFloat64(),
	}

	// NULL в БД - акция еще ни разу не оценивалась, это не нулевая цена
	if dbHolding.CurrentPrice.Valid {
		price := dbHolding.CurrentPrice.Decimal.InexactFloat64()
		holding.CurrentPrice = &price
	}

	return holding
}

func ConvertHoldingFields(fields model.HoldingFields) dbModel.HoldingFields {
	return dbModel.HoldingFields{
		Name:     fields.Name,
		Ticker:   fields.Ticker,
		Quantity: decimal.NewFromFloat(fields.Quantity),
		BuyPrice: decimal.NewFromFloat(fields.BuyPrice),
	}
}

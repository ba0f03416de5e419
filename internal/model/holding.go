package model

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const minNameLength = 2

// Holding is one stock position of the portfolio.
//
// CurrentPrice is nil when the position has never been priced. An unpriced
// holding is valued at its buy price and has no gain or loss, it is never
// treated as worthless.
type Holding struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Ticker       string   `json:"ticker"`
	Quantity     float64  `json:"quantity"`
	BuyPrice     float64  `json:"buyPrice"`
	CurrentPrice *float64 `json:"currentPrice"`
}

func (h Holding) IsPriced() bool {
	return h.CurrentPrice != nil
}

// UnitPrice returns the current price, falling back to the buy price for unpriced holdings.
func (h Holding) UnitPrice() float64 {
	if h.CurrentPrice == nil {
		return h.BuyPrice
	}
	return *h.CurrentPrice
}

func (h Holding) MarketValue() float64 {
	return h.UnitPrice() * h.Quantity
}

func (h Holding) Cost() float64 {
	return h.BuyPrice * h.Quantity
}

// GainLoss returns the absolute gain of a priced holding, ok is false for unpriced ones.
func (h Holding) GainLoss() (gainLoss float64, ok bool) {
	if h.CurrentPrice == nil {
		return 0, false
	}
	return (*h.CurrentPrice - h.BuyPrice) * h.Quantity, true
}

// HoldingFields contains user editable fields of a holding.
type HoldingFields struct {
	Name     string  `json:"name"`
	Ticker   string  `json:"ticker"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buyPrice"`
}

// Normalize trims the text fields and upper-cases the ticker.
func (f HoldingFields) Normalize() HoldingFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Ticker = strings.ToUpper(strings.TrimSpace(f.Ticker))
	return f
}

func (f HoldingFields) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(f.Name)) < minNameLength {
		return fmt.Errorf("name must be at least %d characters", minNameLength)
	}
	if strings.TrimSpace(f.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	if !isPositiveFinite(f.Quantity) {
		return fmt.Errorf("quantity must be a positive number")
	}
	if !isPositiveFinite(f.BuyPrice) {
		return fmt.Errorf("buy price must be a positive number")
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SymbolCandidate is a symbol lookup result used to assist data entry.
type SymbolCandidate struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

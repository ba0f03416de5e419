package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestHolding_MarketValueFallsBackToBuyPrice(t *testing.T) {
	h := Holding{Quantity: 5, BuyPrice: 100}
	assert.False(t, h.IsPriced())
	assert.Equal(t, 500.0, h.MarketValue())

	_, ok := h.GainLoss()
	assert.False(t, ok)

	h.CurrentPrice = ptr(0)
	assert.True(t, h.IsPriced())
	assert.Equal(t, 0.0, h.MarketValue())

	gl, ok := h.GainLoss()
	require.True(t, ok)
	assert.Equal(t, -500.0, gl)
}

func TestHoldingFields_Validate(t *testing.T) {
	valid := HoldingFields{Name: "Sberbank", Ticker: "SBER", Quantity: 10, BuyPrice: 250.5}

	tests := []struct {
		name    string
		mutate  func(f *HoldingFields)
		wantErr bool
	}{
		{"valid", func(f *HoldingFields) {}, false},
		{"short name", func(f *HoldingFields) { f.Name = "S" }, true},
		{"blank ticker", func(f *HoldingFields) { f.Ticker = "  " }, true},
		{"zero quantity", func(f *HoldingFields) { f.Quantity = 0 }, true},
		{"negative buy price", func(f *HoldingFields) { f.BuyPrice = -1 }, true},
		{"infinite quantity", func(f *HoldingFields) { f.Quantity = math.Inf(1) }, true},
		{"infinite buy price", func(f *HoldingFields) { f.BuyPrice = math.Inf(1) }, true},
		{"NaN quantity", func(f *HoldingFields) { f.Quantity = math.NaN() }, true},
		{"NaN buy price", func(f *HoldingFields) { f.BuyPrice = math.NaN() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHoldingFields_Normalize(t *testing.T) {
	f := HoldingFields{Name: "  Gazprom ", Ticker: " gazp "}.Normalize()
	assert.Equal(t, "Gazprom", f.Name)
	assert.Equal(t, "GAZP", f.Ticker)
}

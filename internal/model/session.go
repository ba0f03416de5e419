package model

type action int

const (
	DefaultAction action = iota
	ExpectingTicker
	ExpectingQuantity
	ExpectingBuyPrice
)

// Session keeps the state of a multi-step telegram dialogue.
type Session struct {
	Action action        `json:"action"`
	Draft  HoldingFields `json:"draft"`
}

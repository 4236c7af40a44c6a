package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPrice is the latest known quote for one ticker
type StockPrice struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      Currency        `json:"currency"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FXRate is an exchange rate between two currencies at a point in time
type FXRate struct {
	Base      Currency        `json:"base"`
	Quote     Currency        `json:"quote"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// QuoteRepository persists last-known quotes so positions can still be
// valued when the provider is unreachable
type QuoteRepository interface {
	Upsert(workspaceID int32, price *StockPrice) error
	GetByTicker(workspaceID int32, ticker string) (*StockPrice, error)
	GetAllByWorkspace(workspaceID int32) ([]*StockPrice, error)
	UpsertFXRate(workspaceID int32, rate *FXRate) error
	GetFXRate(workspaceID int32, base, quote Currency) (*FXRate, error)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Market identifies the exchange a ticker trades on
type Market string

const (
	MarketKR Market = "KR"
	MarketUS Market = "US"
)

// Currency returns the settlement currency for the market
func (m Market) Currency() Currency {
	if m == MarketKR {
		return CurrencyKRW
	}
	return CurrencyUSD
}

// ClassifyTicker guesses the market from the ticker symbol:
// a 6-digit numeric code is a Korean listing (e.g. "005930"),
// anything alphabetic is a US listing (e.g. "AAPL").
func ClassifyTicker(ticker string) Market {
	if len(ticker) == 6 {
		allDigits := true
		for _, r := range ticker {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return MarketKR
		}
	}
	return MarketUS
}

// StockTrade is a single buy or sell execution in a securities account.
// The cash impact of a trade is always derived from quantity, price and
// fee; it is never stored.
type StockTrade struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	AccountID   int32           `json:"accountId"`
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Side        TradeSide       `json:"side"`
	TradeDate   time.Time       `json:"tradeDate"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Fee         decimal.Decimal `json:"fee"`
	Currency    Currency        `json:"currency"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *time.Time      `json:"deletedAt,omitempty"`
}

// GrossAmount returns quantity x price
func (t *StockTrade) GrossAmount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// CashImpact returns the signed effect of the trade on the account's cash:
// negative for buys (gross plus fee leaves the account), positive for
// sells (gross minus fee arrives).
func (t *StockTrade) CashImpact() decimal.Decimal {
	if t.Side == TradeSideBuy {
		return t.GrossAmount().Add(t.Fee).Neg()
	}
	return t.GrossAmount().Sub(t.Fee)
}

// Market returns the market the trade's ticker belongs to
func (t *StockTrade) Market() Market {
	return ClassifyTicker(t.Ticker)
}

// UpdateTradeData holds the mutable fields of a trade
type UpdateTradeData struct {
	TradeDate time.Time
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Fee       decimal.Decimal
	Name      string
}

type TradeFilters struct {
	AccountID *int32
	Ticker    *string
	Side      *TradeSide
	StartDate *time.Time
	EndDate   *time.Time
	Page      int32
	PageSize  int32
}

type PaginatedTrades struct {
	Data       []*StockTrade `json:"data"`
	Page       int32         `json:"page"`
	PageSize   int32         `json:"pageSize"`
	TotalItems int64         `json:"totalItems"`
	TotalPages int32         `json:"totalPages"`
}

// TradeCashSummary holds the net cash impact of all trades on one
// account in one currency
type TradeCashSummary struct {
	AccountID int32
	Currency  Currency
	NetCash   decimal.Decimal
}

// TradeRepository defines the interface for trade persistence
type TradeRepository interface {
	Create(trade *StockTrade) (*StockTrade, error)
	GetByID(workspaceID int32, id int32) (*StockTrade, error)
	GetByWorkspace(workspaceID int32, filters *TradeFilters) (*PaginatedTrades, error)
	// GetAllByWorkspace returns live trades in chronological order.
	// A non-zero through date restricts the result to trades dated on or before it.
	GetAllByWorkspace(workspaceID int32, through time.Time) ([]*StockTrade, error)
	Update(workspaceID int32, id int32, data *UpdateTradeData) (*StockTrade, error)
	SoftDelete(workspaceID int32, id int32) error
	GetCashSummaries(workspaceID int32, through time.Time) ([]*TradeCashSummary, error)
	DistinctTickers(workspaceID int32) ([]string, error)
	EarliestTradeDate(workspaceID int32) (*time.Time, error)
}

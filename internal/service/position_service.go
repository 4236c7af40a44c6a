package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// QuoteSource resolves current prices for valuation
type QuoteSource interface {
	GetQuote(ctx context.Context, workspaceID int32, ticker string) (*domain.StockPrice, error)
}

// Position is the current holding of one ticker in one account,
// derived by folding the trade history in chronological order
type Position struct {
	AccountID   int32           `json:"accountId"`
	Ticker      string          `json:"ticker"`
	Name        string          `json:"name"`
	Market      domain.Market   `json:"market"`
	Currency    domain.Currency `json:"currency"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avgCost"`
	CostBasis   decimal.Decimal `json:"costBasis"`
	RealizedPnL decimal.Decimal `json:"realizedPnl"`

	// Valuation fields, zero when no quote is available
	CurrentPrice  *decimal.Decimal `json:"currentPrice,omitempty"`
	MarketValue   *decimal.Decimal `json:"marketValue,omitempty"`
	UnrealizedPnL *decimal.Decimal `json:"unrealizedPnl,omitempty"`
}

// PositionService derives portfolio positions from trade history
type PositionService struct {
	tradeRepo domain.TradeRepository
	quotes    QuoteSource
}

// NewPositionService creates a new PositionService
func NewPositionService(tradeRepo domain.TradeRepository, quotes QuoteSource) *PositionService {
	return &PositionService{tradeRepo: tradeRepo, quotes: quotes}
}

// GetPositions folds all trades into open positions and values them at
// current quotes. Fully closed positions are dropped; positions whose
// ticker has no quote are returned without valuation fields.
//
// Fees load the cost basis on buys and reduce proceeds on sells, so
// realized P&L is net of both legs' fees. Sells release cost basis at
// the running average cost.
func (s *PositionService) GetPositions(ctx context.Context, workspaceID int32) ([]*Position, error) {
	trades, err := s.tradeRepo.GetAllByWorkspace(workspaceID, time.Time{})
	if err != nil {
		return nil, err
	}

	positions := foldTrades(trades)

	for _, p := range positions {
		price, err := s.quotes.GetQuote(ctx, workspaceID, p.Ticker)
		if err != nil {
			log.Debug().Err(err).Str("ticker", p.Ticker).Msg("Position left unvalued")
			continue
		}
		current := price.Price
		marketValue := p.Quantity.Mul(current)
		unrealized := marketValue.Sub(p.CostBasis)
		p.CurrentPrice = &current
		p.MarketValue = &marketValue
		p.UnrealizedPnL = &unrealized
		if p.Name == "" {
			p.Name = price.Name
		}
	}

	return positions, nil
}

// GetPositionsAsOf folds trades dated on or before the given date,
// without valuation. Used for historical net worth.
func (s *PositionService) GetPositionsAsOf(workspaceID int32, through time.Time) ([]*Position, error) {
	trades, err := s.tradeRepo.GetAllByWorkspace(workspaceID, through)
	if err != nil {
		return nil, err
	}
	return foldTrades(trades), nil
}

type positionKey struct {
	accountID int32
	ticker    string
}

// foldTrades walks trades in chronological order, maintaining quantity,
// average cost and realized P&L per account and ticker
func foldTrades(trades []*domain.StockTrade) []*Position {
	byKey := make(map[positionKey]*Position)
	order := make([]positionKey, 0)

	for _, t := range trades {
		key := positionKey{t.AccountID, t.Ticker}
		p, ok := byKey[key]
		if !ok {
			p = &Position{
				AccountID: t.AccountID,
				Ticker:    t.Ticker,
				Name:      t.Name,
				Market:    t.Market(),
				Currency:  t.Currency,
			}
			byKey[key] = p
			order = append(order, key)
		}
		if p.Name == "" {
			p.Name = t.Name
		}

		if t.Side == domain.TradeSideBuy {
			p.Quantity = p.Quantity.Add(t.Quantity)
			p.CostBasis = p.CostBasis.Add(t.GrossAmount()).Add(t.Fee)
		} else {
			// Release cost basis at the running average; clamp a sell that
			// exceeds the held quantity rather than going negative
			sellQty := t.Quantity
			if sellQty.GreaterThan(p.Quantity) {
				sellQty = p.Quantity
			}
			var released decimal.Decimal
			if p.Quantity.IsPositive() {
				released = p.CostBasis.Mul(sellQty).Div(p.Quantity)
			}
			proceeds := t.Quantity.Mul(t.Price).Sub(t.Fee)
			p.RealizedPnL = p.RealizedPnL.Add(proceeds.Sub(released))
			p.Quantity = p.Quantity.Sub(sellQty)
			p.CostBasis = p.CostBasis.Sub(released)
		}
	}

	result := make([]*Position, 0, len(byKey))
	for _, key := range order {
		p := byKey[key]
		if p.Quantity.IsZero() {
			continue
		}
		p.AvgCost = p.CostBasis.Div(p.Quantity)
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AccountID == result[j].AccountID {
			return result[i].Ticker < result[j].Ticker
		}
		return result[i].AccountID < result[j].AccountID
	})
	return result
}

package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// TradeService handles stock trade business logic
type TradeService struct {
	tradeRepo   domain.TradeRepository
	accountRepo domain.AccountRepository
	publisher   websocket.EventPublisher
}

// NewTradeService creates a new TradeService
func NewTradeService(tradeRepo domain.TradeRepository, accountRepo domain.AccountRepository, publisher websocket.EventPublisher) *TradeService {
	return &TradeService{
		tradeRepo:   tradeRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// CreateTradeInput holds the input for recording a trade
type CreateTradeInput struct {
	AccountID int32
	Ticker    string
	Name      string
	Side      domain.TradeSide
	TradeDate time.Time
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Fee       decimal.Decimal
}

// CreateTrade records a buy or sell execution. Trades live only in
// securities accounts; the settlement currency follows the ticker's
// market, and a sell can never exceed the shares held.
func (s *TradeService) CreateTrade(workspaceID int32, input CreateTradeInput) (*domain.StockTrade, error) {
	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
	if ticker == "" {
		return nil, domain.ErrNameRequired
	}
	if input.Side != domain.TradeSideBuy && input.Side != domain.TradeSideSell {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if !input.Price.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if input.Fee.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.accountRepo.GetByID(workspaceID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if account.AccountType != domain.AccountTypeSecurities {
		return nil, domain.ErrNotSecuritiesAccount
	}

	if input.Side == domain.TradeSideSell {
		held, err := s.heldQuantity(workspaceID, account.ID, ticker, 0)
		if err != nil {
			return nil, err
		}
		if input.Quantity.GreaterThan(held) {
			return nil, domain.ErrInsufficientShares
		}
	}

	trade := &domain.StockTrade{
		WorkspaceID: workspaceID,
		AccountID:   account.ID,
		Ticker:      ticker,
		Name:        strings.TrimSpace(input.Name),
		Side:        input.Side,
		TradeDate:   input.TradeDate,
		Quantity:    input.Quantity,
		Price:       input.Price,
		Fee:         input.Fee,
		Currency:    domain.ClassifyTicker(ticker).Currency(),
	}

	created, err := s.tradeRepo.Create(trade)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.TradeCreated(created))
	return created, nil
}

// GetTrades retrieves a filtered, paginated trade list
func (s *TradeService) GetTrades(workspaceID int32, filters *domain.TradeFilters) (*domain.PaginatedTrades, error) {
	if filters == nil {
		filters = &domain.TradeFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	return s.tradeRepo.GetByWorkspace(workspaceID, filters)
}

// GetTradeByID retrieves a single trade
func (s *TradeService) GetTradeByID(workspaceID int32, id int32) (*domain.StockTrade, error) {
	return s.tradeRepo.GetByID(workspaceID, id)
}

// UpdateTrade updates a trade's mutable fields. Side, ticker and account
// are fixed; re-validates the position when the trade is a sell.
func (s *TradeService) UpdateTrade(workspaceID int32, id int32, data *domain.UpdateTradeData) (*domain.StockTrade, error) {
	existing, err := s.tradeRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !data.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if !data.Price.IsPositive() || data.Fee.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if existing.Side == domain.TradeSideSell {
		held, err := s.heldQuantity(workspaceID, existing.AccountID, existing.Ticker, id)
		if err != nil {
			return nil, err
		}
		if data.Quantity.GreaterThan(held) {
			return nil, domain.ErrInsufficientShares
		}
	}

	updated, err := s.tradeRepo.Update(workspaceID, id, data)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(workspaceID, websocket.TradeUpdated(updated))
	return updated, nil
}

// DeleteTrade soft-deletes a trade. Deleting a buy is refused when the
// remaining trades would leave later sells uncovered, mirroring the
// oversell check on create and update.
func (s *TradeService) DeleteTrade(workspaceID int32, id int32) error {
	existing, err := s.tradeRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	if existing.Side == domain.TradeSideBuy {
		held, err := s.heldQuantity(workspaceID, existing.AccountID, existing.Ticker, id)
		if err != nil {
			return err
		}
		if held.IsNegative() {
			return domain.ErrInsufficientShares
		}
	}

	if err := s.tradeRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}
	s.publisher.Publish(workspaceID, websocket.TradeDeleted(map[string]int32{"id": id}))
	return nil
}

// heldQuantity folds buys minus sells for one ticker in one account,
// excluding the trade identified by excludeID (0 for none)
func (s *TradeService) heldQuantity(workspaceID, accountID int32, ticker string, excludeID int32) (decimal.Decimal, error) {
	trades, err := s.tradeRepo.GetAllByWorkspace(workspaceID, time.Time{})
	if err != nil {
		return decimal.Zero, err
	}

	held := decimal.Zero
	for _, t := range trades {
		if t.AccountID != accountID || t.Ticker != ticker || t.ID == excludeID {
			continue
		}
		if t.Side == domain.TradeSideBuy {
			held = held.Add(t.Quantity)
		} else {
			held = held.Sub(t.Quantity)
		}
	}
	return held, nil
}

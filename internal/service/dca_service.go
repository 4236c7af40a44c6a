package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// DCAService handles recurring purchase plans
type DCAService struct {
	planRepo     domain.DCAPlanRepository
	accountRepo  domain.AccountRepository
	tradeService *TradeService
	quotes       QuoteSource
	publisher    websocket.EventPublisher
}

// NewDCAService creates a new DCAService
func NewDCAService(planRepo domain.DCAPlanRepository, accountRepo domain.AccountRepository, tradeService *TradeService, quotes QuoteSource, publisher websocket.EventPublisher) *DCAService {
	return &DCAService{
		planRepo:     planRepo,
		accountRepo:  accountRepo,
		tradeService: tradeService,
		quotes:       quotes,
		publisher:    publisher,
	}
}

// CreateDCAPlanInput holds the input for creating a plan
type CreateDCAPlanInput struct {
	AccountID  int32
	Ticker     string
	Amount     decimal.Decimal
	DayOfMonth int
	Hour       int
	Minute     int
	Enabled    bool
}

// CreatePlan creates a recurring purchase plan
func (s *DCAService) CreatePlan(workspaceID int32, input CreateDCAPlanInput) (*domain.DCAPlan, error) {
	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
	if ticker == "" {
		return nil, domain.ErrNameRequired
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := validateSchedule(input.DayOfMonth, input.Hour, input.Minute); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(workspaceID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if account.AccountType != domain.AccountTypeSecurities {
		return nil, domain.ErrNotSecuritiesAccount
	}

	plan := &domain.DCAPlan{
		WorkspaceID: workspaceID,
		AccountID:   account.ID,
		Ticker:      ticker,
		Amount:      input.Amount,
		DayOfMonth:  input.DayOfMonth,
		Hour:        input.Hour,
		Minute:      input.Minute,
		Enabled:     input.Enabled,
	}
	return s.planRepo.Create(plan)
}

// GetPlans retrieves all plans for a workspace
func (s *DCAService) GetPlans(workspaceID int32) ([]*domain.DCAPlan, error) {
	return s.planRepo.GetAllByWorkspace(workspaceID)
}

// GetPlanByID retrieves a plan by ID
func (s *DCAService) GetPlanByID(workspaceID int32, id int32) (*domain.DCAPlan, error) {
	return s.planRepo.GetByID(workspaceID, id)
}

// UpdatePlan updates a plan's amount, schedule and enabled flag
func (s *DCAService) UpdatePlan(workspaceID int32, id int32, data *domain.UpdateDCAPlanData) (*domain.DCAPlan, error) {
	if !data.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if err := validateSchedule(data.DayOfMonth, data.Hour, data.Minute); err != nil {
		return nil, err
	}
	return s.planRepo.Update(workspaceID, id, data)
}

// DeletePlan soft-deletes a plan
func (s *DCAService) DeletePlan(workspaceID int32, id int32) error {
	return s.planRepo.SoftDelete(workspaceID, id)
}

// ExecutionResult reports one plan execution
type ExecutionResult struct {
	Plan  *domain.DCAPlan    `json:"plan"`
	Trade *domain.StockTrade `json:"trade"`
}

// ExecutePlan runs one due plan: it prices the ticker, converts the fixed
// amount into the whole number of shares it buys and records a normal buy
// trade, so an automated purchase is indistinguishable from a manual one
// downstream. A plan whose amount buys zero whole shares is skipped
// without stamping lastRunAt, so it retries on the next poll.
func (s *DCAService) ExecutePlan(ctx context.Context, plan *domain.DCAPlan, now time.Time) (*ExecutionResult, error) {
	price, err := s.quotes.GetQuote(ctx, plan.WorkspaceID, plan.Ticker)
	if err != nil {
		return nil, err
	}

	quantity := plan.Amount.Div(price.Price).Floor()
	if !quantity.IsPositive() {
		log.Warn().
			Int32("workspace_id", plan.WorkspaceID).
			Int32("plan_id", plan.ID).
			Str("ticker", plan.Ticker).
			Str("price", price.Price.String()).
			Msg("DCA plan amount buys zero whole shares, skipping")
		return nil, domain.ErrInvalidQuantity
	}

	trade, err := s.tradeService.CreateTrade(plan.WorkspaceID, CreateTradeInput{
		AccountID: plan.AccountID,
		Ticker:    plan.Ticker,
		Name:      price.Name,
		Side:      domain.TradeSideBuy,
		TradeDate: now,
		Quantity:  quantity,
		Price:     price.Price,
		Fee:       decimal.Zero,
	})
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.MarkRun(plan.WorkspaceID, plan.ID, now); err != nil {
		// The trade is already recorded; an unmarked run risks a double
		// buy next poll, so this failure is loud
		log.Error().Err(err).
			Int32("plan_id", plan.ID).
			Int32("trade_id", trade.ID).
			Msg("Failed to mark DCA plan run after trade was recorded")
		return nil, err
	}

	log.Info().
		Int32("workspace_id", plan.WorkspaceID).
		Int32("plan_id", plan.ID).
		Str("ticker", plan.Ticker).
		Str("quantity", quantity.String()).
		Str("price", price.Price.String()).
		Msg("DCA plan executed")

	result := &ExecutionResult{Plan: plan, Trade: trade}
	s.publisher.Publish(plan.WorkspaceID, websocket.DCAPlanExecuted(result))
	return result, nil
}

// RunDuePlans executes every enabled plan that is due at the given time.
// A failing plan is logged and skipped; it never blocks the others.
// Returns the number of plans executed.
func (s *DCAService) RunDuePlans(ctx context.Context, now time.Time) (int, error) {
	plans, err := s.planRepo.GetEnabled()
	if err != nil {
		return 0, err
	}

	executed := 0
	for _, plan := range plans {
		if !plan.IsDue(now) {
			continue
		}
		if _, err := s.ExecutePlan(ctx, plan, now); err != nil {
			log.Error().Err(err).
				Int32("workspace_id", plan.WorkspaceID).
				Int32("plan_id", plan.ID).
				Str("ticker", plan.Ticker).
				Msg("DCA plan execution failed")
			continue
		}
		executed++
	}
	return executed, nil
}

func validateSchedule(dayOfMonth, hour, minute int) error {
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return domain.ErrInvalidSchedule
	}
	if hour < 0 || hour > 23 {
		return domain.ErrInvalidSchedule
	}
	if minute < 0 || minute > 59 {
		return domain.ErrInvalidSchedule
	}
	return nil
}

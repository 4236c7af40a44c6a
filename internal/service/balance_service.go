package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// FXRateSource resolves exchange rates for cross-currency valuation
type FXRateSource interface {
	GetFXRate(ctx context.Context, workspaceID int32, base, quote domain.Currency) (*domain.FXRate, error)
}

// AccountBalance is the derived balance of one account at a point in time
type AccountBalance struct {
	AccountID   int32              `json:"accountId"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	Currency    domain.Currency    `json:"currency"`
	Balance     decimal.Decimal    `json:"balance"`
}

// BalanceService derives account balances from recorded history.
// A balance is never stored: it is always
//
//	initial + income - expense + transfers in - transfers out
//	        + net trade cash + cash adjustment
//
// so a corrected entry is reflected everywhere immediately.
type BalanceService struct {
	accountRepo domain.AccountRepository
	ledgerRepo  domain.LedgerRepository
	tradeRepo   domain.TradeRepository
	fxSource    FXRateSource
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(accountRepo domain.AccountRepository, ledgerRepo domain.LedgerRepository, tradeRepo domain.TradeRepository, fxSource FXRateSource) *BalanceService {
	return &BalanceService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		tradeRepo:   tradeRepo,
		fxSource:    fxSource,
	}
}

// GetBalances computes every live account's balance. A non-zero through
// date computes balances as of that date instead of now.
func (s *BalanceService) GetBalances(ctx context.Context, workspaceID int32, through time.Time) ([]*AccountBalance, error) {
	accounts, err := s.accountRepo.GetAllByWorkspace(workspaceID, false)
	if err != nil {
		return nil, err
	}

	entrySums, err := s.ledgerRepo.GetAccountEntrySummaries(workspaceID, through)
	if err != nil {
		return nil, err
	}
	tradeSums, err := s.tradeRepo.GetCashSummaries(workspaceID, through)
	if err != nil {
		return nil, err
	}

	entryByAccount := make(map[int32]*domain.EntrySummary, len(entrySums))
	for _, sum := range entrySums {
		entryByAccount[sum.AccountID] = sum
	}
	tradesByAccount := make(map[int32][]*domain.TradeCashSummary)
	for _, sum := range tradeSums {
		tradesByAccount[sum.AccountID] = append(tradesByAccount[sum.AccountID], sum)
	}

	result := make([]*AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		balance := account.InitialBalance.Add(account.CashAdjustment)

		if sum, ok := entryByAccount[account.ID]; ok {
			balance = balance.
				Add(sum.SumIncome).
				Sub(sum.SumExpense).
				Add(sum.TransferNet())
		}

		for _, sum := range tradesByAccount[account.ID] {
			cash, err := s.convert(ctx, workspaceID, sum.NetCash, sum.Currency, account.Currency)
			if err != nil {
				log.Warn().Err(err).
					Int32("account_id", account.ID).
					Str("from", string(sum.Currency)).
					Str("to", string(account.Currency)).
					Msg("FX conversion failed, trade cash kept unconverted")
				cash = sum.NetCash
			}
			balance = balance.Add(cash)
		}

		result = append(result, &AccountBalance{
			AccountID:   account.ID,
			Name:        account.Name,
			AccountType: account.AccountType,
			Currency:    account.Currency,
			Balance:     balance,
		})
	}
	return result, nil
}

// GetBalance computes a single account's balance
func (s *BalanceService) GetBalance(ctx context.Context, workspaceID int32, accountID int32) (*AccountBalance, error) {
	if _, err := s.accountRepo.GetByID(workspaceID, accountID); err != nil {
		return nil, err
	}

	balances, err := s.GetBalances(ctx, workspaceID, time.Time{})
	if err != nil {
		return nil, err
	}
	for _, b := range balances {
		if b.AccountID == accountID {
			return b, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *BalanceService) convert(ctx context.Context, workspaceID int32, amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to || amount.IsZero() {
		return amount, nil
	}
	rate, err := s.fxSource.GetFXRate(ctx, workspaceID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate.Rate), nil
}

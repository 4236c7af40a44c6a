package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/util"
)

// BaseCurrency is the currency all net worth figures are reported in
const BaseCurrency = domain.CurrencyKRW

// NetWorthPoint is the net worth snapshot at the end of one month,
// in the base currency
type NetWorthPoint struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Cash        decimal.Decimal `json:"cash"`
	Investments decimal.Decimal `json:"investments"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"netWorth"`
}

// NetWorthService derives the monthly net worth series from history.
// Nothing is ever snapshotted: every point is recomputed from entries
// and trades, so corrections rewrite the whole series consistently.
type NetWorthService struct {
	accountRepo domain.AccountRepository
	ledgerRepo  domain.LedgerRepository
	tradeRepo   domain.TradeRepository
	balances    *BalanceService
	positions   *PositionService
	quotes      QuoteSource
	fxSource    FXRateSource
}

// NewNetWorthService creates a new NetWorthService
func NewNetWorthService(
	accountRepo domain.AccountRepository,
	ledgerRepo domain.LedgerRepository,
	tradeRepo domain.TradeRepository,
	balances *BalanceService,
	positions *PositionService,
	quotes QuoteSource,
	fxSource FXRateSource,
) *NetWorthService {
	return &NetWorthService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		tradeRepo:   tradeRepo,
		balances:    balances,
		positions:   positions,
		quotes:      quotes,
		fxSource:    fxSource,
	}
}

// GetSeries computes one net worth point per month, from the first month
// with any recorded activity through the current month. Historical
// holdings are carried at cost; only the current month is marked to
// market, since no price history is kept.
func (s *NetWorthService) GetSeries(ctx context.Context, workspaceID int32) ([]*NetWorthPoint, error) {
	startYear, startMonth, err := s.firstActivityMonth(workspaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	endYear, endMonth := now.Year(), int(now.Month())

	var series []*NetWorthPoint
	year, month := startYear, startMonth
	for {
		point, err := s.pointFor(ctx, workspaceID, year, month)
		if err != nil {
			return nil, err
		}
		series = append(series, point)

		if year == endYear && month == endMonth {
			break
		}
		year, month = util.NextMonth(year, month)
	}
	return series, nil
}

// GetCurrent computes the net worth point for the current month
func (s *NetWorthService) GetCurrent(ctx context.Context, workspaceID int32) (*NetWorthPoint, error) {
	now := time.Now().UTC()
	return s.pointFor(ctx, workspaceID, now.Year(), int(now.Month()))
}

func (s *NetWorthService) pointFor(ctx context.Context, workspaceID int32, year, month int) (*NetWorthPoint, error) {
	historical := util.IsHistoricalMonth(year, month)
	through := time.Time{}
	if historical {
		through = util.MonthEnd(year, month)
	}

	accountBalances, err := s.balances.GetBalances(ctx, workspaceID, through)
	if err != nil {
		return nil, err
	}

	point := &NetWorthPoint{Year: year, Month: month}
	for _, b := range accountBalances {
		converted, err := s.toBase(ctx, workspaceID, b.Balance, b.Currency)
		if err != nil {
			return nil, err
		}
		if b.AccountType.IsLiability() {
			point.Liabilities = point.Liabilities.Add(converted)
		} else {
			point.Cash = point.Cash.Add(converted)
		}
	}

	positions, err := s.positionValues(ctx, workspaceID, through, historical)
	if err != nil {
		return nil, err
	}
	point.Investments = positions

	point.NetWorth = point.Cash.Add(point.Investments).Add(point.Liabilities)
	return point, nil
}

// positionValues sums open positions in the base currency. Historical
// months use cost basis, the current month uses live quotes with cost
// basis as the fallback.
func (s *NetWorthService) positionValues(ctx context.Context, workspaceID int32, through time.Time, historical bool) (decimal.Decimal, error) {
	positions, err := s.positions.GetPositionsAsOf(workspaceID, through)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range positions {
		value := p.CostBasis
		if !historical {
			if price, err := s.quotes.GetQuote(ctx, workspaceID, p.Ticker); err == nil {
				value = p.Quantity.Mul(price.Price)
			} else {
				log.Debug().Err(err).Str("ticker", p.Ticker).Msg("Valuing position at cost")
			}
		}
		converted, err := s.toBase(ctx, workspaceID, value, p.Currency)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(converted)
	}
	return total, nil
}

// firstActivityMonth finds the earliest month with an entry or a trade,
// defaulting to the current month for an empty workspace
func (s *NetWorthService) firstActivityMonth(workspaceID int32) (int, int, error) {
	entryDate, err := s.ledgerRepo.EarliestEntryDate(workspaceID)
	if err != nil {
		return 0, 0, err
	}
	tradeDate, err := s.tradeRepo.EarliestTradeDate(workspaceID)
	if err != nil {
		return 0, 0, err
	}

	earliest := entryDate
	if earliest == nil || (tradeDate != nil && tradeDate.Before(*earliest)) {
		earliest = tradeDate
	}
	if earliest == nil {
		now := time.Now().UTC()
		return now.Year(), int(now.Month()), nil
	}
	return earliest.Year(), int(earliest.Month()), nil
}

func (s *NetWorthService) toBase(ctx context.Context, workspaceID int32, amount decimal.Decimal, currency domain.Currency) (decimal.Decimal, error) {
	if currency == BaseCurrency || amount.IsZero() {
		return amount, nil
	}
	rate, err := s.fxSource.GetFXRate(ctx, workspaceID, currency, BaseCurrency)
	if err != nil {
		// A missing rate degrades the series, it should not 500 the whole
		// dashboard; keep the unconverted amount and log
		log.Warn().Err(err).Str("currency", string(currency)).Msg("FX conversion unavailable for net worth")
		return amount, nil
	}
	return amount.Mul(rate.Rate), nil
}

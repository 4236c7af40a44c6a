package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// TradeRepository implements domain.TradeRepository using PostgreSQL
type TradeRepository struct {
	pool *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(pool *pgxpool.Pool) *TradeRepository {
	return &TradeRepository{pool: pool}
}

const tradeColumns = `id, workspace_id, account_id, ticker, name, side, trade_date,
	quantity, price, fee, currency, created_at, updated_at, deleted_at`

// Create creates a new trade
func (r *TradeRepository) Create(trade *domain.StockTrade) (*domain.StockTrade, error) {
	ctx := context.Background()

	quantity, err := decimalToPgNumeric(trade.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}
	price, err := decimalToPgNumeric(trade.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	fee, err := decimalToPgNumeric(trade.Fee)
	if err != nil {
		return nil, fmt.Errorf("invalid fee: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO stock_trades (workspace_id, account_id, ticker, name, side, trade_date,
			quantity, price, fee, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+tradeColumns,
		trade.WorkspaceID, trade.AccountID, trade.Ticker, trade.Name, string(trade.Side),
		pgtype.Date{Time: trade.TradeDate, Valid: true}, quantity, price, fee,
		string(trade.Currency))

	return scanTrade(row)
}

// GetByID retrieves a trade by its ID within a workspace
func (r *TradeRepository) GetByID(workspaceID int32, id int32) (*domain.StockTrade, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+tradeColumns+` FROM stock_trades
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	trade, err := scanTrade(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return trade, nil
}

// GetByWorkspace retrieves trades for a workspace with optional filters and pagination
func (r *TradeRepository) GetByWorkspace(workspaceID int32, filters *domain.TradeFilters) (*domain.PaginatedTrades, error) {
	ctx := context.Background()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}

	where := `workspace_id = $1 AND deleted_at IS NULL`
	args := []any{workspaceID}
	if filters != nil {
		if filters.AccountID != nil {
			args = append(args, *filters.AccountID)
			where += fmt.Sprintf(` AND account_id = $%d`, len(args))
		}
		if filters.Ticker != nil {
			args = append(args, *filters.Ticker)
			where += fmt.Sprintf(` AND ticker = $%d`, len(args))
		}
		if filters.Side != nil {
			args = append(args, string(*filters.Side))
			where += fmt.Sprintf(` AND side = $%d`, len(args))
		}
		if filters.StartDate != nil {
			args = append(args, pgtype.Date{Time: *filters.StartDate, Valid: true})
			where += fmt.Sprintf(` AND trade_date >= $%d`, len(args))
		}
		if filters.EndDate != nil {
			args = append(args, pgtype.Date{Time: *filters.EndDate, Valid: true})
			where += fmt.Sprintf(` AND trade_date <= $%d`, len(args))
		}
	}

	var totalItems int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM stock_trades WHERE `+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM stock_trades WHERE %s
		ORDER BY trade_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		tradeColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.StockTrade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTrades{
		Data:       trades,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetAllByWorkspace retrieves live trades in chronological order.
// A zero through date means no date restriction.
func (r *TradeRepository) GetAllByWorkspace(workspaceID int32, through time.Time) ([]*domain.StockTrade, error) {
	ctx := context.Background()

	query := `SELECT ` + tradeColumns + ` FROM stock_trades
		WHERE workspace_id = $1 AND deleted_at IS NULL`
	args := []any{workspaceID}
	if !through.IsZero() {
		args = append(args, pgtype.Date{Time: through, Valid: true})
		query += ` AND trade_date <= $2`
	}
	query += ` ORDER BY trade_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*domain.StockTrade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// Update updates a trade's mutable fields
func (r *TradeRepository) Update(workspaceID int32, id int32, data *domain.UpdateTradeData) (*domain.StockTrade, error) {
	ctx := context.Background()

	quantity, err := decimalToPgNumeric(data.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}
	price, err := decimalToPgNumeric(data.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	fee, err := decimalToPgNumeric(data.Fee)
	if err != nil {
		return nil, fmt.Errorf("invalid fee: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE stock_trades
		SET trade_date = $3, quantity = $4, price = $5, fee = $6, name = $7, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+tradeColumns,
		workspaceID, id, pgtype.Date{Time: data.TradeDate, Valid: true},
		quantity, price, fee, data.Name)

	trade, err := scanTrade(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return trade, nil
}

// SoftDelete marks a trade as deleted
func (r *TradeRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE stock_trades SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}

// GetCashSummaries folds trade cash impact per account and currency.
// A zero through date means no date restriction.
func (r *TradeRepository) GetCashSummaries(workspaceID int32, through time.Time) ([]*domain.TradeCashSummary, error) {
	ctx := context.Background()

	query := `
		SELECT account_id, currency,
			COALESCE(SUM(CASE WHEN side = 'buy'
				THEN -(quantity * price + fee)
				ELSE quantity * price - fee END), 0)
		FROM stock_trades
		WHERE workspace_id = $1 AND deleted_at IS NULL`
	args := []any{workspaceID}
	if !through.IsZero() {
		args = append(args, pgtype.Date{Time: through, Valid: true})
		query += ` AND trade_date <= $2`
	}
	query += ` GROUP BY account_id, currency`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.TradeCashSummary
	for rows.Next() {
		var (
			s        domain.TradeCashSummary
			currency string
			netCash  pgtype.Numeric
		)
		if err := rows.Scan(&s.AccountID, &currency, &netCash); err != nil {
			return nil, err
		}
		s.Currency = domain.Currency(currency)
		s.NetCash = pgNumericToDecimal(netCash)
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// DistinctTickers returns every ticker with at least one live trade
func (r *TradeRepository) DistinctTickers(workspaceID int32) ([]string, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ticker FROM stock_trades
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY ticker`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, err
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}

// EarliestTradeDate returns the date of the oldest live trade, or nil if none exist
func (r *TradeRepository) EarliestTradeDate(workspaceID int32) (*time.Time, error) {
	ctx := context.Background()

	var earliest pgtype.Date
	err := r.pool.QueryRow(ctx, `
		SELECT min(trade_date) FROM stock_trades
		WHERE workspace_id = $1 AND deleted_at IS NULL`,
		workspaceID).Scan(&earliest)
	if err != nil {
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &earliest.Time, nil
}

func scanTrade(row pgx.Row) (*domain.StockTrade, error) {
	var (
		trade     domain.StockTrade
		side      string
		tradeDate pgtype.Date
		quantity  pgtype.Numeric
		price     pgtype.Numeric
		fee       pgtype.Numeric
		currency  string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)

	err := row.Scan(&trade.ID, &trade.WorkspaceID, &trade.AccountID, &trade.Ticker,
		&trade.Name, &side, &tradeDate, &quantity, &price, &fee, &currency,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	trade.Side = domain.TradeSide(side)
	trade.TradeDate = tradeDate.Time
	trade.Quantity = pgNumericToDecimal(quantity)
	trade.Price = pgNumericToDecimal(price)
	trade.Fee = pgNumericToDecimal(fee)
	trade.Currency = domain.Currency(currency)
	trade.CreatedAt = createdAt.Time
	trade.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		trade.DeletedAt = &deletedAt.Time
	}
	return &trade, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// QuoteRepository implements domain.QuoteRepository using PostgreSQL.
// It stores only the last-known quote per ticker; the 5-minute cache
// in front of it lives in the quote service.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Upsert stores or replaces the last-known quote for a ticker
func (r *QuoteRepository) Upsert(workspaceID int32, price *domain.StockPrice) error {
	ctx := context.Background()

	p, err := decimalToPgNumeric(price.Price)
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	change, err := decimalToPgNumeric(price.Change)
	if err != nil {
		return fmt.Errorf("invalid change: %w", err)
	}
	changePercent, err := decimalToPgNumeric(price.ChangePercent)
	if err != nil {
		return fmt.Errorf("invalid change percent: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO stock_prices (workspace_id, ticker, name, price, currency, change, change_percent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workspace_id, ticker) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, currency = EXCLUDED.currency,
			change = EXCLUDED.change, change_percent = EXCLUDED.change_percent,
			updated_at = EXCLUDED.updated_at`,
		workspaceID, price.Ticker, price.Name, p, string(price.Currency),
		change, changePercent, pgtype.Timestamptz{Time: price.UpdatedAt, Valid: true})
	return err
}

// GetByTicker retrieves the last-known quote for a ticker
func (r *QuoteRepository) GetByTicker(workspaceID int32, ticker string) (*domain.StockPrice, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT ticker, name, price, currency, change, change_percent, updated_at
		FROM stock_prices WHERE workspace_id = $1 AND ticker = $2`,
		workspaceID, ticker)

	price, err := scanStockPrice(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, err
	}
	return price, nil
}

// GetAllByWorkspace retrieves every stored quote for a workspace
func (r *QuoteRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.StockPrice, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT ticker, name, price, currency, change, change_percent, updated_at
		FROM stock_prices WHERE workspace_id = $1 ORDER BY ticker`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []*domain.StockPrice
	for rows.Next() {
		price, err := scanStockPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

// UpsertFXRate stores or replaces an exchange rate
func (r *QuoteRepository) UpsertFXRate(workspaceID int32, rate *domain.FXRate) error {
	ctx := context.Background()

	v, err := decimalToPgNumeric(rate.Rate)
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO fx_rates (workspace_id, base, quote, rate, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workspace_id, base, quote) DO UPDATE
		SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at`,
		workspaceID, string(rate.Base), string(rate.Quote), v,
		pgtype.Timestamptz{Time: rate.UpdatedAt, Valid: true})
	return err
}

// GetFXRate retrieves the stored exchange rate for a currency pair
func (r *QuoteRepository) GetFXRate(workspaceID int32, base, quote domain.Currency) (*domain.FXRate, error) {
	ctx := context.Background()

	var (
		rate      domain.FXRate
		v         pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `
		SELECT rate, updated_at FROM fx_rates
		WHERE workspace_id = $1 AND base = $2 AND quote = $3`,
		workspaceID, string(base), string(quote)).Scan(&v, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, err
	}

	rate.Base = base
	rate.Quote = quote
	rate.Rate = pgNumericToDecimal(v)
	rate.UpdatedAt = updatedAt.Time
	return &rate, nil
}

func scanStockPrice(row pgx.Row) (*domain.StockPrice, error) {
	var (
		price         domain.StockPrice
		p             pgtype.Numeric
		currency      string
		change        pgtype.Numeric
		changePercent pgtype.Numeric
		updatedAt     pgtype.Timestamptz
	)

	err := row.Scan(&price.Ticker, &price.Name, &p, &currency, &change, &changePercent, &updatedAt)
	if err != nil {
		return nil, err
	}

	price.Price = pgNumericToDecimal(p)
	price.Currency = domain.Currency(currency)
	price.Change = pgNumericToDecimal(change)
	price.ChangePercent = pgNumericToDecimal(changePercent)
	price.UpdatedAt = updatedAt.Time
	return &price, nil
}

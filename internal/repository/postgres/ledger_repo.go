package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// LedgerRepository implements domain.LedgerRepository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const entryColumns = `id, workspace_id, account_id, kind, direction, category, sub_category,
	description, amount, currency, entry_date, transfer_pair_id, fx_rate, notes, receipt_key,
	created_at, updated_at, deleted_at`

// Create creates a new ledger entry
func (r *LedgerRepository) Create(entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	ctx := context.Background()
	return r.create(ctx, r.pool, entry)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *LedgerRepository) create(ctx context.Context, q queryer, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var direction pgtype.Text
	if entry.Direction != nil {
		direction = pgtype.Text{String: string(*entry.Direction), Valid: true}
	}

	var transferPairID pgtype.UUID
	if entry.TransferPairID != nil {
		transferPairID = pgtype.UUID{Bytes: *entry.TransferPairID, Valid: true}
	}

	var fxRate pgtype.Numeric
	if entry.FXRate != nil {
		fxRate, err = decimalToPgNumeric(*entry.FXRate)
		if err != nil {
			return nil, fmt.Errorf("invalid fx rate: %w", err)
		}
	}

	row := q.QueryRow(ctx, `
		INSERT INTO ledger_entries (workspace_id, account_id, kind, direction, category,
			sub_category, description, amount, currency, entry_date, transfer_pair_id, fx_rate, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+entryColumns,
		entry.WorkspaceID, entry.AccountID, string(entry.Kind), direction, entry.Category,
		pgTextFromPtr(entry.SubCategory), entry.Description, amount, string(entry.Currency),
		pgtype.Date{Time: entry.EntryDate, Valid: true}, transferPairID, fxRate,
		pgTextFromPtr(entry.Notes))

	return scanEntry(row)
}

// GetByID retrieves an entry by its ID within a workspace
func (r *LedgerRepository) GetByID(workspaceID int32, id int32) (*domain.LedgerEntry, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	entry, err := scanEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// GetByWorkspace retrieves entries for a workspace with optional filters and pagination
func (r *LedgerRepository) GetByWorkspace(workspaceID int32, filters *domain.EntryFilters) (*domain.PaginatedEntries, error) {
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
		if filters.Kind != nil {
			args = append(args, string(*filters.Kind))
			where += fmt.Sprintf(` AND kind = $%d`, len(args))
		}
		if filters.Category != nil {
			args = append(args, *filters.Category)
			where += fmt.Sprintf(` AND category = $%d`, len(args))
		}
		if filters.StartDate != nil {
			args = append(args, pgtype.Date{Time: *filters.StartDate, Valid: true})
			where += fmt.Sprintf(` AND entry_date >= $%d`, len(args))
		}
		if filters.EndDate != nil {
			args = append(args, pgtype.Date{Time: *filters.EndDate, Valid: true})
			where += fmt.Sprintf(` AND entry_date <= $%d`, len(args))
		}
	}

	var totalItems int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM ledger_entries WHERE `+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries WHERE %s
		ORDER BY entry_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedEntries{
		Data:       entries,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// Update updates an entry's details
func (r *LedgerRepository) Update(workspaceID int32, id int32, data *domain.UpdateEntryData) (*domain.LedgerEntry, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE ledger_entries
		SET account_id = $3, category = $4, sub_category = $5, description = $6,
			amount = $7, entry_date = $8, notes = $9, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+entryColumns,
		workspaceID, id, data.AccountID, data.Category, pgTextFromPtr(data.SubCategory),
		data.Description, amount, pgtype.Date{Time: data.EntryDate, Valid: true},
		pgTextFromPtr(data.Notes))

	entry, err := scanEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// SoftDelete marks an entry as deleted
func (r *LedgerRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// CreateTransferPair creates two linked entries atomically
func (r *LedgerRepository) CreateTransferPair(fromEntry, toEntry *domain.LedgerEntry) (*domain.TransferResult, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	fromResult, err := r.create(ctx, tx, fromEntry)
	if err != nil {
		return nil, err
	}

	toResult, err := r.create(ctx, tx, toEntry)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.TransferResult{
		FromEntry: fromResult,
		ToEntry:   toResult,
	}, nil
}

// SoftDeleteTransferPair soft deletes both entries in a transfer pair
func (r *LedgerRepository) SoftDeleteTransferPair(workspaceID int32, pairID uuid.UUID) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND transfer_pair_id = $2 AND deleted_at IS NULL`,
		workspaceID, pgtype.UUID{Bytes: pairID, Valid: true})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// SetReceiptKey attaches or detaches a receipt object key on an entry
func (r *LedgerRepository) SetReceiptKey(workspaceID int32, id int32, key *string) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries SET receipt_key = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id, pgTextFromPtr(key))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// GetAccountEntrySummaries folds live entries into per-account sums.
// A zero through date means no date restriction.
func (r *LedgerRepository) GetAccountEntrySummaries(workspaceID int32, through time.Time) ([]*domain.EntrySummary, error) {
	ctx := context.Background()

	query := `
		SELECT account_id,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'transfer' AND direction = 'in'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'transfer' AND direction = 'out'), 0)
		FROM ledger_entries
		WHERE workspace_id = $1 AND deleted_at IS NULL`
	args := []any{workspaceID}
	if !through.IsZero() {
		args = append(args, pgtype.Date{Time: through, Valid: true})
		query += ` AND entry_date <= $2`
	}
	query += ` GROUP BY account_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.EntrySummary
	for rows.Next() {
		var (
			s                                      domain.EntrySummary
			income, expense, transferIn, transferOut pgtype.Numeric
		)
		if err := rows.Scan(&s.AccountID, &income, &expense, &transferIn, &transferOut); err != nil {
			return nil, err
		}
		s.SumIncome = pgNumericToDecimal(income)
		s.SumExpense = pgNumericToDecimal(expense)
		s.SumTransferIn = pgNumericToDecimal(transferIn)
		s.SumTransferOut = pgNumericToDecimal(transferOut)
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// CountByCategory counts live entries referencing a category name
func (r *LedgerRepository) CountByCategory(workspaceID int32, category string) (int64, error) {
	ctx := context.Background()

	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM ledger_entries
		WHERE workspace_id = $1 AND category = $2 AND deleted_at IS NULL`,
		workspaceID, category).Scan(&count)
	return count, err
}

// EarliestEntryDate returns the date of the oldest live entry, or nil if none exist
func (r *LedgerRepository) EarliestEntryDate(workspaceID int32) (*time.Time, error) {
	ctx := context.Background()

	var earliest pgtype.Date
	err := r.pool.QueryRow(ctx, `
		SELECT min(entry_date) FROM ledger_entries
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

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry          domain.LedgerEntry
		kind           string
		direction      pgtype.Text
		subCategory    pgtype.Text
		amount         pgtype.Numeric
		currency       string
		entryDate      pgtype.Date
		transferPairID pgtype.UUID
		fxRate         pgtype.Numeric
		notes          pgtype.Text
		receiptKey     pgtype.Text
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
		deletedAt      pgtype.Timestamptz
	)

	err := row.Scan(&entry.ID, &entry.WorkspaceID, &entry.AccountID, &kind, &direction,
		&entry.Category, &subCategory, &entry.Description, &amount, &currency, &entryDate,
		&transferPairID, &fxRate, &notes, &receiptKey, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.EntryKind(kind)
	if direction.Valid {
		d := domain.TransferDirection(direction.String)
		entry.Direction = &d
	}
	entry.SubCategory = ptrFromPgText(subCategory)
	entry.Amount = pgNumericToDecimal(amount)
	entry.Currency = domain.Currency(currency)
	entry.EntryDate = entryDate.Time
	if transferPairID.Valid {
		pairID := uuid.UUID(transferPairID.Bytes)
		entry.TransferPairID = &pairID
	}
	if fxRate.Valid {
		rate := pgNumericToDecimal(fxRate)
		entry.FXRate = &rate
	}
	entry.Notes = ptrFromPgText(notes)
	entry.ReceiptKey = ptrFromPgText(receiptKey)
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		entry.DeletedAt = &deletedAt.Time
	}
	return &entry, nil
}

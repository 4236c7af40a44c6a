package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, workspace_id, name, account_type, currency, initial_balance, cash_adjustment, created_at, updated_at, deleted_at`

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	initialBalance, err := decimalToPgNumeric(account.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance: %w", err)
	}
	cashAdjustment, err := decimalToPgNumeric(account.CashAdjustment)
	if err != nil {
		return nil, fmt.Errorf("invalid cash adjustment: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (workspace_id, name, account_type, currency, initial_balance, cash_adjustment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		account.WorkspaceID, account.Name, string(account.AccountType),
		string(account.Currency), initialBalance, cashAdjustment)

	return scanAccount(row)
}

// GetByID retrieves an account by its ID within a workspace
func (r *AccountRepository) GetByID(workspaceID int32, id int32) (*domain.Account, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllByWorkspace retrieves all accounts for a workspace
func (r *AccountRepository) GetAllByWorkspace(workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	ctx := context.Background()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE workspace_id = $1`
	if !includeArchived {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Update updates an account's mutable fields
func (r *AccountRepository) Update(workspaceID int32, id int32, data *domain.UpdateAccountData) (*domain.Account, error) {
	ctx := context.Background()

	cashAdjustment, err := decimalToPgNumeric(data.CashAdjustment)
	if err != nil {
		return nil, fmt.Errorf("invalid cash adjustment: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $3, cash_adjustment = $4, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+accountColumns,
		workspaceID, id, data.Name, cashAdjustment)

	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// SoftDelete marks an account as deleted (sets deleted_at timestamp)
func (r *AccountRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account        domain.Account
		accountType    string
		currency       string
		initialBalance pgtype.Numeric
		cashAdjustment pgtype.Numeric
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
		deletedAt      pgtype.Timestamptz
	)

	err := row.Scan(&account.ID, &account.WorkspaceID, &account.Name, &accountType,
		&currency, &initialBalance, &cashAdjustment, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	account.AccountType = domain.AccountType(accountType)
	account.Currency = domain.Currency(currency)
	account.InitialBalance = pgNumericToDecimal(initialBalance)
	account.CashAdjustment = pgNumericToDecimal(cashAdjustment)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}
	return &account, nil
}

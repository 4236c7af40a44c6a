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

// DCAPlanRepository implements domain.DCAPlanRepository using PostgreSQL
type DCAPlanRepository struct {
	pool *pgxpool.Pool
}

// NewDCAPlanRepository creates a new DCAPlanRepository
func NewDCAPlanRepository(pool *pgxpool.Pool) *DCAPlanRepository {
	return &DCAPlanRepository{pool: pool}
}

const dcaPlanColumns = `id, workspace_id, account_id, ticker, amount, day_of_month,
	hour, minute, enabled, last_run_at, created_at, updated_at, deleted_at`

// Create creates a new DCA plan
func (r *DCAPlanRepository) Create(plan *domain.DCAPlan) (*domain.DCAPlan, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(plan.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO dca_plans (workspace_id, account_id, ticker, amount, day_of_month, hour, minute, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+dcaPlanColumns,
		plan.WorkspaceID, plan.AccountID, plan.Ticker, amount,
		plan.DayOfMonth, plan.Hour, plan.Minute, plan.Enabled)

	return scanDCAPlan(row)
}

// GetByID retrieves a plan by its ID within a workspace
func (r *DCAPlanRepository) GetByID(workspaceID int32, id int32) (*domain.DCAPlan, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+dcaPlanColumns+` FROM dca_plans
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	plan, err := scanDCAPlan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetAllByWorkspace retrieves all live plans for a workspace
func (r *DCAPlanRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.DCAPlan, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+dcaPlanColumns+` FROM dca_plans
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDCAPlans(rows)
}

// GetEnabled retrieves every enabled live plan across all workspaces.
// Used by the background worker.
func (r *DCAPlanRepository) GetEnabled() ([]*domain.DCAPlan, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+dcaPlanColumns+` FROM dca_plans
		WHERE enabled AND deleted_at IS NULL
		ORDER BY workspace_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDCAPlans(rows)
}

// Update updates a plan's mutable fields
func (r *DCAPlanRepository) Update(workspaceID int32, id int32, data *domain.UpdateDCAPlanData) (*domain.DCAPlan, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE dca_plans
		SET amount = $3, day_of_month = $4, hour = $5, minute = $6, enabled = $7, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+dcaPlanColumns,
		workspaceID, id, amount, data.DayOfMonth, data.Hour, data.Minute, data.Enabled)

	plan, err := scanDCAPlan(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// MarkRun stamps the plan's last execution time
func (r *DCAPlanRepository) MarkRun(workspaceID int32, id int32, ranAt time.Time) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE dca_plans SET last_run_at = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id, pgtype.Timestamptz{Time: ranAt, Valid: true})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

// SoftDelete marks a plan as deleted
func (r *DCAPlanRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE dca_plans SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func collectDCAPlans(rows pgx.Rows) ([]*domain.DCAPlan, error) {
	var plans []*domain.DCAPlan
	for rows.Next() {
		plan, err := scanDCAPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanDCAPlan(row pgx.Row) (*domain.DCAPlan, error) {
	var (
		plan      domain.DCAPlan
		amount    pgtype.Numeric
		lastRunAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)

	err := row.Scan(&plan.ID, &plan.WorkspaceID, &plan.AccountID, &plan.Ticker, &amount,
		&plan.DayOfMonth, &plan.Hour, &plan.Minute, &plan.Enabled, &lastRunAt,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	plan.Amount = pgNumericToDecimal(amount)
	if lastRunAt.Valid {
		plan.LastRunAt = &lastRunAt.Time
	}
	plan.CreatedAt = createdAt.Time
	plan.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		plan.DeletedAt = &deletedAt.Time
	}
	return &plan, nil
}

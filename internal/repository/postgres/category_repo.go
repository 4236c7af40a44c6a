package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, workspace_id, name, sub_categories, created_at, updated_at, deleted_at`

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (workspace_id, name, sub_categories)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		category.WorkspaceID, category.Name, category.SubCategories)

	return scanCategory(row)
}

// GetByID retrieves a category by its ID within a workspace
func (r *CategoryRepository) GetByID(workspaceID int32, id int32) (*domain.Category, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)

	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetByName retrieves a category by name within a workspace
func (r *CategoryRepository) GetByName(workspaceID int32, name string) (*domain.Category, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1 AND name = $2 AND deleted_at IS NULL`,
		workspaceID, name)

	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByWorkspace retrieves all live categories for a workspace
func (r *CategoryRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Category, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1 AND deleted_at IS NULL
		ORDER BY name`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a category's name and sub-categories
func (r *CategoryRepository) Update(workspaceID int32, id int32, name string, subCategories []string) (*domain.Category, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, sub_categories = $4, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+categoryColumns,
		workspaceID, id, name, subCategories)

	category, err := scanCategory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Rename updates the category row and rewrites referencing ledger entries atomically
func (r *CategoryRepository) Rename(workspaceID int32, id int32, newName string) (int64, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var oldName string
	err = tx.QueryRow(ctx, `
		SELECT name FROM categories
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		FOR UPDATE`,
		workspaceID, id).Scan(&oldName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrCategoryNotFound
		}
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE categories SET name = $3, updated_at = now()
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id, newName); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE ledger_entries SET category = $3, updated_at = now()
		WHERE workspace_id = $1 AND category = $2 AND deleted_at IS NULL`,
		workspaceID, oldName, newName)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SoftDelete marks a category as deleted
func (r *CategoryRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET deleted_at = now(), updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category  domain.Category
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)

	err := row.Scan(&category.ID, &category.WorkspaceID, &category.Name,
		&category.SubCategories, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	category.CreatedAt = createdAt.Time
	category.UpdatedAt = updatedAt.Time
	if deletedAt.Valid {
		category.DeletedAt = &deletedAt.Time
	}
	return &category, nil
}

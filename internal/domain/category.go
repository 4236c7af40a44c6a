package domain

import "time"

// Category is an expense/income category with optional sub-categories
type Category struct {
	ID            int32      `json:"id"`
	WorkspaceID   int32      `json:"workspaceId"`
	Name          string     `json:"name"`
	SubCategories []string   `json:"subCategories"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(workspaceID int32, id int32) (*Category, error)
	GetByName(workspaceID int32, name string) (*Category, error)
	GetAllByWorkspace(workspaceID int32) ([]*Category, error)
	Update(workspaceID int32, id int32, name string, subCategories []string) (*Category, error)
	// Rename updates the category row and rewrites every ledger entry that
	// references the old name, atomically. Returns the number of entries touched.
	Rename(workspaceID int32, id int32, newName string) (int64, error)
	SoftDelete(workspaceID int32, id int32) error
}

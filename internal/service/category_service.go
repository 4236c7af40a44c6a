package service

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	ledgerRepo   domain.LedgerRepository
	publisher    websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, ledgerRepo domain.LedgerRepository, publisher websocket.EventPublisher) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		ledgerRepo:   ledgerRepo,
		publisher:    publisher,
	}
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(workspaceID int32, name string, subCategories []string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetByName(workspaceID, name); err == nil {
		return nil, domain.ErrAlreadyExists
	}

	category := &domain.Category{
		WorkspaceID:   workspaceID,
		Name:          name,
		SubCategories: normalizeSubCategories(subCategories),
	}
	return s.categoryRepo.Create(category)
}

// GetCategories retrieves all categories for a workspace
func (s *CategoryService) GetCategories(workspaceID int32) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllByWorkspace(workspaceID)
}

// GetCategoryByID retrieves a category by ID
func (s *CategoryService) GetCategoryByID(workspaceID int32, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(workspaceID, id)
}

// UpdateSubCategories replaces a category's sub-category list
func (s *CategoryService) UpdateSubCategories(workspaceID int32, id int32, subCategories []string) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Update(workspaceID, id, category.Name, normalizeSubCategories(subCategories))
}

// RenameResult reports the outcome of a category rename
type RenameResult struct {
	Category       *domain.Category `json:"category"`
	EntriesUpdated int64            `json:"entriesUpdated"`
}

// RenameCategory renames a category and rewrites every ledger entry that
// references the old name in the same transaction. Entries keyed by
// category name can therefore never point at a name that no longer exists.
func (s *CategoryService) RenameCategory(workspaceID int32, id int32, newName string) (*RenameResult, error) {
	newName, err := validateCategoryName(newName)
	if err != nil {
		return nil, err
	}

	if existing, err := s.categoryRepo.GetByName(workspaceID, newName); err == nil && existing.ID != id {
		return nil, domain.ErrAlreadyExists
	}

	touched, err := s.categoryRepo.Rename(workspaceID, id, newName)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("category_id", id).
		Str("new_name", newName).
		Int64("entries_updated", touched).
		Msg("Category renamed")

	s.publisher.Publish(workspaceID, websocket.CategoryUpdated(category))
	return &RenameResult{Category: category, EntriesUpdated: touched}, nil
}

// DeleteCategory soft-deletes a category. A category still referenced by
// live ledger entries cannot be deleted.
func (s *CategoryService) DeleteCategory(workspaceID int32, id int32) error {
	category, err := s.categoryRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}

	count, err := s.ledgerRepo.CountByCategory(workspaceID, category.Name)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrCategoryInUse
	}

	return s.categoryRepo.SoftDelete(workspaceID, id)
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// normalizeSubCategories trims entries and drops empties and duplicates,
// preserving order
func normalizeSubCategories(subCategories []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(subCategories))
	for _, sc := range subCategories {
		sc = strings.TrimSpace(sc)
		if sc == "" || seen[sc] {
			continue
		}
		seen[sc] = true
		result = append(result, sc)
	}
	return result
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subCategories,omitempty"`
}

// UpdateSubCategoriesRequest represents the sub-category update request body
type UpdateSubCategoriesRequest struct {
	SubCategories []string `json:"subCategories"`
}

// RenameCategoryRequest represents the rename request body
type RenameCategoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(workspaceID, req.Name, req.SubCategories)
	if err != nil {
		return h.mapCategoryError(c, workspaceID, err, "Failed to create category")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("name", category.Name).Msg("Category created")
	return c.JSON(http.StatusCreated, category)
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	categories, err := h.categoryService.GetCategories(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get categories")
		return NewInternalError(c, "Failed to get categories")
	}

	return c.JSON(http.StatusOK, categories)
}

// UpdateSubCategories handles PUT /api/v1/categories/:id/subcategories
func (h *CategoryHandler) UpdateSubCategories(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateSubCategoriesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateSubCategories(workspaceID, int32(id), req.SubCategories)
	if err != nil {
		return h.mapCategoryError(c, workspaceID, err, "Failed to update sub-categories")
	}

	return c.JSON(http.StatusOK, category)
}

// RenameCategory handles PUT /api/v1/categories/:id/name.
// Every ledger entry referencing the old name is rewritten in the same
// transaction; the response reports how many were touched.
func (h *CategoryHandler) RenameCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req RenameCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.categoryService.RenameCategory(workspaceID, int32(id), req.Name)
	if err != nil {
		return h.mapCategoryError(c, workspaceID, err, "Failed to rename category")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("category_id", id).
		Str("name", result.Category.Name).
		Int64("entries_updated", result.EntriesUpdated).
		Msg("Category renamed")

	return c.JSON(http.StatusOK, result)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrCategoryInUse) {
			return NewConflictError(c, "Category is referenced by ledger entries")
		}
		return h.mapCategoryError(c, workspaceID, err, "Failed to delete category")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) mapCategoryError(c echo.Context, workspaceID int32, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, "A category with that name already exists")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		})
	default:
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg(logMsg)
		return NewInternalError(c, logMsg)
	}
}

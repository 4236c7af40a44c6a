package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// DCAHandler handles recurring purchase plan HTTP requests
type DCAHandler struct {
	dcaService *service.DCAService
}

// NewDCAHandler creates a new DCAHandler
func NewDCAHandler(dcaService *service.DCAService) *DCAHandler {
	return &DCAHandler{dcaService: dcaService}
}

// CreateDCAPlanRequest represents the create plan request body
type CreateDCAPlanRequest struct {
	AccountID  int32  `json:"accountId"`
	Ticker     string `json:"ticker"`
	Amount     string `json:"amount"`
	DayOfMonth int    `json:"dayOfMonth"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// UpdateDCAPlanRequest represents the update plan request body
type UpdateDCAPlanRequest struct {
	Amount     string `json:"amount"`
	DayOfMonth int    `json:"dayOfMonth"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	Enabled    bool   `json:"enabled"`
}

// CreatePlan handles POST /api/v1/dca-plans
func (h *DCAHandler) CreatePlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateDCAPlanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be a valid number"},
		})
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	plan, err := h.dcaService.CreatePlan(workspaceID, service.CreateDCAPlanInput{
		AccountID:  req.AccountID,
		Ticker:     req.Ticker,
		Amount:     amount,
		DayOfMonth: req.DayOfMonth,
		Hour:       req.Hour,
		Minute:     req.Minute,
		Enabled:    enabled,
	})
	if err != nil {
		return h.mapDCAError(c, workspaceID, err, "Failed to create plan")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("ticker", plan.Ticker).
		Int("day_of_month", plan.DayOfMonth).
		Msg("DCA plan created")

	return c.JSON(http.StatusCreated, plan)
}

// GetPlans handles GET /api/v1/dca-plans
func (h *DCAHandler) GetPlans(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	plans, err := h.dcaService.GetPlans(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get plans")
		return NewInternalError(c, "Failed to get plans")
	}

	return c.JSON(http.StatusOK, plans)
}

// GetPlan handles GET /api/v1/dca-plans/:id
func (h *DCAHandler) GetPlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	plan, err := h.dcaService.GetPlanByID(workspaceID, int32(id))
	if err != nil {
		return h.mapDCAError(c, workspaceID, err, "Failed to get plan")
	}

	return c.JSON(http.StatusOK, plan)
}

// UpdatePlan handles PUT /api/v1/dca-plans/:id
func (h *DCAHandler) UpdatePlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	var req UpdateDCAPlanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be a valid number"},
		})
	}

	plan, err := h.dcaService.UpdatePlan(workspaceID, int32(id), &domain.UpdateDCAPlanData{
		Amount:     amount,
		DayOfMonth: req.DayOfMonth,
		Hour:       req.Hour,
		Minute:     req.Minute,
		Enabled:    req.Enabled,
	})
	if err != nil {
		return h.mapDCAError(c, workspaceID, err, "Failed to update plan")
	}

	return c.JSON(http.StatusOK, plan)
}

// DeletePlan handles DELETE /api/v1/dca-plans/:id
func (h *DCAHandler) DeletePlan(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	if err := h.dcaService.DeletePlan(workspaceID, int32(id)); err != nil {
		return h.mapDCAError(c, workspaceID, err, "Failed to delete plan")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *DCAHandler) mapDCAError(c echo.Context, workspaceID int32, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		return NewNotFoundError(c, "Plan not found")
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account not found")
	case errors.Is(err, domain.ErrNotSecuritiesAccount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "accountId", Message: "Plans require a securities account"},
		})
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "ticker", Message: "Ticker is required"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidSchedule):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "dayOfMonth", Message: "Schedule must be a valid day of month, hour and minute"},
		})
	default:
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg(logMsg)
		return NewInternalError(c, logMsg)
	}
}

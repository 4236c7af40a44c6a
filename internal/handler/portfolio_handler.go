package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/wonbook/wonbook-backend/internal/middleware"
	"github.com/wonbook/wonbook-backend/internal/service"
)

// PortfolioHandler handles derived portfolio views: open positions and
// the month-by-month net worth series
type PortfolioHandler struct {
	positionService *service.PositionService
	netWorthService *service.NetWorthService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(positionService *service.PositionService, netWorthService *service.NetWorthService) *PortfolioHandler {
	return &PortfolioHandler{
		positionService: positionService,
		netWorthService: netWorthService,
	}
}

// GetPositions handles GET /api/v1/portfolio/positions
func (h *PortfolioHandler) GetPositions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	positions, err := h.positionService.GetPositions(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get positions")
		return NewInternalError(c, "Failed to get positions")
	}

	return c.JSON(http.StatusOK, positions)
}

// GetNetWorthSeries handles GET /api/v1/portfolio/networth
func (h *PortfolioHandler) GetNetWorthSeries(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	series, err := h.netWorthService.GetSeries(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get net worth series")
		return NewInternalError(c, "Failed to get net worth series")
	}

	return c.JSON(http.StatusOK, series)
}

// GetNetWorthCurrent handles GET /api/v1/portfolio/networth/current
func (h *PortfolioHandler) GetNetWorthCurrent(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	point, err := h.netWorthService.GetCurrent(c.Request().Context(), workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get current net worth")
		return NewInternalError(c, "Failed to get current net worth")
	}

	return c.JSON(http.StatusOK, point)
}

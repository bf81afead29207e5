package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/services"
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

// GetMetrics returns the admin dashboard for ?range= or ?from=&to=
func (dc *DashboardController) GetMetrics(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	metrics, err := dc.dashboard.AdminMetrics(c.Request().Context(), r)
	if err != nil {
		return storeError(c, "compute metrics", err)
	}
	return respond(c, http.StatusOK, "Metrics retrieved successfully", metrics)
}

// GetPartnerSummary lets admins look at a single partner
func (dc *DashboardController) GetPartnerSummary(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	summary, err := dc.dashboard.PartnerSummary(c.Request().Context(), c.Param("uid"), r)
	if err != nil {
		return storeError(c, "load summary", err)
	}
	return respond(c, http.StatusOK, "Summary retrieved successfully", summary)
}

// GetStaffSummary returns the staff leaderboard
func (dc *DashboardController) GetStaffSummary(c echo.Context) error {
	summary, err := dc.dashboard.StaffSummary(c.Request().Context())
	if err != nil {
		return storeError(c, "load staff summary", err)
	}
	return respond(c, http.StatusOK, "Staff summary retrieved successfully", summary)
}

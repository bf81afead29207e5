package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
)

type PlanController struct {
	plans repositories.PlanRepository
	cache *services.MetricsCache
}

func NewPlanController(plans repositories.PlanRepository, cache *services.MetricsCache) *PlanController {
	return &PlanController{plans: plans, cache: cache}
}

// CreatePlan adds a membership plan
func (pc *PlanController) CreatePlan(c echo.Context) error {
	var req models.PlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return respond(c, http.StatusBadRequest, "Plan name is required", nil)
	}

	now := time.Now()
	plan := &models.Plan{
		Name:        name,
		Price:       models.Amount(req.Price),
		Description: utils.SanitizeInput(req.Description),
		Features:    req.Features,
		IsActive:    req.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ctx := c.Request().Context()
	if err := pc.plans.Create(ctx, plan); err != nil {
		return storeError(c, "create plan", err)
	}
	pc.cache.Invalidate(ctx)
	return respond(c, http.StatusCreated, "Plan created successfully", plan)
}

// UpdatePlan replaces a plan's fields
func (pc *PlanController) UpdatePlan(c echo.Context) error {
	var req models.PlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = utils.SanitizeInput(req.Description)

	ctx := c.Request().Context()
	plan, err := pc.plans.Update(ctx, c.Param("id"), req)
	if err != nil {
		return storeError(c, "update plan", err)
	}
	pc.cache.Invalidate(ctx)
	return respond(c, http.StatusOK, "Plan updated successfully", plan)
}

// ListPlans returns all plans for admins
func (pc *PlanController) ListPlans(c echo.Context) error {
	plans, err := pc.plans.List(c.Request().Context(), false)
	if err != nil {
		return storeError(c, "list plans", err)
	}
	return respond(c, http.StatusOK, "Plans retrieved successfully", plans)
}

// ListActivePlans is the public plan catalogue
func (pc *PlanController) ListActivePlans(c echo.Context) error {
	plans, err := pc.plans.List(c.Request().Context(), true)
	if err != nil {
		return storeError(c, "list plans", err)
	}
	return respond(c, http.StatusOK, "Plans retrieved successfully", plans)
}

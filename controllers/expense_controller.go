package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
)

type ExpenseController struct {
	expenses repositories.ExpenseRepository
	cache    *services.MetricsCache
}

func NewExpenseController(expenses repositories.ExpenseRepository, cache *services.MetricsCache) *ExpenseController {
	return &ExpenseController{expenses: expenses, cache: cache}
}

// CreateExpense records an operating cost
func (ec *ExpenseController) CreateExpense(c echo.Context) error {
	var req models.CreateExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	category := utils.SanitizeInput(req.Category)
	if category == "" {
		return respond(c, http.StatusBadRequest, "Category is required", nil)
	}
	userID, _ := middleware.ExtractUserID(c)

	expense := &models.Expense{
		Amount:      models.Amount(req.Amount),
		Category:    strings.ToLower(category),
		Description: utils.SanitizeInput(req.Description),
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}
	ctx := c.Request().Context()
	if err := ec.expenses.Create(ctx, expense); err != nil {
		return storeError(c, "create expense", err)
	}
	ec.cache.Invalidate(ctx)
	return respond(c, http.StatusCreated, "Expense recorded successfully", expense)
}

// ListExpenses returns expenses inside ?range= (default last 30 days)
func (ec *ExpenseController) ListExpenses(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respond(c, http.StatusBadRequest, err.Error(), nil)
	}
	expenses, err := ec.expenses.List(c.Request().Context(), r)
	if err != nil {
		return storeError(c, "list expenses", err)
	}
	return respond(c, http.StatusOK, "Expenses retrieved successfully", expenses)
}

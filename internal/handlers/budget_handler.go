package handlers

import (
	"net/http"
	"strconv"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BudgetHandler handles budget endpoints, including the admin reconcile action
type BudgetHandler struct {
	budgetService         services.BudgetServiceInterface
	reconciliationService services.ReconciliationServiceInterface
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService services.BudgetServiceInterface, reconciliationService services.ReconciliationServiceInterface) *BudgetHandler {
	return &BudgetHandler{
		budgetService:         budgetService,
		reconciliationService: reconciliationService,
	}
}

// CreateBudget sets a spending limit for one category
// @Summary Create a budget
// @Description A category holds at most one budget. Spent starts at zero.
// @Tags Budgets
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BudgetRequest true "Budget details"
// @Success 201 {object} models.Budget
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Missing fields, negative amount or end before start"
// @Failure 409 {object} errors.ErrorResponse "BUDGET_002/BUDGET_003 - Category already has a budget"
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.BudgetRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	budget, err := h.budgetService.CreateBudget(c.Request().Context(), requester, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, budget)
}

func (h *BudgetHandler) GetBudget(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "budget")
	}

	budget, err := h.budgetService.GetBudget(c.Request().Context(), requester, id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) ListBudgets(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	budgets, err := h.budgetService.ListBudgets(c.Request().Context(), requester)
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "budgets", budgets)
}

// ReplaceBudget overwrites account, category, amount and period. Spent is recomputed when category or period move.
func (h *BudgetHandler) ReplaceBudget(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "budget")
	}

	var req dto.BudgetRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	budget, err := h.budgetService.ReplaceBudget(c.Request().Context(), requester, id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "budget")
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), requester, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ReconcileBudget compares the stored spent with the sum of matching transactions
// @Summary Reconcile a budget
// @Description Recomputes spent from transactions. With repair=true the stored value is overwritten.
// @Tags Budgets
// @Security BearerAuth
// @Produce json
// @Param id path string true "Budget ID (UUID)"
// @Param repair query bool false "Overwrite the stored spent"
// @Success 200 {object} services.BudgetDrift
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Requires admin role"
// @Router /budgets/{id}/reconcile [post]
func (h *BudgetHandler) ReconcileBudget(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "budget")
	}

	repair := false
	if raw := c.QueryParam("repair"); raw != "" {
		repair, err = strconv.ParseBool(raw)
		if err != nil {
			return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("repair must be true or false"))
		}
	}

	drift, err := h.reconciliationService.ReconcileBudget(c.Request().Context(), requester, id, repair)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, drift)
}

package handlers

import (
	"fmt"
	"net/http"

	"finances-api/internal/errors"
	"finances-api/internal/models"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var auditedResources = map[string]bool{
	models.AuditResourceOwner:       true,
	models.AuditResourceAccount:     true,
	models.AuditResourceCategory:    true,
	models.AuditResourceBudget:      true,
	models.AuditResourceTransaction: true,
}

// AdminHandler handles admin-only endpoints. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	auditService          services.AuditServiceInterface
	reconciliationService services.ReconciliationServiceInterface
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(auditService services.AuditServiceInterface, reconciliationService services.ReconciliationServiceInterface) *AdminHandler {
	return &AdminHandler{
		auditService:          auditService,
		reconciliationService: reconciliationService,
	}
}

// GetResourceHistory lists every audited change to one record
// @Summary Audit history of a record (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param resource path string true "owner, account, category, budget or transaction"
// @Param id path string true "Record ID (UUID)"
// @Success 200 {array} models.AuditLog
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Unknown resource or invalid ID"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Requires admin role"
// @Router /admin/audit/{resource}/{id} [get]
func (h *AdminHandler) GetResourceHistory(c echo.Context) error {
	resource := c.Param("resource")
	if !auditedResources[resource] {
		return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(fmt.Sprintf("Unknown resource %q", resource)))
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, resource)
	}

	logs, err := h.auditService.GetResourceHistory(c.Request().Context(), resource, id)
	if err != nil {
		return SendSystemError(c, err)
	}

	return sendList(c, "audit entries", logs)
}

// GetBudgetDrift lists budgets whose stored spent disagrees with their transactions
// @Summary Budget drift report (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} services.BudgetDrift
// @Router /admin/budgets/drift [get]
func (h *AdminHandler) GetBudgetDrift(c echo.Context) error {
	report, err := h.reconciliationService.DriftReport(c.Request().Context())
	if err != nil {
		return SendSystemError(c, err)
	}

	if report == nil {
		report = []services.BudgetDrift{}
	}
	return c.JSON(http.StatusOK, report)
}

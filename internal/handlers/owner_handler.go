package handlers

import (
	"net/http"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OwnerHandler handles owner registration and profile endpoints
type OwnerHandler struct {
	ownerService services.OwnerServiceInterface
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(ownerService services.OwnerServiceInterface) *OwnerHandler {
	return &OwnerHandler{ownerService: ownerService}
}

// CreateOwner registers a new owner
// @Summary Register an owner
// @Tags Owners
// @Accept json
// @Produce json
// @Param request body dto.CreateOwnerRequest true "Owner details"
// @Success 201 {object} models.Owner
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Missing or invalid fields"
// @Failure 409 {object} errors.ErrorResponse "OWNER_002 - Username or email already used"
// @Router /owners [post]
func (h *OwnerHandler) CreateOwner(c echo.Context) error {
	var req dto.CreateOwnerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	owner, err := h.ownerService.CreateOwner(c.Request().Context(), optionalRequester(c), &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, owner)
}

// ListOwners returns every owner (admin only)
// @Summary List owners
// @Tags Owners
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Owner
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Requires admin role"
// @Router /owners [get]
func (h *OwnerHandler) ListOwners(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	owners, err := h.ownerService.ListOwners(c.Request().Context(), requester)
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "owners", owners)
}

func (h *OwnerHandler) GetOwner(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "owner")
	}

	owner, err := h.ownerService.GetOwner(c.Request().Context(), requester, id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, owner)
}

// PatchOwner updates any of username, email, first_name, last_name and password
func (h *OwnerHandler) PatchOwner(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "owner")
	}

	var patch dto.PatchRequest
	if err := c.Bind(&patch); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	owner, err := h.ownerService.PatchOwner(c.Request().Context(), requester, id, patch)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, owner)
}

// DeleteOwner removes the owner with all of its accounts
func (h *OwnerHandler) DeleteOwner(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "owner")
	}

	if err := h.ownerService.DeleteOwner(c.Request().Context(), requester, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetOwnerActivity returns the owner's most recent audit entries
// @Summary Owner activity
// @Tags Owners
// @Security BearerAuth
// @Produce json
// @Param id path string true "Owner ID (UUID)"
// @Param limit query int false "Maximum entries (default 50, max 500)"
// @Success 200 {array} models.AuditLog
// @Router /owners/{id}/activity [get]
func (h *OwnerHandler) GetOwnerActivity(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "owner")
	}

	limit := getIntParam(c, "limit", services.DefaultActivityLimit)
	logs, err := h.ownerService.GetOwnerActivity(c.Request().Context(), requester, id, limit)
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "activities", logs)
}

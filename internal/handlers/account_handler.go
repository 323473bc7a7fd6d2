package handlers

import (
	"net/http"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService services.AccountServiceInterface
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService services.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccount opens an account for an owner
// @Summary Create a new account
// @Description Owners may only open accounts for themselves; admins for anyone
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} models.Account "Account created successfully"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Missing owner or name, negative balance"
// @Failure 401 {object} errors.ErrorResponse "AUTH_002 - Missing or invalid authentication"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Owner is another user"
// @Failure 404 {object} errors.ErrorResponse "OWNER_001 - Owner not found"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateAccountRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), requester, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves a specific account by ID
// @Summary Get account by ID
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Account ID (UUID)"
// @Success 200 {object} models.Account "Account details"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid account ID format"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Account belongs to another owner"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 - Account not found"
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "account")
	}

	account, err := h.accountService.GetAccount(c.Request().Context(), requester, id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// ListAccounts returns the requester's accounts, or every account for admins
// @Summary List accounts
// @Tags Accounts
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Account "Accounts, or a no-records message"
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accounts, err := h.accountService.ListAccounts(c.Request().Context(), requester)
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "accounts", accounts)
}

// PatchAccount updates the name or sets the balance directly
// @Summary Update account
// @Description Only name and balance may be sent. Any other field is rejected.
// @Tags Accounts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Account ID (UUID)"
// @Success 200 {object} models.Account
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Unknown field or negative balance"
// @Router /accounts/{id} [patch]
func (h *AccountHandler) PatchAccount(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "account")
	}

	var patch dto.PatchRequest
	if err := c.Bind(&patch); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}

	account, err := h.accountService.PatchAccount(c.Request().Context(), requester, id, patch)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, account)
}

// DeleteAccount removes the account together with its transactions and budgets
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "account")
	}

	if err := h.accountService.DeleteAccount(c.Request().Context(), requester, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

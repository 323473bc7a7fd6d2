package handlers

import (
	"net/http"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransaction records a spend against an account
// @Summary Record a transaction
// @Description Debits the account balance and adds the amount to the category budget
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} models.Transaction "Transaction recorded"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Missing fields or non-positive amount"
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Account belongs to another owner"
// @Failure 404 {object} errors.ErrorResponse "ACCOUNT_001 / CATEGORY_001"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_003 - Insufficient balance; BUDGET_004 - Exceeds budget"
// @Failure 500 {object} errors.ErrorResponse "SYSTEM_001 - Internal server error"
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateTransactionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), requester, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, transaction)
}

// GetTransaction retrieves a specific transaction
// @Summary Get transaction details
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_003 - Invalid transaction ID format"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "transaction")
	}

	transaction, err := h.transactionService.GetTransaction(c.Request().Context(), requester, id)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactions, err := h.transactionService.ListTransactions(c.Request().Context(), requester)
	if err != nil {
		return SendServiceError(c, err)
	}

	return sendList(c, "transactions", transactions)
}

// UpdateTransaction changes amount, description or category.
// The balance and budget deltas are applied in the same database transaction.
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "transaction")
	}

	var req dto.UpdateTransactionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request().Context(), requester, id, &req)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction removes the transaction and, when configured, refunds the account
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	requester, err := requesterFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return sendInvalidID(c, "transaction")
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), requester, id); err != nil {
		return SendServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

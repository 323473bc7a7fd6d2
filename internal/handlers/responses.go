package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/services"
	"finances-api/internal/validation"

	"github.com/labstack/echo/v4"
)

// STANDARDIZED ERROR HANDLING PATTERNS
//
// All handlers must use the following standardized error response functions:
//
// 1. SendError - For client errors built in the handler itself (4xx responses)
//    - Malformed ids or bodies: SendError(c, errors.ValidationInvalidFormat, errors.WithDetails("..."))
//    - Missing principal: SendError(c, errors.AuthMissingToken)
//
// 2. SendServiceError - For errors returned by the service layer. Field errors,
//    not-found, conflicts and ledger rule violations map to their codes; anything
//    unknown becomes a system error.
//
// 3. SendSystemError - For system/internal errors (500 responses)
//
// DO NOT USE:
//    - echo.NewHTTPError() - Use SendError or SendSystemError instead
//    - Direct c.JSON() for errors - Use the helper functions

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

// serviceErrorCodes maps sentinel errors of the lower layers to API error codes
var serviceErrorCodes = []struct {
	err  error
	code errors.ErrorCode
}{
	{services.ErrForbidden, errors.AuthInsufficientPermission},
	{services.ErrInvalidCredentials, errors.AuthInvalidCredentials},
	{services.ErrInvalidRefreshToken, errors.AuthInvalidTokenFormat},
	{services.ErrExpiredToken, errors.AuthExpiredToken},
	{services.ErrInvalidOwnerID, errors.ValidationInvalidFormat},

	{repositories.ErrOwnerNotFound, errors.OwnerNotFound},
	{repositories.ErrAccountNotFound, errors.AccountNotFound},
	{repositories.ErrCategoryNotFound, errors.CategoryNotFound},
	{repositories.ErrTransactionNotFound, errors.TransactionNotFound},
	{repositories.ErrBudgetNotFound, errors.BudgetNotFound},

	{repositories.ErrOwnerAlreadyExists, errors.OwnerAlreadyExists},
	{validation.ErrCategoryExists, errors.CategoryAlreadyExists},
	{validation.ErrBudgetExists, errors.BudgetAlreadyExists},
	{validation.ErrCategoryHasBudget, errors.BudgetCategoryHasBudget},

	{models.ErrInsufficientBalance, errors.TransactionInsufficientBalance},
	{models.ErrExceedsBudget, errors.BudgetExceeded},
	{models.ErrNonPositiveAmount, errors.TransactionInvalidAmount},
	{models.ErrNegativeBalance, errors.ValidationOutOfRange},
	{models.ErrNegativeBudget, errors.ValidationOutOfRange},
	{models.ErrInvalidBudgetPeriod, errors.ValidationOutOfRange},
	{models.ErrDescriptionRequired, errors.ValidationRequiredField},
}

// getTraceID extracts the trace ID from the Echo context
func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError wraps a system error with a generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, internal := errors.WrapSystemError(err, traceID)
	slog.ErrorContext(c.Request().Context(), "request failed",
		"trace_id", traceID,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"error", internal,
	)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

// SendFieldErrors reports rejected request fields
func SendFieldErrors(c echo.Context, fieldErrors validation.FieldErrors) error {
	errorResponse := errors.NewValidationError(fieldErrors, getTraceID(c))
	return c.JSON(http.StatusBadRequest, errorResponse)
}

// SendServiceError maps an error returned by a service to its API error response
func SendServiceError(c echo.Context, err error) error {
	if fieldErrors, ok := validation.AsFieldErrors(err); ok {
		return SendFieldErrors(c, fieldErrors)
	}

	for _, mapping := range serviceErrorCodes {
		if stderrors.Is(err, mapping.err) {
			return SendError(c, mapping.code, errors.WithDetails(err.Error()))
		}
	}

	return SendSystemError(c, err)
}

// sendList writes items, or the no-records message when the list is empty
func sendList[T any](c echo.Context, resource string, items []T) error {
	if len(items) == 0 {
		return c.JSON(http.StatusOK, dto.NoRecords(resource))
	}
	return c.JSON(http.StatusOK, items)
}

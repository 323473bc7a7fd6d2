package errors

import (
	"fmt"
	"net/http"
	"sort"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	TraceID string   `json:"trace_id"`
}

// ErrorOption customizes a response built by NewErrorResponse
type ErrorOption func(*ErrorResponse)

// WithDetails replaces the detail lines of the response
func WithDetails(details ...string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Details = details
	}
}

// WithMessage overrides the default message of the code
func WithMessage(message string) ErrorOption {
	return func(er *ErrorResponse) {
		er.Error.Message = message
	}
}

// NewErrorResponse builds the response for code, tagged with the request trace id
func NewErrorResponse(code ErrorCode, traceID string, opts ...ErrorOption) *ErrorResponse {
	response := &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(code),
			Message: GetErrorMessage(code),
			TraceID: traceID,
		},
	}
	for _, opt := range opts {
		opt(response)
	}
	return response
}

// NewValidationError reports rejected fields as "field: message" details, ordered by field
func NewValidationError(fieldErrors map[string]string, traceID string) *ErrorResponse {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, fmt.Sprintf("%s: %s", field, fieldErrors[field]))
	}

	return NewErrorResponse(ValidationGeneral, traceID, WithDetails(details...))
}

// WrapSystemError hides err behind SYSTEM_001. The original error is handed
// back for server side logging only.
func WrapSystemError(err error, traceID string) (*ErrorResponse, error) {
	return NewErrorResponse(SystemInternalError, traceID), err
}

var httpStatuses = map[ErrorCode]int{
	ValidationGeneral:        http.StatusBadRequest,
	ValidationRequiredField:  http.StatusBadRequest,
	ValidationInvalidFormat:  http.StatusBadRequest,
	ValidationOutOfRange:     http.StatusBadRequest,
	TransactionInvalidAmount: http.StatusBadRequest,

	AuthInvalidCredentials:     http.StatusUnauthorized,
	AuthMissingToken:           http.StatusUnauthorized,
	AuthExpiredToken:           http.StatusUnauthorized,
	AuthInvalidTokenFormat:     http.StatusUnauthorized,
	AuthInsufficientPermission: http.StatusForbidden,

	OwnerNotFound:       http.StatusNotFound,
	AccountNotFound:     http.StatusNotFound,
	CategoryNotFound:    http.StatusNotFound,
	TransactionNotFound: http.StatusNotFound,
	BudgetNotFound:      http.StatusNotFound,
	SystemRouteNotFound: http.StatusNotFound,

	OwnerAlreadyExists:      http.StatusConflict,
	CategoryAlreadyExists:   http.StatusConflict,
	BudgetAlreadyExists:     http.StatusConflict,
	BudgetCategoryHasBudget: http.StatusConflict,

	// ledger rules: the request is well formed but the books refuse it
	TransactionInsufficientBalance: http.StatusUnprocessableEntity,
	BudgetExceeded:                 http.StatusUnprocessableEntity,

	SystemRateLimitExceeded:  http.StatusTooManyRequests,
	SystemServiceUnavailable: http.StatusServiceUnavailable,
	SystemInternalError:      http.StatusInternalServerError,
	SystemDatabaseError:      http.StatusInternalServerError,
}

// GetHTTPStatus returns the status code sent with code; unknown codes are 500
func GetHTTPStatus(code ErrorCode) int {
	if status, ok := httpStatuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (er *ErrorResponse) GetHTTPStatus() int {
	return GetHTTPStatus(ErrorCode(er.Error.Code))
}

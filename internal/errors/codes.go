package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthExpiredToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
)

// Owner error codes (OWNER_*)
const (
	OwnerNotFound      ErrorCode = "OWNER_001"
	OwnerAlreadyExists ErrorCode = "OWNER_002"
)

// Account error codes (ACCOUNT_*)
const (
	AccountNotFound ErrorCode = "ACCOUNT_001"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound      ErrorCode = "CATEGORY_001"
	CategoryAlreadyExists ErrorCode = "CATEGORY_002"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound            ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount       ErrorCode = "TRANSACTION_002"
	TransactionInsufficientBalance ErrorCode = "TRANSACTION_003"
)

// Budget error codes (BUDGET_*)
const (
	BudgetNotFound          ErrorCode = "BUDGET_001"
	BudgetAlreadyExists     ErrorCode = "BUDGET_002"
	BudgetCategoryHasBudget ErrorCode = "BUDGET_003"
	BudgetExceeded          ErrorCode = "BUDGET_004"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_004"
	SystemRouteNotFound      ErrorCode = "SYSTEM_005"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthInvalidCredentials:     "Invalid username or password",
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "This field is required.",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",

	// Owner errors
	OwnerNotFound:      "Owner not found",
	OwnerAlreadyExists: "An owner with this username or email already exists",

	// Account errors
	AccountNotFound: "Account not found",

	// Category errors
	CategoryNotFound:      "Category not found",
	CategoryAlreadyExists: "The category already exists.",

	// Transaction errors
	TransactionNotFound:            "Transaction not found",
	TransactionInvalidAmount:       "Invalid transaction amount",
	TransactionInsufficientBalance: "Insufficient balance for the transaction.",

	// Budget errors
	BudgetNotFound:          "Budget not found",
	BudgetAlreadyExists:     "The budget already exists.",
	BudgetCategoryHasBudget: "This category already has a budget.",
	BudgetExceeded:          "The value of the transaction exceeds the budget for this category.",

	// System errors
	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "The requested resource was not found",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}

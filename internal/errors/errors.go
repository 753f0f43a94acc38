// Package errors provides custom error types for the Anggaran API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Project errors. Not-found and not-owned are deliberately the same error so
// the API does not reveal whether another user's project exists.
var (
	ErrProjectNotFound = &AppError{Code: "PROJECT_NOT_FOUND", Message: "Project not found", StatusCode: http.StatusNotFound}
)

// Work item errors.
var (
	ErrWorkItemNotFound = &AppError{Code: "WORK_ITEM_NOT_FOUND", Message: "Work item not found", StatusCode: http.StatusNotFound}
)

// Cash flow errors.
var (
	ErrEntryNotFound    = &AppError{Code: "ENTRY_NOT_FOUND", Message: "Cash flow entry not found", StatusCode: http.StatusNotFound}
	ErrEntryNotEditable = &AppError{Code: "ENTRY_NOT_EDITABLE", Message: "Auto-generated entries cannot be modified directly", StatusCode: http.StatusBadRequest}
	ErrInvalidMonth     = &AppError{Code: "INVALID_MONTH", Message: "Month must be in YYYY-MM format", StatusCode: http.StatusBadRequest}
)

// Catalog errors.
var (
	ErrUnitNotFound          = &AppError{Code: "UNIT_NOT_FOUND", Message: "Unit not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUnit         = &AppError{Code: "DUPLICATE_UNIT", Message: "A unit with this name already exists", StatusCode: http.StatusConflict}
	ErrUnitInUse             = &AppError{Code: "UNIT_IN_USE", Message: "Unit is used by existing material prices", StatusCode: http.StatusConflict}
	ErrCategoryNotFound      = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory     = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryInUse         = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is in use", StatusCode: http.StatusConflict}
	ErrMaterialPriceNotFound = &AppError{Code: "MATERIAL_PRICE_NOT_FOUND", Message: "Material price not found", StatusCode: http.StatusNotFound}
	ErrDuplicateMaterial     = &AppError{Code: "DUPLICATE_MATERIAL_PRICE", Message: "A material price with this name and unit already exists", StatusCode: http.StatusConflict}
)

// Definition errors.
var (
	ErrDefinitionNotFound = &AppError{Code: "DEFINITION_NOT_FOUND", Message: "Work item definition not found", StatusCode: http.StatusNotFound}
	ErrDuplicateKey       = &AppError{Code: "DUPLICATE_DEFINITION_KEY", Message: "A definition with this key already exists", StatusCode: http.StatusConflict}
)

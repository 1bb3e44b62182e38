// Package errors provides error code definitions shared across the backend.
package errors

import "fmt"

// ErrorCode represents a unique error code surfaced to the UI layer.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// Local storage errors
	ErrStorage   ErrorCode = "STORAGE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"

	// Gateway errors
	ErrGatewayUnreachable ErrorCode = "GATEWAY_UNREACHABLE"
	ErrGatewayRejected    ErrorCode = "GATEWAY_REJECTED"
	ErrGatewayAuth        ErrorCode = "GATEWAY_AUTH_FAILED"

	// Queue / sync errors
	ErrQueueItemNotFound ErrorCode = "QUEUE_ITEM_NOT_FOUND"
	ErrDrainInProgress   ErrorCode = "DRAIN_IN_PROGRESS"
	ErrMutationInvalid   ErrorCode = "MUTATION_INVALID"
	ErrMutationDead      ErrorCode = "MUTATION_DEAD_LETTERED"

	// Sales / product errors
	ErrSaleNotFound    ErrorCode = "SALE_NOT_FOUND"
	ErrProductNotFound ErrorCode = "PRODUCT_NOT_FOUND"

	// Stock errors
	ErrStockInsufficient ErrorCode = "STOCK_INSUFFICIENT"

	// Notes errors
	ErrExpressionInvalid ErrorCode = "EXPRESSION_INVALID"
	ErrNoteNotFound      ErrorCode = "NOTE_NOT_FOUND"
	ErrBackupCorrupted   ErrorCode = "BACKUP_CORRUPTED"

	// Auto-post errors
	ErrAutoPostConfig ErrorCode = "AUTOPOST_CONFIG_INVALID"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

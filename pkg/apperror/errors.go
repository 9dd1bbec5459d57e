package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet & Ledger (WAL) ----

// ErrInsufficientFunds is the normal business outcome of a debit that
// exceeds the balance. Not a fault; never retried.
func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient funds", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidKind() *AppError {
	return New("WAL_003", "Invalid transaction kind", http.StatusBadRequest)
}

// ErrDuplicateSettlement marks a settlement id that was already applied
// with a conflicting payload (same id, different amount or kind).
func ErrDuplicateSettlement() *AppError {
	return New("WAL_004", "Settlement already applied", http.StatusConflict)
}

// ---- Game rounds (GAME) ----

func ErrRoundState(message string) *AppError {
	return New("GAME_001", message, http.StatusConflict)
}

func ErrNoActiveRound() *AppError {
	return New("GAME_002", "No active round", http.StatusConflict)
}

// ---- Authentication & authorization (AUTH) ----

func ErrNotAuthenticated() *AppError {
	return New("AUTH_001", "Not authenticated", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTH_002", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_004", "Forbidden", http.StatusForbidden)
}

func ErrEmailExists() *AppError {
	return New("AUTH_005", "Email already registered", http.StatusConflict)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// StorageFailure means the atomic unit could not commit. The caller must
// treat the operation as not applied; safe to retry with the same
// settlement id.
func StorageFailure(err error) *AppError {
	return Wrap("SYS_001", "Storage failure", http.StatusInternalServerError, err)
}

// InternalError wraps any other internal fault.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

func ErrNotFound(entity string) *AppError {
	return New("SYS_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Validation returns a request-validation error.
func Validation(message string) *AppError {
	return New("WAL_002", message, http.StatusBadRequest)
}

package apperror

import (
	"errors"
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

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

const (
	CodeInvalidAmount     = "LED_001"
	CodeInsufficientFunds = "LED_002"
	CodeConflict          = "LED_003"
	CodeNotFound          = "LED_004"
	CodeValidation        = "VAL_001"
	CodeRateUnavailable   = "FX_001"
	CodeRateNotFound      = "FX_002"
	CodeInvalidCreds      = "AUTH_001"
	CodeEmailExists       = "AUTH_002"
	CodeInvalidToken      = "AUTH_003"
	CodeRateLimited       = "RATE_001"
	CodeInternal          = "SYS_001"
	CodeMisconfigured     = "SYS_004"
)

// ---- Ledger (LED) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be strictly positive", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in wallet", http.StatusPaymentRequired)
}

// ErrConflict is returned once the optimistic-lock retry budget is spent.
func ErrConflict(err error) *AppError {
	return Wrap(CodeConflict, "Balance was modified concurrently, please retry", http.StatusConflict, err)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Validation returns a generic input validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// ---- Exchange rates (FX) ----

func ErrRateUnavailable(err error) *AppError {
	return Wrap(CodeRateUnavailable, "Exchange rate provider unavailable", http.StatusServiceUnavailable, err)
}

func ErrRateNotFound(base, target string) *AppError {
	return New(CodeRateNotFound, fmt.Sprintf("Exchange rate %s/%s not found", base, target), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCreds, "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New(CodeEmailExists, "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap(CodeInternal, "Internal database error", http.StatusInternalServerError, err)
}

// Misconfigured marks a deployment error. It is raised at startup, never per request.
func Misconfigured(message string, err error) *AppError {
	return Wrap(CodeMisconfigured, message, http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

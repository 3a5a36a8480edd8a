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
	Details    any    `json:"details,omitempty"`
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

// As extracts the AppError from err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// ---- Credit Business Logic (CRD) ----

// CodeInsufficientCredits identifies a recoverable affordability failure:
// the caller can top up and retry.
const CodeInsufficientCredits = "CRD_001"

// InsufficientCreditsDetails carries the figures a caller needs to display
// and act on an affordability failure.
type InsufficientCreditsDetails struct {
	Available int64            `json:"available"`
	Required  int64            `json:"required"`
	Shortfall int64            `json:"shortfall"`
	Breakdown map[string]int64 `json:"breakdown,omitempty"`
}

// ErrInsufficientCredits builds the structured insufficiency error.
func ErrInsufficientCredits(available, required int64, breakdown map[string]int64) *AppError {
	e := New(CodeInsufficientCredits, "Insufficient credits", http.StatusPaymentRequired)
	e.Details = &InsufficientCreditsDetails{
		Available: available,
		Required:  required,
		Shortfall: required - available,
		Breakdown: breakdown,
	}
	return e
}

// InsufficientCredits extracts insufficiency details from err, if present.
func InsufficientCredits(err error) (*InsufficientCreditsDetails, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeInsufficientCredits {
		return nil, false
	}
	d, ok := appErr.Details.(*InsufficientCreditsDetails)
	return d, ok
}

// CodeValidation identifies caller-fixable bad input.
const CodeValidation = "CRD_002"

// CodeNotFound identifies a missing entity.
const CodeNotFound = "CRD_003"

// Validation reports caller-fixable bad input (non-positive amount,
// malformed account or operation identifier).
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Configuration (CFG) ----

// CodeCostNotConfigured identifies a server misconfiguration: a priced
// operation with no registered cost. Fatal for the request, never retryable
// by funding.
const CodeCostNotConfigured = "CFG_001"

// ErrCostNotConfigured reports a missing cost entry for operationID.
func ErrCostNotConfigured(operationID string) *AppError {
	return New(CodeCostNotConfigured,
		fmt.Sprintf("no cost configured for operation %q", operationID),
		http.StatusInternalServerError)
}

// IsCostNotConfigured reports whether err is a missing-cost error.
func IsCostNotConfigured(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeCostNotConfigured
}

// ---- System & Infrastructure (SYS) ----

// CodeInternal identifies an unexpected infrastructure failure.
const CodeInternal = "SYS_001"

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

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

// ---- Registration workflow (REG) ----

func ErrMerchantNotFound(merchantID int64) *AppError {
	return New("REG_001", fmt.Sprintf("Merchant %d not found", merchantID), http.StatusNotFound)
}

func ErrCrossTenantAccess(merchantID int64) *AppError {
	return New("REG_002",
		fmt.Sprintf("Merchant %d does not belong to the requesting user's DFSP", merchantID),
		http.StatusUnauthorized)
}

func ErrWrongActor(merchantID int64) *AppError {
	return New("REG_003",
		fmt.Sprintf("Merchant %d can only be submitted for review by the user who created it", merchantID),
		http.StatusUnauthorized)
}

func ErrNotInReview(merchantID int64) *AppError {
	return New("REG_004",
		fmt.Sprintf("Merchant %d is not in Review Status", merchantID),
		http.StatusUnprocessableEntity)
}

func ErrNotInDraft(merchantID int64) *AppError {
	return New("REG_004",
		fmt.Sprintf("Merchant %d is not in Draft Status", merchantID),
		http.StatusUnprocessableEntity)
}

// ErrSameActorConflict is returned when the checker is the maker. The verb is
// the past-tense transition name: approved, rejected or reverted.
func ErrSameActorConflict(merchantID int64, verb string) *AppError {
	return New("REG_005",
		fmt.Sprintf("Merchant %d cannot be %s by the same user who submitted it.", merchantID, verb),
		http.StatusUnprocessableEntity)
}

func ErrReasonRequired() *AppError {
	return New("REG_006", "Reason is required", http.StatusBadRequest)
}

func ErrMalformedIDList(detail string) *AppError {
	return New("REG_007", fmt.Sprintf("Invalid merchant id list: %s", detail), http.StatusBadRequest)
}

// ErrStatusConflict is returned when a conditional bulk update finds fewer
// matching rows than requested, meaning a concurrent writer got there first.
func ErrStatusConflict(expected int, affected int64) *AppError {
	return New("REG_008",
		fmt.Sprintf("Status update affected %d of %d merchants, a concurrent update changed the rest", affected, expected),
		http.StatusConflict)
}

// ---- Messaging (MQ) ----

func ErrTransportRejected(err error) *AppError {
	return Wrap("MQ_001", "Message transport rejected the alias request", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a REG_007-style validation error.
func Validation(message string) *AppError {
	return New("REG_007", message, http.StatusBadRequest)
}

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the consistency core. Services wrap these with
// fmt.Errorf("%w: ...") so the boundary can classify with errors.Is while
// the message still names the invariant that failed.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrAuth         = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")

	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrBudgetExceedsIncome       = errors.New("budget exceeds income")
	ErrInvalidTarget             = errors.New("invalid target")
	ErrDuplicateSource           = errors.New("duplicate source")
	ErrIncomeTooLowForExpenses   = errors.New("income too low for expenses")
	ErrCannotDeleteIncomeInUse   = errors.New("income in use")
	ErrRevertWouldViolateBalance = errors.New("revert would violate balance")
	ErrConcurrentModification    = errors.New("concurrent modification")
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")
)

// ErrorResponse is the error body the remote record store answers with.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

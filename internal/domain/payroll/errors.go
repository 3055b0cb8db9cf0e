package payroll

import "errors"

var (
	ErrDuplicateRun           = errors.New("payroll already ran for this week")
	ErrWeekNotFound           = errors.New("payroll week not found")
	ErrUnauthorizedTransition = errors.New("actor role not allowed for this transition")
	ErrInvalidTransition      = errors.New("transition not valid from current status")
	ErrPenaltyConflict        = errors.New("penalty already consumed by another run")
	ErrNotReady               = errors.New("payroll week not approved yet")
	ErrEmptyPaymentReference  = errors.New("payment reference must not be empty")
	ErrEmptyHoldReason        = errors.New("hold reason must not be empty")
	ErrWeekStartNotMonday     = errors.New("week start must be a Monday")
	ErrPayslipNotGenerated    = errors.New("payslip not generated yet")
)

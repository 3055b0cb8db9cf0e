package payroll

import (
	"time"

	"paydesk/internal/domain/penalty"
)

// Week is one employee's computed pay record for a Monday to Sunday period.
// Amounts are fixed at creation; only status and the bookkeeping columns
// change afterward.
type Week struct {
	ID               int64      `json:"id"`
	EmployeeID       int64      `json:"employeeId"`
	WeekStart        time.Time  `json:"weekStart"`
	WeekEnd          time.Time  `json:"weekEnd"`
	Hours            float64    `json:"hours"`
	BaseAmount       float64    `json:"baseAmount"`
	StreakBonus      float64    `json:"streakBonus"`
	Deductions       float64    `json:"deductions"`
	FinalAmount      float64    `json:"finalAmount"`
	Status           string     `json:"status"`
	ApprovedBy       *int64     `json:"approvedBy,omitempty"`
	ProcessedBy      *int64     `json:"processedBy,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
	PaymentReference *string    `json:"paymentReference,omitempty"`
	HoldReason       *string    `json:"holdReason,omitempty"`
	HeldFrom         *string    `json:"heldFrom,omitempty"`
	PayslipGenerated bool       `json:"payslipGenerated"`
	PayslipPath      *string    `json:"payslipPath,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type RateConfig struct {
	HourlyRate          float64
	StreakBonusAmount   float64
	StreakThresholdDays int
	StreakWindowDays    int
	EligibleRoles       []string
}

type RunResult struct {
	Processed   int     `json:"processed"`
	TotalAmount float64 `json:"totalAmount"`
}

type EligibleEmployee struct {
	ID        int64
	Role      string
	StartDate time.Time
}

// PayslipData is everything the renderer needs for one document.
type PayslipData struct {
	Week         Week
	EmployeeName string
	EmployeeRole string
	Penalties    []penalty.Entry
}

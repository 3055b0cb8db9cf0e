package penalty

import "time"

// Entry is a monetary deduction queued against an employee. A null AppliedAt
// means the entry is unconsumed and will be taken by the next payroll run.
// Once consumed the entry is immutable history.
type Entry struct {
	ID            int64      `json:"id"`
	EmployeeID    int64      `json:"employeeId"`
	Amount        float64    `json:"amount"`
	Reason        string     `json:"reason"`
	AppliedAt     *time.Time `json:"appliedAt,omitempty"`
	PayrollWeekID *int64     `json:"payrollWeekId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

package timeledger

import "time"

// DailySummary is one employee's billable total for one calendar day.
// Rows are append-only from the payroll engine's point of view.
type DailySummary struct {
	ID              int64     `json:"id"`
	EmployeeID      int64     `json:"employeeId"`
	WorkDate        time.Time `json:"workDate"`
	BillableSeconds int64     `json:"billableSeconds"`
	MeetsMinimum    bool      `json:"meetsMinimum"`
}

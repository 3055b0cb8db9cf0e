package notifications

const (
	TypePayrollComputed  = "payroll_computed"
	TypePayrollApproved  = "payroll_approved"
	TypePayrollPaid      = "payroll_paid"
	TypePayrollOnHold    = "payroll_on_hold"
	TypePayslipPublished = "payslip_published"
)

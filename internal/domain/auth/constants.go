package auth

const (
	RoleEmployee       = "employee"
	RoleManager        = "manager"
	RoleCEO            = "ceo"
	RoleAdmin          = "admin"
	RolePayrollManager = "payroll_manager"
)

var AllRoles = []string{
	RoleEmployee,
	RoleManager,
	RoleCEO,
	RoleAdmin,
	RolePayrollManager,
}

func ValidRole(role string) bool {
	for _, known := range AllRoles {
		if role == known {
			return true
		}
	}
	return false
}

package payroll

import "paydesk/internal/domain/auth"

const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusProcessing = "processing"
	StatusOnHold     = "on_hold"
	StatusPaid       = "paid"
)

// statusRank orders the forward lifecycle. on_hold sits outside the
// ordering and is handled explicitly.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusApproved:   1,
	StatusProcessing: 2,
	StatusPaid:       3,
}

const (
	ActionApprove  = "approve"
	ActionProcess  = "process"
	ActionMarkPaid = "mark_paid"
	ActionHold     = "hold"
	ActionRelease  = "release"
)

var transitionRoles = map[string][]string{
	ActionApprove:  {auth.RoleCEO},
	ActionProcess:  {auth.RoleAdmin, auth.RolePayrollManager},
	ActionMarkPaid: {auth.RoleAdmin, auth.RolePayrollManager},
	ActionHold:     {auth.RoleAdmin, auth.RoleCEO},
	ActionRelease:  {auth.RoleAdmin, auth.RoleCEO},
}

func roleAllowed(action, role string) bool {
	for _, allowed := range transitionRoles[action] {
		if role == allowed {
			return true
		}
	}
	return false
}

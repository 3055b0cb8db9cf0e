package directory

import "time"

type Employee struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	StartDate time.Time `json:"startDate"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

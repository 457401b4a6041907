package user

type RegisterUserRequest struct {
	Name string `json:"name" binding:"required"`
}

type SetInitialFineRequest struct {
	InitialFine *int `json:"initial_fine" binding:"required"`
}

type UserResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	RestBalance      int    `json:"rest_balance"`
	PaidLeaveBalance int    `json:"paid_leave_balance"`
	InitialFine      int    `json:"initial_fine"`
	LastResetWeek    string `json:"last_reset_week,omitempty"`
	LastResetMonth   string `json:"last_reset_month,omitempty"`
}

package balance

type AdjustBalanceRequest struct {
	Field string `json:"field" binding:"required,oneof=rest_balance paid_leave_balance"`
	Delta *int   `json:"delta" binding:"required"`
}

type BalanceResponse struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	RestBalance      int    `json:"rest_balance"`
	PaidLeaveBalance int    `json:"paid_leave_balance"`
}

type SweepResetsResult struct {
	WeeklyApplied  int `json:"weekly_applied"`
	MonthlyApplied int `json:"monthly_applied"`
	UsersScanned   int `json:"users_scanned"`
}

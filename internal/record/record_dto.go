package record

// Leave types accepted by the apply-leave operation.
const (
	LeaveTypeRest = "rest"
	LeaveTypePaid = "paid_leave"
)

type ClockInRequest struct {
	Holiday bool `json:"holiday"`
}

type ClockOutRequest struct {
	Holiday bool   `json:"holiday"`
	Note    string `json:"note"`
}

type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required,oneof=rest paid_leave"`
	Date      string `json:"date"`
}

type AdminEditRequest struct {
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Status   string `json:"status" binding:"required"`
	Fine     *int   `json:"fine" binding:"required,gte=0"`
	Note     string `json:"note"`
}

type RecordResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	RecordDate string `json:"record_date"`
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out"`
	Status     string `json:"status"`
	Fine       int    `json:"fine"`
	Note       string `json:"note"`
}

// FineSummaryRow is one user's fine totals pivoted by week label. The
// initial fine is a manually-set carry-over that predates the ledger.
type FineSummaryRow struct {
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	InitialFine int            `json:"initial_fine"`
	Weeks       map[string]int `json:"weeks"`
	Total       int            `json:"total"`
}

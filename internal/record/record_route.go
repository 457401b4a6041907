package record

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	users := rg.Group("/users")
	{
		users.POST("/:id/clock-in", h.ClockIn)
		users.POST("/:id/clock-out", h.ClockOut)
		users.POST("/:id/leaves", h.ApplyLeave)
		users.POST("/:id/absences", h.RegisterAbsence)
		users.GET("/:id/records", h.GetByUser)
	}

	records := rg.Group("/records")
	{
		records.GET("", h.GetAll)
		records.PUT("/:id", h.AdminEdit)
		records.DELETE("/:id", h.AdminDelete)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("/fines", h.GetFineSummary)
		reports.GET("/fines/export", h.ExportFineSummary)
	}
}

package balance

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	balances := rg.Group("/balances")
	{
		balances.GET("", h.GetAll)
		balances.POST("/:id/adjust", h.Adjust)
	}
}

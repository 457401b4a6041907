package reconcile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murabitopit/attendance-app/internal/shared/apperror"
	"github.com/murabitopit/attendance-app/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Reconcile(c *gin.Context) {
	res, err := h.service.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "reconciliation finished", res, nil)
}

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.POST("/users/:id/reconcile", h.Reconcile)
}

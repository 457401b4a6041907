package sweep

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murabitopit/attendance-app/internal/balance"
	"github.com/murabitopit/attendance-app/internal/dayclose"
	"github.com/murabitopit/attendance-app/internal/shared/apperror"
	"github.com/murabitopit/attendance-app/internal/shared/response"
)

// Handler exposes the sweeps as manual triggers. A trigger inside the
// throttle window is acknowledged but skipped.
type Handler struct {
	balances balance.Service
	closer   dayclose.Service
	throttle *Throttle
}

func NewHandler(balances balance.Service, closer dayclose.Service, throttle *Throttle) *Handler {
	return &Handler{balances: balances, closer: closer, throttle: throttle}
}

func (h *Handler) TriggerResets(c *gin.Context) {
	if !h.throttle.Allow(SweepResets) {
		response.Success(c, http.StatusOK, "reset sweep skipped, ran recently", gin.H{"skipped": true}, nil)
		return
	}

	res, err := h.balances.SweepResets(c.Request.Context())
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "reset sweep finished", res, nil)
}

func (h *Handler) TriggerForceClose(c *gin.Context) {
	if !h.throttle.Allow(SweepForceClose) {
		response.Success(c, http.StatusOK, "force-close sweep skipped, ran recently", gin.H{"skipped": true}, nil)
		return
	}

	res, err := h.closer.ForceCloseOverdue(c.Request.Context())
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "force-close sweep finished", res, nil)
}

func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	sweeps := rg.Group("/sweeps")
	{
		sweeps.POST("/resets", h.TriggerResets)
		sweeps.POST("/force-close", h.TriggerForceClose)
	}
}

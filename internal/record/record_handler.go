package record

import (
	"fmt"
	"net/http"
	"time"

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

func (h *Handler) ClockIn(c *gin.Context) {
	// Body is optional: a bare clock-in means a regular workday.
	var req ClockInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			he := apperror.ToHTTP(apperror.MapValidationError(err))
			response.Error(c, he.Status, he.Code, he.Message, he.Details)
			return
		}
	}

	res, err := h.service.ClockIn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusCreated, "clocked in", res, nil)
}

func (h *Handler) ClockOut(c *gin.Context) {
	var req ClockOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			he := apperror.ToHTTP(apperror.MapValidationError(err))
			response.Error(c, he.Status, he.Code, he.Message, he.Details)
			return
		}
	}

	res, err := h.service.ClockOut(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "clocked out", res, nil)
}

func (h *Handler) ApplyLeave(c *gin.Context) {
	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		he := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	res, err := h.service.ApplyLeave(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusCreated, "leave applied", res, nil)
}

func (h *Handler) RegisterAbsence(c *gin.Context) {
	res, err := h.service.RegisterAbsence(c.Request.Context(), c.Param("id"))
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusCreated, "absence registered", res, nil)
}

func (h *Handler) AdminEdit(c *gin.Context) {
	var req AdminEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		he := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	res, err := h.service.AdminEdit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "record updated", res, nil)
}

func (h *Handler) AdminDelete(c *gin.Context) {
	if err := h.service.AdminDelete(c.Request.Context(), c.Param("id")); err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "record deleted", nil, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	res, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "records retrieved", res, nil)
}

func (h *Handler) GetByUser(c *gin.Context) {
	res, err := h.service.GetByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "records retrieved", res, nil)
}

func (h *Handler) GetFineSummary(c *gin.Context) {
	res, err := h.service.GetFineSummary(c.Request.Context())
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	response.Success(c, http.StatusOK, "fine summary retrieved", res, nil)
}

func (h *Handler) ExportFineSummary(c *gin.Context) {
	data, err := h.service.ExportFineSummary(c.Request.Context())
	if err != nil {
		he := apperror.ToHTTP(err)
		response.Error(c, he.Status, he.Code, he.Message, he.Details)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="fine-report-%s.xlsx"`, time.Now().Format("2006-01-02")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

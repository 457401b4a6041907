package recorderrors

import (
	"net/http"

	"github.com/murabitopit/attendance-app/internal/shared/apperror"
)

var (
	ErrDuplicateRecord = apperror.New(
		apperror.CodeConflict,
		"a record already exists for this date",
		http.StatusConflict,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"attendance record not found",
		http.StatusNotFound,
	)
	ErrNoOpenRecord = apperror.New(
		apperror.CodeNotFound,
		"no open attendance record",
		http.StatusNotFound,
	)
	ErrDeadlinePassed = apperror.New(
		apperror.CodeInvalidState,
		"paid leave for today must be applied before the deadline",
		http.StatusBadRequest,
	)
	ErrPastDate = apperror.New(
		apperror.CodeInvalidInput,
		"cannot apply leave for a past date",
		http.StatusBadRequest,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
)

package balanceerrors

import (
	"net/http"

	"github.com/murabitopit/attendance-app/internal/shared/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"balance is exhausted",
		http.StatusConflict,
	)
	ErrUnknownBalanceField = apperror.New(
		apperror.CodeInvalidInput,
		"unknown balance field",
		http.StatusBadRequest,
	)
)

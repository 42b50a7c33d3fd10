package taskerrors

import (
	"net/http"

	"carelink/internal/shared/apperror"
)

var (
	ErrInvalidAgencyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid agency id",
		http.StatusBadRequest,
	)
	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid task id",
		http.StatusBadRequest,
	)
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrInvalidTaskStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be COMPLETED",
		http.StatusBadRequest,
	)
	ErrTaskAlreadyCompleted = apperror.New(
		apperror.CodeConflict,
		"task is already completed",
		http.StatusConflict,
	)
	ErrVisitNotClockedIn = apperror.New(
		apperror.CodeInvalidState,
		"Cannot start task before the related visit has been clocked in",
		http.StatusUnprocessableEntity,
	)
)

package visiterrors

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
	ErrInvalidVisitID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid visit id",
		http.StatusBadRequest,
	)
	ErrInvalidCarerID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid carer id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"startDate must be before or equal endDate",
		http.StatusBadRequest,
	)
	ErrInvalidDayName = apperror.New(
		apperror.CodeInvalidInput,
		"invalid day name, expected Monday..Sunday",
		http.StatusBadRequest,
	)
	ErrInvalidTimestamp = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timestamp, expected RFC3339",
		http.StatusBadRequest,
	)
	ErrVisitNotFound = apperror.New(
		apperror.CodeNotFound,
		"visit not found",
		http.StatusNotFound,
	)
	ErrCarerNotAssigned = apperror.New(
		apperror.CodeForbidden,
		"carer is not assigned to this visit",
		http.StatusForbidden,
	)
	ErrAnotherVisitRunning = apperror.New(
		apperror.CodeConflict,
		"another visit is already clocked in, clock out of it first",
		http.StatusConflict,
	)
	ErrVisitAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"visit is already clocked in",
		http.StatusConflict,
	)
	ErrVisitNotClockedIn = apperror.New(
		apperror.CodeInvalidState,
		"visit has not been clocked in",
		http.StatusUnprocessableEntity,
	)
	ErrClockInReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required for an early or late clock in",
		http.StatusBadRequest,
	)
	ErrClockOutReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required for an early clock out",
		http.StatusBadRequest,
	)
	ErrUnknownClockInReason = apperror.New(
		apperror.CodeInvalidInput,
		"reason is not in the accepted list for this clock in",
		http.StatusBadRequest,
	)
	ErrUnknownClockOutReason = apperror.New(
		apperror.CodeInvalidInput,
		"reason is not in the accepted list for an early clock out",
		http.StatusBadRequest,
	)
	ErrNoCarersGiven = apperror.New(
		apperror.CodeInvalidInput,
		"at least one carer id is required",
		http.StatusBadRequest,
	)
	ErrDuplicateCarer = apperror.New(
		apperror.CodeInvalidInput,
		"the same carer cannot hold both positions on a visit",
		http.StatusBadRequest,
	)
	ErrTooManyCarers = apperror.New(
		apperror.CodeInvalidInput,
		"a visit holds at most two carers",
		http.StatusBadRequest,
	)
	ErrSingleHandedSecondCarer = apperror.New(
		apperror.CodeInvalidInput,
		"a single handed call holds only one carer",
		http.StatusBadRequest,
	)
)

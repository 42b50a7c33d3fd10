package visit

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	visiterrors "carelink/internal/visit/errors"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return visiterrors.ErrVisitNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "uq_visit_assignee_position":
				return visiterrors.ErrDuplicateCarer
			case "uq_visit_clock_event":
				return visiterrors.ErrVisitAlreadyClockedIn
			}
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_visit_assignee_position") {
		return visiterrors.ErrDuplicateCarer
	}

	return err
}

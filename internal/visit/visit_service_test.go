package visit_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"carelink/internal/schedule"
	"carelink/internal/visit"
	"carelink/internal/visitlog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func gormNotFound() error { return gorm.ErrRecordNotFound }

type fakeVisitRepository struct {
	withTxFn               func(tx *sql.Tx) visit.Repository
	findByIDAndAgencyFn    func(ctx context.Context, agencyID, id string) (*visit.Visit, error)
	findAllByCarerFn       func(ctx context.Context, agencyID, carerID string, from, to time.Time) ([]visit.Visit, error)
	findRunningByCarerFn   func(ctx context.Context, agencyID, carerID string) (*visit.Visit, error)
	findFutureByClientFn   func(ctx context.Context, agencyID string, clientID uuid.UUID, after time.Time) ([]visit.Visit, error)
	findUnnotifiedMissedFn func(ctx context.Context, before time.Time, limit int) ([]visit.Visit, error)
	updateFn               func(ctx context.Context, v *visit.Visit) error
	createClockEventFn     func(ctx context.Context, e *visit.ClockEvent) error
	replaceAssigneesFn     func(ctx context.Context, visitID uuid.UUID, rows []visit.VisitAssignee) error
}

func (f *fakeVisitRepository) WithTx(tx *sql.Tx) visit.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeVisitRepository) FindByIDAndAgency(ctx context.Context, agencyID, id string) (*visit.Visit, error) {
	if f.findByIDAndAgencyFn != nil {
		return f.findByIDAndAgencyFn(ctx, agencyID, id)
	}
	return nil, nil
}

func (f *fakeVisitRepository) FindAllByCarerInRange(ctx context.Context, agencyID, carerID string, from, to time.Time) ([]visit.Visit, error) {
	if f.findAllByCarerFn != nil {
		return f.findAllByCarerFn(ctx, agencyID, carerID, from, to)
	}
	return nil, nil
}

func (f *fakeVisitRepository) FindRunningByCarer(ctx context.Context, agencyID, carerID string) (*visit.Visit, error) {
	if f.findRunningByCarerFn != nil {
		return f.findRunningByCarerFn(ctx, agencyID, carerID)
	}
	return nil, gormNotFound()
}

func (f *fakeVisitRepository) FindFutureByClient(ctx context.Context, agencyID string, clientID uuid.UUID, after time.Time) ([]visit.Visit, error) {
	if f.findFutureByClientFn != nil {
		return f.findFutureByClientFn(ctx, agencyID, clientID, after)
	}
	return nil, nil
}

func (f *fakeVisitRepository) FindUnnotifiedMissed(ctx context.Context, before time.Time, limit int) ([]visit.Visit, error) {
	if f.findUnnotifiedMissedFn != nil {
		return f.findUnnotifiedMissedFn(ctx, before, limit)
	}
	return nil, nil
}

func (f *fakeVisitRepository) Update(ctx context.Context, v *visit.Visit) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, v)
	}
	return nil
}

func (f *fakeVisitRepository) CreateClockEvent(ctx context.Context, e *visit.ClockEvent) error {
	if f.createClockEventFn != nil {
		return f.createClockEventFn(ctx, e)
	}
	return nil
}

func (f *fakeVisitRepository) ReplaceAssignees(ctx context.Context, visitID uuid.UUID, rows []visit.VisitAssignee) error {
	if f.replaceAssigneesFn != nil {
		return f.replaceAssigneesFn(ctx, visitID, rows)
	}
	return nil
}

type fakeVisitLogRepository struct {
	createFn func(ctx context.Context, l *visitlog.VisitLog) error
	entries  []visitlog.VisitLog
}

func (f *fakeVisitLogRepository) WithTx(tx *sql.Tx) visitlog.Repository { return f }

func (f *fakeVisitLogRepository) Create(ctx context.Context, l *visitlog.VisitLog) error {
	f.entries = append(f.entries, *l)
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeVisitLogRepository) FindAllByVisit(ctx context.Context, agencyID, visitID string) ([]visitlog.VisitLog, error) {
	return f.entries, nil
}

type visitServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service visit.Service
	repo    *fakeVisitRepository
	logRepo *fakeVisitLogRepository
}

func setupVisitServiceTest(t *testing.T, now time.Time) *visitServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeVisitRepository{}
	logRepo := &fakeVisitLogRepository{}
	svc := visit.NewService(db, repo, logRepo, schedule.FixedClock(now))

	return &visitServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		logRepo: logRepo,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", hhmm)
	assert.NoError(t, err)
	return time.Date(2025, 3, 10, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func morningVisit(t *testing.T, agencyID string, carerID uuid.UUID) *visit.Visit {
	t.Helper()
	return &visit.Visit{
		ID:       uuid.New(),
		AgencyID: uuid.MustParse(agencyID),
		ClientID: uuid.New(),
		StartAt:  at(t, "09:00"),
		EndAt:    at(t, "10:00"),
		CareType: visit.CareTypeSingleHanded,
		Status:   "SCHEDULED",
		Assignees: []visit.VisitAssignee{
			{ID: uuid.New(), CarerID: carerID, Position: 0},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestVisitService_ClockIn(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	carerUUID := uuid.New()
	carerID := carerUUID.String()

	t.Run("on time needs no reason", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			assert.Equal(t, agencyID, aid)
			return v, nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.NotNil(t, got.ClockInAt)
			assert.Equal(t, "IN_PROGRESS", got.Status)
			assert.Equal(t, "ON_TIME", *got.SessionTiming)
			return nil
		}
		deps.repo.createClockEventFn = func(ctx context.Context, e *visit.ClockEvent) error {
			assert.Equal(t, visit.ClockEventTypeIn, e.EventType)
			assert.Equal(t, "ON_TIME", e.Timing)
			return nil
		}

		resp, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", resp.Status)
		assert.NotNil(t, resp.ClockInAt)
		assert.Len(t, deps.logRepo.entries, 1)
		assert.Contains(t, deps.logRepo.entries[0].Message, "Clocked in on time at 9:00am")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("late without reason rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:05"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reason is required")
		assert.Nil(t, v.ClockInAt)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("late with unknown reason rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:05"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{
			Reason: strPtr("overslept"),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not in the accepted list")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("late with accepted reason marks session late", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:05"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.Equal(t, "LATE", *got.SessionTiming)
			return nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{
			Reason: strPtr("traffic-delay"),
		})

		assert.NoError(t, err)
		assert.Len(t, deps.logRepo.entries, 1)
		assert.Contains(t, deps.logRepo.entries[0].Message, "Clocked in late at 10:05am (traffic-delay)")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("rejected while another visit is running", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		other := morningVisit(t, agencyID, carerUUID)
		clockIn := at(t, "08:00")
		other.ClockInAt = &clockIn

		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.findRunningByCarerFn = func(ctx context.Context, aid, cid string) (*visit.Visit, error) {
			return other, nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "another visit is already clocked in")
		assert.Nil(t, v.ClockInAt)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("carer not assigned rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, uuid.New())
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not assigned")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("reopens a completed visit keeping totals", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:20"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		in, out := at(t, "09:00"), at(t, "10:10")
		v.ClockInAt = &in
		v.ClockOutAt = &out
		v.Status = "COMPLETED"
		v.ExtraTotalMs = (10 * time.Minute).Milliseconds()

		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.findRunningByCarerFn = func(ctx context.Context, aid, cid string) (*visit.Visit, error) {
			return nil, gormNotFound()
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.Nil(t, got.ClockOutAt)
			assert.Equal(t, at(t, "10:20"), *got.ClockInAt)
			assert.Equal(t, (10 * time.Minute).Milliseconds(), got.ExtraTotalMs)
			return nil
		}

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{
			Reason: strPtr("emergency"),
		})

		assert.NoError(t, err)
		assert.Len(t, deps.logRepo.entries, 1)
		assert.Contains(t, deps.logRepo.entries[0].Message, "Visit reopened")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestVisitService_ClockOut(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	carerUUID := uuid.New()
	carerID := carerUUID.String()

	t.Run("without clock in rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:30"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.ClockOut(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "has not been clocked in")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("early without reason rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:40"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		in := at(t, "09:00")
		v.ClockInAt = &in
		v.SessionTiming = strPtr("ON_TIME")
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.ClockOut(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reason is required for an early clock out")
		assert.NotNil(t, v.ClockInAt)
		assert.Nil(t, v.ClockOutAt)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("overrun session accrues extra time", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:20"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		in := at(t, "09:00")
		v.ClockInAt = &in
		v.SessionTiming = strPtr("ON_TIME")
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.Equal(t, (20 * time.Minute).Milliseconds(), got.ExtraTotalMs)
			assert.Equal(t, int64(0), got.OffTotalMs)
			assert.Equal(t, "COMPLETED", got.Status)
			return nil
		}

		resp, err := deps.service.ClockOut(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.NoError(t, err)
		assert.Equal(t, "0h 20m 0s", resp.ExtraTime)
		assert.Equal(t, "1h 20m", resp.WorkTime)
		assert.Len(t, deps.logRepo.entries, 1)
		assert.Contains(t, deps.logRepo.entries[0].Message, "extra time 0h 20m 0s")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("late session accrues off time instead", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "10:30"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		in := at(t, "10:05")
		v.ClockInAt = &in
		v.SessionTiming = strPtr("LATE")
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.Equal(t, int64(0), got.ExtraTotalMs)
			assert.Equal(t, (25 * time.Minute).Milliseconds(), got.OffTotalMs)
			return nil
		}

		resp, err := deps.service.ClockOut(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.NoError(t, err)
		assert.Equal(t, "0h 25m 0s", resp.OffTime)
		assert.Empty(t, resp.ExtraTime)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("early with accepted reason completes", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:50"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		in := at(t, "09:00")
		v.ClockInAt = &in
		v.SessionTiming = strPtr("ON_TIME")
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *visit.Visit) error {
			assert.Equal(t, int64(0), got.ExtraTotalMs)
			assert.Equal(t, int64(0), got.OffTotalMs)
			return nil
		}

		resp, err := deps.service.ClockOut(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{
			Reason: strPtr("task-completed-early"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.Contains(t, deps.logRepo.entries[0].Message, "Clocked out early at 9:50am (task-completed-early)")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestVisitService_Assign(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("same carer in both positions rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		carerUUID := uuid.New()
		v := morningVisit(t, agencyID, uuid.New())
		v.CareType = visit.CareTypeDoubleHanded
		v.Assignees = append(v.Assignees, visit.VisitAssignee{
			ID: uuid.New(), CarerID: carerUUID, Position: 1,
		})
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.Assign(ctx, agencyID, actorID, v.ID.String(), visit.AssignRequest{
			CarerID: carerUUID.String(),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "both positions")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("replaces primary and keeps secondary", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		secondary := uuid.New()
		newPrimary := uuid.New()
		v := morningVisit(t, agencyID, uuid.New())
		v.CareType = visit.CareTypeDoubleHanded
		v.Assignees = append(v.Assignees, visit.VisitAssignee{
			ID: uuid.New(), CarerID: secondary, Position: 1,
		})
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.replaceAssigneesFn = func(ctx context.Context, visitID uuid.UUID, rows []visit.VisitAssignee) error {
			assert.Equal(t, v.ID, visitID)
			assert.Len(t, rows, 2)
			assert.Equal(t, newPrimary, rows[0].CarerID)
			assert.Equal(t, secondary, rows[1].CarerID)
			return nil
		}

		resp, err := deps.service.Assign(ctx, agencyID, actorID, v.ID.String(), visit.AssignRequest{
			CarerID: newPrimary.String(),
		})

		assert.NoError(t, err)
		assert.Len(t, resp.Assignees, 2)
		assert.Len(t, deps.logRepo.entries, 1)
		assert.Contains(t, deps.logRepo.entries[0].Message, "Assignment updated")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("propagates to upcoming visits of the client", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		newPrimary := uuid.New()
		v := morningVisit(t, agencyID, uuid.New())
		future := morningVisit(t, agencyID, uuid.New())
		future.ClientID = v.ClientID
		expectTx(t, deps.sqlMock, true)

		replaced := map[uuid.UUID]int{}
		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.findFutureByClientFn = func(ctx context.Context, aid string, clientID uuid.UUID, after time.Time) ([]visit.Visit, error) {
			assert.Equal(t, v.ClientID, clientID)
			return []visit.Visit{*future}, nil
		}
		deps.repo.replaceAssigneesFn = func(ctx context.Context, visitID uuid.UUID, rows []visit.VisitAssignee) error {
			replaced[visitID] = len(rows)
			return nil
		}

		_, err := deps.service.Assign(ctx, agencyID, actorID, v.ID.String(), visit.AssignRequest{
			CarerID:   newPrimary.String(),
			Propagate: true,
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, replaced[v.ID])
		assert.Equal(t, 1, replaced[future.ID])
		assert.Contains(t, deps.logRepo.entries[0].Message, "propagated to 1 upcoming visit(s)")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestVisitService_AssignBatch(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("more than two carers rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		_, err := deps.service.AssignBatch(ctx, agencyID, actorID, uuid.NewString(), visit.AssignBatchRequest{
			CarerIDs: []string{uuid.NewString(), uuid.NewString(), uuid.NewString()},
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at most two carers")
	})

	t.Run("duplicate carer rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		id := uuid.NewString()
		_, err := deps.service.AssignBatch(ctx, agencyID, actorID, uuid.NewString(), visit.AssignBatchRequest{
			CarerIDs: []string{id, id},
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "both positions")
	})

	t.Run("two carers on a single handed call rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, uuid.New())
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		_, err := deps.service.AssignBatch(ctx, agencyID, actorID, v.ID.String(), visit.AssignBatchRequest{
			CarerIDs: []string{uuid.NewString(), uuid.NewString()},
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "single handed call")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("assigns positions in order", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "08:00"))
		defer deps.db.Close()

		first, second := uuid.New(), uuid.New()
		v := morningVisit(t, agencyID, uuid.New())
		v.CareType = visit.CareTypeDoubleHanded
		expectTx(t, deps.sqlMock, true)

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		deps.repo.replaceAssigneesFn = func(ctx context.Context, visitID uuid.UUID, rows []visit.VisitAssignee) error {
			assert.Len(t, rows, 2)
			assert.Equal(t, 0, rows[0].Position)
			assert.Equal(t, first, rows[0].CarerID)
			assert.Equal(t, 1, rows[1].Position)
			assert.Equal(t, second, rows[1].CarerID)
			return nil
		}

		resp, err := deps.service.AssignBatch(ctx, agencyID, actorID, v.ID.String(), visit.AssignBatchRequest{
			CarerIDs: []string{first.String(), second.String()},
		})

		assert.NoError(t, err)
		assert.Len(t, resp.Assignees, 2)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestVisitService_ListCarerVisits(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	carerUUID := uuid.New()
	carerID := carerUUID.String()

	t.Run("returns derived fields and the closest visit", func(t *testing.T) {
		now := at(t, "09:40")
		deps := setupVisitServiceTest(t, now)
		defer deps.db.Close()

		early := morningVisit(t, agencyID, carerUUID)
		in := at(t, "09:10")
		early.ClockInAt = &in
		early.SessionTiming = strPtr("ON_TIME")
		early.Status = "IN_PROGRESS"

		later := morningVisit(t, agencyID, carerUUID)
		later.StartAt = at(t, "14:00")
		later.EndAt = at(t, "15:00")

		deps.repo.findAllByCarerFn = func(ctx context.Context, aid, cid string, from, to time.Time) ([]visit.Visit, error) {
			assert.Equal(t, agencyID, aid)
			assert.Equal(t, carerID, cid)
			assert.Equal(t, 24*time.Hour, to.Sub(from))
			return []visit.Visit{*early, *later}, nil
		}

		resp, err := deps.service.ListCarerVisits(ctx, agencyID, carerID, visit.VisitFilter{})

		assert.NoError(t, err)
		assert.Len(t, resp.Visits, 2)
		assert.Equal(t, early.ID.String(), resp.ClosestVisitID)

		// 10 min offset plus 30 min elapsed of a 60 min window.
		assert.InDelta(t, 66.7, resp.Visits[0].Progress, 0.1)
		assert.Equal(t, "In Progress", resp.Visits[0].StatusLabel)
		assert.Equal(t, "Started at 9:10am", resp.Visits[0].SecondaryLabel)
		assert.Equal(t, "30m", resp.Visits[0].WorkTime)

		assert.Equal(t, "Not Clocked In", resp.Visits[1].StatusLabel)
		assert.Equal(t, "Scheduled for 2:00pm", resp.Visits[1].SecondaryLabel)
		assert.Equal(t, float64(100), resp.Visits[1].Layout.WidthPercent)
		assert.Equal(t, 14, resp.Visits[1].Layout.HourBucket)
	})

	t.Run("range filter spans whole days", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

		deps.repo.findAllByCarerFn = func(ctx context.Context, aid, cid string, gotFrom, gotTo time.Time) ([]visit.Visit, error) {
			assert.Equal(t, from, gotFrom)
			assert.Equal(t, to.Add(24*time.Hour), gotTo)
			return nil, nil
		}

		_, err := deps.service.ListCarerVisits(ctx, agencyID, carerID, visit.VisitFilter{
			From: &from,
			To:   &to,
		})

		assert.NoError(t, err)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		from := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		_, err := deps.service.ListCarerVisits(ctx, agencyID, carerID, visit.VisitFilter{
			From: &from,
			To:   &to,
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "startDate must be before or equal endDate")
	})
}

func TestVisitService_GetByID(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()

	t.Run("missed visit derives lateness", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "11:05"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, uuid.New())
		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}

		resp, err := deps.service.GetByID(ctx, agencyID, v.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, "MISSED", resp.State)
		assert.Equal(t, "Late by 2h 5m", resp.Lateness)
		assert.Equal(t, float64(0), resp.Progress)
	})

	t.Run("not found mapped", func(t *testing.T) {
		deps := setupVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return nil, gormNotFound()
		}

		_, err := deps.service.GetByID(ctx, agencyID, uuid.NewString())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "visit not found")
	})
}

func setupCachedVisitServiceTest(t *testing.T, now time.Time) (*visitServiceDeps, redismock.ClientMock) {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	rdb, redisMock := redismock.NewClientMock()
	repo := &fakeVisitRepository{}
	logRepo := &fakeVisitLogRepository{}
	svc := visit.NewServiceWithOutbox(db, repo, logRepo, nil, rdb, schedule.FixedClock(now))

	return &visitServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		logRepo: logRepo,
	}, redisMock
}

func TestVisitService_RosterCache(t *testing.T) {
	ctx := context.Background()
	agencyID := uuid.New().String()
	carerUUID := uuid.New()
	carerID := carerUUID.String()
	cacheKey := "visits:roster:" + agencyID + ":" + carerID + ":2025-03-10"

	t.Run("single day roster served from cache", func(t *testing.T) {
		deps, redisMock := setupCachedVisitServiceTest(t, at(t, "09:40"))
		defer deps.db.Close()

		rows := []visit.Visit{*morningVisit(t, agencyID, carerUUID)}
		cached, err := json.Marshal(rows)
		assert.NoError(t, err)
		redisMock.ExpectGet(cacheKey).SetVal(string(cached))

		repoCalled := false
		deps.repo.findAllByCarerFn = func(ctx context.Context, aid, cid string, from, to time.Time) ([]visit.Visit, error) {
			repoCalled = true
			return nil, nil
		}

		resp, err := deps.service.ListCarerVisits(ctx, agencyID, carerID, visit.VisitFilter{})

		assert.NoError(t, err)
		assert.False(t, repoCalled)
		assert.Len(t, resp.Visits, 1)
		assert.Equal(t, rows[0].ID.String(), resp.Visits[0].ID)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss stores the day roster", func(t *testing.T) {
		deps, redisMock := setupCachedVisitServiceTest(t, at(t, "09:40"))
		defer deps.db.Close()

		rows := []visit.Visit{*morningVisit(t, agencyID, carerUUID)}
		deps.repo.findAllByCarerFn = func(ctx context.Context, aid, cid string, from, to time.Time) ([]visit.Visit, error) {
			return rows, nil
		}

		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.Regexp().ExpectSet(cacheKey, `.*`, 5*time.Minute).SetVal("OK")

		resp, err := deps.service.ListCarerVisits(ctx, agencyID, carerID, visit.VisitFilter{})

		assert.NoError(t, err)
		assert.Len(t, resp.Visits, 1)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("clock in drops the cached roster", func(t *testing.T) {
		deps, redisMock := setupCachedVisitServiceTest(t, at(t, "09:00"))
		defer deps.db.Close()

		v := morningVisit(t, agencyID, carerUUID)
		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndAgencyFn = func(ctx context.Context, aid, id string) (*visit.Visit, error) {
			return v, nil
		}
		redisMock.ExpectDel(cacheKey).SetVal(1)

		_, err := deps.service.ClockIn(ctx, agencyID, carerID, v.ID.String(), visit.ClockRequest{})

		assert.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

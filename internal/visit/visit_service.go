package visit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"carelink/internal/events"
	"carelink/internal/messaging/kafka"
	"carelink/internal/schedule"
	"carelink/internal/shared/contextutil"
	visiterrors "carelink/internal/visit/errors"
	"carelink/internal/visitlog"
)

const rosterCacheKeyPrefix = "visits:roster:"

func rosterCacheKey(agencyID, carerID string, day time.Time) string {
	return rosterCacheKeyPrefix + agencyID + ":" + carerID + ":" + day.Format("2006-01-02")
}

// VisitFilter narrows a carer roster query. Exactly one of Date, Day
// or From/To is set; with none the roster defaults to today.
type VisitFilter struct {
	Date *time.Time
	Day  *time.Weekday
	From *time.Time
	To   *time.Time
}

// CarerRosterResponse is the day roster plus the visit closest to now,
// which the client scrolls into view.
type CarerRosterResponse struct {
	Visits         []VisitResponse `json:"visits"`
	ClosestVisitID string          `json:"closestVisitId,omitempty"`
}

//go:generate mockgen -source=visit_service.go -destination=mock/visit_service_mock.go -package=mock
type Service interface {
	ListCarerVisits(ctx context.Context, agencyID, carerID string, f VisitFilter) (CarerRosterResponse, error)
	GetByID(ctx context.Context, agencyID, id string) (VisitResponse, error)
	ClockIn(ctx context.Context, agencyID, carerID, visitID string, req ClockRequest) (VisitResponse, error)
	ClockOut(ctx context.Context, agencyID, carerID, visitID string, req ClockRequest) (VisitResponse, error)
	Assign(ctx context.Context, agencyID, actorID, visitID string, req AssignRequest) (VisitResponse, error)
	AssignBatch(ctx context.Context, agencyID, actorID, visitID string, req AssignBatchRequest) (VisitResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	logRepo visitlog.Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	sf      *singleflight.Group
	clock   schedule.Clock
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logRepo visitlog.Repository, clock schedule.Clock, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, logRepo, nil, nil, clock, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	logRepo visitlog.Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	clock schedule.Clock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("visit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("visit.service")
	}
	if clock == nil {
		clock = schedule.SystemClock()
	}
	return &service{
		db:      db,
		repo:    repo,
		logRepo: logRepo,
		outbox:  outboxRepo,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		clock:   clock,
		logger:  l,
	}
}

func (s *service) ListCarerVisits(ctx context.Context, agencyID, carerID string, f VisitFilter) (CarerRosterResponse, error) {
	s.logger.Debug("list carer visits requested",
		zap.String("agency_id", agencyID),
		zap.String("carer_id", carerID),
	)

	if _, err := uuid.Parse(agencyID); err != nil {
		return CarerRosterResponse{}, visiterrors.ErrInvalidAgencyID
	}
	if _, err := uuid.Parse(carerID); err != nil {
		return CarerRosterResponse{}, visiterrors.ErrInvalidCarerID
	}

	now := s.clock.Now()
	from, to, err := resolveRange(now, f)
	if err != nil {
		s.logger.Warn("list carer visits bad filter", zap.Error(err))
		return CarerRosterResponse{}, err
	}

	singleDay := to.Sub(from) == 24*time.Hour

	cacheKey := rosterCacheKey(agencyID, carerID, from)
	if s.rdb != nil && singleDay {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var rows []Visit
			if json.Unmarshal([]byte(cached), &rows) == nil {
				return s.buildRoster(rows, now), nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindAllByCarerInRange(ctx, agencyID, carerID, from, to)
		if err != nil {
			return nil, err
		}
		if s.rdb != nil && singleDay {
			if jsonData, err := json.Marshal(rows); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 5*time.Minute)
			}
		}
		return rows, nil
	})
	if err != nil {
		s.logger.Error("list carer visits failed", zap.Error(err))
		return CarerRosterResponse{}, err
	}

	return s.buildRoster(v.([]Visit), now), nil
}

func (s *service) buildRoster(rows []Visit, now time.Time) CarerRosterResponse {
	resp := CarerRosterResponse{Visits: make([]VisitResponse, len(rows))}
	starts := make([]time.Time, len(rows))
	for i, row := range rows {
		resp.Visits[i] = mapToResponse(row, now)
		starts[i] = row.StartAt
	}
	if idx := schedule.ClosestIndex(now, starts); idx >= 0 {
		resp.ClosestVisitID = resp.Visits[idx].ID
	}
	return resp
}

func (s *service) GetByID(ctx context.Context, agencyID, id string) (VisitResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return VisitResponse{}, visiterrors.ErrInvalidVisitID
	}
	v, err := s.repo.FindByIDAndAgency(ctx, agencyID, id)
	if err != nil {
		mapped := mapRepositoryError(err)
		if !errors.Is(mapped, visiterrors.ErrVisitNotFound) {
			s.logger.Error("get visit failed", zap.String("visit_id", id), zap.Error(err))
		}
		return VisitResponse{}, mapped
	}
	return mapToResponse(*v, s.clock.Now()), nil
}

func (s *service) ClockIn(ctx context.Context, agencyID, carerID, visitID string, req ClockRequest) (VisitResponse, error) {
	s.logger.Debug("clock in requested",
		zap.String("visit_id", visitID),
		zap.String("carer_id", carerID),
	)

	now, err := s.effectiveTime(req.Timestamp)
	if err != nil {
		return VisitResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock in begin tx failed", zap.Error(err))
		return VisitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	v, carerUUID, err := s.loadForCarer(ctx, qtx, agencyID, carerID, visitID)
	if err != nil {
		return VisitResponse{}, err
	}

	if v.ClockInAt != nil && v.ClockOutAt == nil {
		return VisitResponse{}, visiterrors.ErrVisitAlreadyClockedIn
	}

	// One running visit per carer; the guard fires before any mutation.
	running, err := qtx.FindRunningByCarer(ctx, agencyID, carerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("clock in running check failed", zap.Error(err))
		return VisitResponse{}, err
	}
	if err == nil && running.ID != v.ID {
		s.logger.Warn("clock in rejected, another visit running",
			zap.String("carer_id", carerID),
			zap.String("running_visit_id", running.ID.String()),
		)
		return VisitResponse{}, visiterrors.ErrAnotherVisitRunning
	}

	w := schedule.Window{Start: v.StartAt, End: v.EndAt}
	timing := schedule.ClassifyClockIn(now, w)

	switch timing {
	case schedule.TimingEarly:
		if req.Reason == nil || *req.Reason == "" {
			return VisitResponse{}, visiterrors.ErrClockInReasonRequired
		}
		if !reasonAllowed(earlyClockInReasons, req.Reason) {
			return VisitResponse{}, visiterrors.ErrUnknownClockInReason
		}
	case schedule.TimingLate:
		if req.Reason == nil || *req.Reason == "" {
			return VisitResponse{}, visiterrors.ErrClockInReasonRequired
		}
		if !reasonAllowed(lateClockInReasons, req.Reason) {
			return VisitResponse{}, visiterrors.ErrUnknownClockInReason
		}
	}

	reopened := v.ClockOutAt != nil

	// Re-clocking a completed visit opens a fresh session; accumulated
	// extra and off totals are preserved.
	v.ClockOutAt = nil
	v.ClockInAt = &now
	timingStr := string(timing)
	v.SessionTiming = &timingStr
	v.Status = statusInProgress

	if err := qtx.Update(ctx, v); err != nil {
		s.logger.Error("clock in persist failed", zap.Error(err))
		return VisitResponse{}, err
	}

	if err := qtx.CreateClockEvent(ctx, &ClockEvent{
		ID:         uuid.New(),
		AgencyID:   v.AgencyID,
		VisitID:    v.ID,
		CarerID:    carerUUID,
		EventType:  ClockEventTypeIn,
		Timing:     timingStr,
		Reason:     req.Reason,
		Comments:   req.Comments,
		OccurredAt: now,
	}); err != nil {
		s.logger.Error("clock in event persist failed", zap.Error(err))
		return VisitResponse{}, err
	}

	msg := clockLogMessage("Clocked in", timing, now, req.Reason)
	if reopened {
		msg = "Visit reopened: " + msg
	}
	if err := s.appendLogTx(ctx, tx, v, carerUUID, visitlog.ActionClockIn, msg); err != nil {
		return VisitResponse{}, err
	}

	if err := s.queueClockEventTx(ctx, tx, v, carerID, events.EventTypeVisitClockedIn, timingStr, req.Reason, now); err != nil {
		return VisitResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock in commit failed", zap.Error(err))
		return VisitResponse{}, err
	}

	s.invalidateRoster(ctx, v)

	s.logger.Info("clock in success",
		zap.String("visit_id", visitID),
		zap.String("carer_id", carerID),
		zap.String("timing", timingStr),
	)
	return mapToResponse(*v, s.clock.Now()), nil
}

func (s *service) ClockOut(ctx context.Context, agencyID, carerID, visitID string, req ClockRequest) (VisitResponse, error) {
	s.logger.Debug("clock out requested",
		zap.String("visit_id", visitID),
		zap.String("carer_id", carerID),
	)

	now, err := s.effectiveTime(req.Timestamp)
	if err != nil {
		return VisitResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock out begin tx failed", zap.Error(err))
		return VisitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	v, carerUUID, err := s.loadForCarer(ctx, qtx, agencyID, carerID, visitID)
	if err != nil {
		return VisitResponse{}, err
	}

	if v.ClockInAt == nil || v.ClockOutAt != nil {
		return VisitResponse{}, visiterrors.ErrVisitNotClockedIn
	}

	w := schedule.Window{Start: v.StartAt, End: v.EndAt}
	timing := schedule.ClassifyClockOut(now, w)

	if timing == schedule.TimingEarly {
		if req.Reason == nil || *req.Reason == "" {
			return VisitResponse{}, visiterrors.ErrClockOutReasonRequired
		}
		if !reasonAllowed(earlyClockOutReasons, req.Reason) {
			return VisitResponse{}, visiterrors.ErrUnknownClockOutReason
		}
	}

	sessionTiming := schedule.TimingOnTime
	if v.SessionTiming != nil {
		sessionTiming = schedule.Timing(*v.SessionTiming)
	}
	extra, off := schedule.SessionAccounting(now, w, schedule.Session{
		ClockInAt: *v.ClockInAt,
		Timing:    sessionTiming,
	})

	v.ExtraTotalMs += extra.Milliseconds()
	v.OffTotalMs += off.Milliseconds()
	v.ClockOutAt = &now
	v.Status = statusCompleted

	if err := qtx.Update(ctx, v); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return VisitResponse{}, err
	}

	timingStr := string(timing)
	if err := qtx.CreateClockEvent(ctx, &ClockEvent{
		ID:         uuid.New(),
		AgencyID:   v.AgencyID,
		VisitID:    v.ID,
		CarerID:    carerUUID,
		EventType:  ClockEventTypeOut,
		Timing:     timingStr,
		Reason:     req.Reason,
		Comments:   req.Comments,
		OccurredAt: now,
	}); err != nil {
		s.logger.Error("clock out event persist failed", zap.Error(err))
		return VisitResponse{}, err
	}

	msg := clockLogMessage("Clocked out", timing, now, req.Reason)
	if extra > 0 {
		msg += ", extra time " + schedule.FormatDuration(extra)
	}
	if off > 0 {
		msg += ", off time " + schedule.FormatDuration(off)
	}
	if err := s.appendLogTx(ctx, tx, v, carerUUID, visitlog.ActionClockOut, msg); err != nil {
		return VisitResponse{}, err
	}

	if err := s.queueClockEventTx(ctx, tx, v, carerID, events.EventTypeVisitClockedOut, timingStr, req.Reason, now); err != nil {
		return VisitResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock out commit failed", zap.Error(err))
		return VisitResponse{}, err
	}

	s.invalidateRoster(ctx, v)

	s.logger.Info("clock out success",
		zap.String("visit_id", visitID),
		zap.String("carer_id", carerID),
		zap.String("timing", timingStr),
	)
	return mapToResponse(*v, s.clock.Now()), nil
}

func (s *service) Assign(ctx context.Context, agencyID, actorID, visitID string, req AssignRequest) (VisitResponse, error) {
	s.logger.Debug("assign carer requested",
		zap.String("visit_id", visitID),
		zap.String("carer_id", req.CarerID),
	)

	carerUUID, err := uuid.Parse(req.CarerID)
	if err != nil {
		return VisitResponse{}, visiterrors.ErrInvalidCarerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("assign begin tx failed", zap.Error(err))
		return VisitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	v, err := s.load(ctx, qtx, agencyID, visitID)
	if err != nil {
		return VisitResponse{}, err
	}

	rows := []VisitAssignee{{
		ID:       uuid.New(),
		VisitID:  v.ID,
		CarerID:  carerUUID,
		Position: 0,
	}}
	for _, a := range v.Assignees {
		if a.Position == 0 {
			continue
		}
		if a.CarerID == carerUUID {
			return VisitResponse{}, visiterrors.ErrDuplicateCarer
		}
		rows = append(rows, a)
	}

	return s.applyAssignment(ctx, tx, qtx, v, actorID, rows, req.Propagate)
}

func (s *service) AssignBatch(ctx context.Context, agencyID, actorID, visitID string, req AssignBatchRequest) (VisitResponse, error) {
	s.logger.Debug("assign batch requested",
		zap.String("visit_id", visitID),
		zap.Int("carer_count", len(req.CarerIDs)),
	)

	if len(req.CarerIDs) == 0 {
		return VisitResponse{}, visiterrors.ErrNoCarersGiven
	}
	if len(req.CarerIDs) > 2 {
		return VisitResponse{}, visiterrors.ErrTooManyCarers
	}
	if len(req.CarerIDs) == 2 && req.CarerIDs[0] == req.CarerIDs[1] {
		return VisitResponse{}, visiterrors.ErrDuplicateCarer
	}

	carerUUIDs := make([]uuid.UUID, len(req.CarerIDs))
	for i, id := range req.CarerIDs {
		u, err := uuid.Parse(id)
		if err != nil {
			return VisitResponse{}, visiterrors.ErrInvalidCarerID
		}
		carerUUIDs[i] = u
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("assign batch begin tx failed", zap.Error(err))
		return VisitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	v, err := s.load(ctx, qtx, agencyID, visitID)
	if err != nil {
		return VisitResponse{}, err
	}

	if len(carerUUIDs) == 2 && v.CareType == CareTypeSingleHanded {
		return VisitResponse{}, visiterrors.ErrSingleHandedSecondCarer
	}

	rows := make([]VisitAssignee, len(carerUUIDs))
	for i, u := range carerUUIDs {
		rows[i] = VisitAssignee{
			ID:       uuid.New(),
			VisitID:  v.ID,
			CarerID:  u,
			Position: i,
		}
	}

	return s.applyAssignment(ctx, tx, qtx, v, actorID, rows, req.Propagate)
}

func (s *service) applyAssignment(ctx context.Context, tx *sql.Tx, qtx Repository, v *Visit, actorID string, rows []VisitAssignee, propagate bool) (VisitResponse, error) {
	if err := qtx.ReplaceAssignees(ctx, v.ID, rows); err != nil {
		s.logger.Error("assign persist failed", zap.String("visit_id", v.ID.String()), zap.Error(err))
		return VisitResponse{}, mapRepositoryError(err)
	}

	propagated := 0
	if propagate {
		future, err := qtx.FindFutureByClient(ctx, v.AgencyID.String(), v.ClientID, v.StartAt)
		if err != nil {
			s.logger.Error("assign propagate lookup failed", zap.Error(err))
			return VisitResponse{}, err
		}
		for _, fv := range future {
			next := make([]VisitAssignee, len(rows))
			for i, row := range rows {
				next[i] = VisitAssignee{
					ID:       uuid.New(),
					VisitID:  fv.ID,
					CarerID:  row.CarerID,
					Position: row.Position,
				}
			}
			if err := qtx.ReplaceAssignees(ctx, fv.ID, next); err != nil {
				s.logger.Error("assign propagate persist failed", zap.Error(err))
				return VisitResponse{}, err
			}
			propagated++
		}
	}

	var actorUUID uuid.UUID
	if u, err := uuid.Parse(actorID); err == nil {
		actorUUID = u
	}
	msg := fmt.Sprintf("Assignment updated, %d carer(s)", len(rows))
	if propagated > 0 {
		msg += fmt.Sprintf(", propagated to %d upcoming visit(s)", propagated)
	}
	if err := s.appendLogTx(ctx, tx, v, actorUUID, visitlog.ActionAssignment, msg); err != nil {
		return VisitResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("assign commit failed", zap.Error(err))
		return VisitResponse{}, err
	}

	// Roster caches of the outgoing carers go stale too.
	s.invalidateRoster(ctx, v)

	v.Assignees = rows
	s.logger.Info("assign success",
		zap.String("visit_id", v.ID.String()),
		zap.Int("carer_count", len(rows)),
		zap.Int("propagated", propagated),
	)
	return mapToResponse(*v, s.clock.Now()), nil
}

func (s *service) load(ctx context.Context, qtx Repository, agencyID, visitID string) (*Visit, error) {
	if _, err := uuid.Parse(agencyID); err != nil {
		return nil, visiterrors.ErrInvalidAgencyID
	}
	if _, err := uuid.Parse(visitID); err != nil {
		return nil, visiterrors.ErrInvalidVisitID
	}
	v, err := qtx.FindByIDAndAgency(ctx, agencyID, visitID)
	if err != nil {
		mapped := mapRepositoryError(err)
		if !errors.Is(mapped, visiterrors.ErrVisitNotFound) {
			s.logger.Error("load visit failed", zap.String("visit_id", visitID), zap.Error(err))
		}
		return nil, mapped
	}
	return v, nil
}

func (s *service) loadForCarer(ctx context.Context, qtx Repository, agencyID, carerID, visitID string) (*Visit, uuid.UUID, error) {
	carerUUID, err := uuid.Parse(carerID)
	if err != nil {
		return nil, uuid.Nil, visiterrors.ErrInvalidCarerID
	}
	v, err := s.load(ctx, qtx, agencyID, visitID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	assigned := false
	for _, a := range v.Assignees {
		if a.CarerID == carerUUID {
			assigned = true
			break
		}
	}
	if !assigned {
		s.logger.Warn("carer not assigned to visit",
			zap.String("visit_id", visitID),
			zap.String("carer_id", carerID),
		)
		return nil, uuid.Nil, visiterrors.ErrCarerNotAssigned
	}
	return v, carerUUID, nil
}

func (s *service) effectiveTime(ts *string) (time.Time, error) {
	if ts == nil || *ts == "" {
		return s.clock.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, *ts)
	if err != nil {
		return time.Time{}, visiterrors.ErrInvalidTimestamp
	}
	return t.UTC(), nil
}

func (s *service) appendLogTx(ctx context.Context, tx *sql.Tx, v *Visit, actorID uuid.UUID, action, msg string) error {
	if s.logRepo == nil {
		return nil
	}
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		actor = &actorID
	}
	if err := s.logRepo.WithTx(tx).Create(ctx, &visitlog.VisitLog{
		ID:       uuid.New(),
		AgencyID: v.AgencyID,
		VisitID:  v.ID,
		Action:   action,
		Message:  msg,
		ActorID:  actor,
	}); err != nil {
		s.logger.Error("visit log persist failed",
			zap.String("visit_id", v.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) queueClockEventTx(ctx context.Context, tx *sql.Tx, v *Visit, carerID, eventType, timing string, reason *string, occurredAt time.Time) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)
	event := events.VisitClockEvent{
		EventType:  eventType,
		VisitID:    v.ID.String(),
		AgencyID:   v.AgencyID.String(),
		CarerID:    carerID,
		Timing:     timing,
		OccurredAt: occurredAt,
	}
	if reason != nil {
		event.Reason = *reason
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal clock event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "visit",
		AggregateID:   v.ID.String(),
		EventType:     eventType,
		Topic:         events.VisitClockTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("clock event outbox persist failed",
			zap.String("visit_id", v.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) invalidateRoster(ctx context.Context, v *Visit) {
	if s.rdb == nil {
		return
	}
	day := v.StartAt.UTC().Truncate(24 * time.Hour)
	for _, a := range v.Assignees {
		key := rosterCacheKey(v.AgencyID.String(), a.CarerID.String(), day)
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			s.logger.Error("failed to invalidate roster cache",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func resolveRange(now time.Time, f VisitFilter) (time.Time, time.Time, error) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	switch {
	case f.Date != nil:
		from := day(*f.Date)
		return from, from.Add(24 * time.Hour), nil
	case f.Day != nil:
		// The named weekday within the current Monday-based week.
		monday := day(now).AddDate(0, 0, -mondayOffset(now.Weekday()))
		from := monday.AddDate(0, 0, mondayOffset(*f.Day))
		return from, from.Add(24 * time.Hour), nil
	case f.From != nil && f.To != nil:
		from, to := day(*f.From), day(*f.To)
		if to.Before(from) {
			return time.Time{}, time.Time{}, visiterrors.ErrInvalidDateRange
		}
		return from, to.Add(24 * time.Hour), nil
	default:
		from := day(now)
		return from, from.Add(24 * time.Hour), nil
	}
}

func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func clockLogMessage(verb string, timing schedule.Timing, at time.Time, reason *string) string {
	msg := verb
	switch timing {
	case schedule.TimingEarly:
		msg += " early"
	case schedule.TimingLate:
		msg += " late"
	case schedule.TimingOnTime:
		msg += " on time"
	}
	msg += " at " + schedule.FormatClockTime(at)
	if reason != nil && *reason != "" {
		msg += " (" + *reason + ")"
	}
	return msg
}

func mapToResponse(v Visit, now time.Time) VisitResponse {
	w := schedule.Window{Start: v.StartAt, End: v.EndAt}
	state := schedule.DeriveState(now, w, v.ClockInAt, v.ClockOutAt)

	resp := VisitResponse{
		ID:             v.ID.String(),
		ClientID:       v.ClientID.String(),
		StartDate:      v.StartAt.UTC().Format(time.RFC3339),
		EndDate:        v.EndAt.UTC().Format(time.RFC3339),
		CareType:       v.CareType,
		Status:         v.Status,
		State:          string(state),
		StatusLabel:    schedule.StatusLabel(v.ClockInAt, v.ClockOutAt),
		SecondaryLabel: schedule.SecondaryLabel(w, v.ClockInAt, v.ClockOutAt),
		Assignees:      make([]AssigneeResponse, len(v.Assignees)),
		Tasks:          make([]TaskSummaryResponse, len(v.Tasks)),
		Layout: LayoutResponse{
			WidthPercent:      schedule.WidthPercent(w),
			LeftOffsetPercent: schedule.LeftOffsetPercent(w),
			HourBucket:        schedule.HourBucket(w),
		},
	}

	if v.Client != nil {
		resp.ClientName = v.Client.FullName
	}
	for i, a := range v.Assignees {
		resp.Assignees[i] = AssigneeResponse{
			CarerID:  a.CarerID.String(),
			Position: a.Position,
			Distance: a.DistanceKm,
		}
	}
	for i, t := range v.Tasks {
		resp.Tasks[i] = TaskSummaryResponse{
			ID:     t.ID.String(),
			Title:  t.Title,
			Status: t.Status,
		}
	}

	if v.ClockInAt != nil {
		s := v.ClockInAt.UTC().Format(time.RFC3339)
		resp.ClockInAt = &s
	}
	if v.ClockOutAt != nil {
		s := v.ClockOutAt.UTC().Format(time.RFC3339)
		resp.ClockOutAt = &s
	}

	switch state {
	case schedule.StateCompleted:
		resp.Progress = 100
	case schedule.StateInProgress:
		resp.Progress = schedule.Progress(now, w, *v.ClockInAt)
	}

	extraTotal := time.Duration(v.ExtraTotalMs) * time.Millisecond
	offTotal := time.Duration(v.OffTotalMs) * time.Millisecond
	if state == schedule.StateInProgress && v.ClockInAt != nil {
		sessionTiming := schedule.TimingOnTime
		if v.SessionTiming != nil {
			sessionTiming = schedule.Timing(*v.SessionTiming)
		}
		extra, off := schedule.SessionAccounting(now, w, schedule.Session{
			ClockInAt: *v.ClockInAt,
			Timing:    sessionTiming,
		})
		extraTotal += extra
		offTotal += off
	}
	if extraTotal > 0 {
		resp.ExtraTime = schedule.FormatDuration(extraTotal)
	}
	if offTotal > 0 {
		resp.OffTime = schedule.FormatDuration(offTotal)
	}

	if v.ClockInAt == nil {
		resp.Lateness = schedule.LatenessLabel(now, w)
	}

	switch {
	case v.ClockInAt != nil && v.ClockOutAt != nil:
		resp.WorkTime = schedule.FormatShortDuration(v.ClockOutAt.Sub(*v.ClockInAt))
	case v.ClockInAt != nil:
		resp.WorkTime = schedule.FormatShortDuration(schedule.Elapsed(now, *v.ClockInAt))
	}

	return resp
}

package task

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"carelink/internal/schedule"
	taskerrors "carelink/internal/task/errors"
	"carelink/internal/visitlog"
)

//go:generate mockgen -source=task_service.go -destination=mock/task_service_mock.go -package=mock
type Service interface {
	Update(ctx context.Context, agencyID, actorID, taskID string, req UpdateTaskRequest) (TaskResponse, error)
	ListByVisit(ctx context.Context, agencyID, visitID string) ([]TaskResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	logRepo visitlog.Repository
	clock   schedule.Clock
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logRepo visitlog.Repository, clock schedule.Clock, logger ...*zap.Logger) Service {
	l := zap.L().Named("task.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("task.service")
	}
	if clock == nil {
		clock = schedule.SystemClock()
	}
	return &service{db: db, repo: repo, logRepo: logRepo, clock: clock, logger: l}
}

func (s *service) Update(ctx context.Context, agencyID, actorID, taskID string, req UpdateTaskRequest) (TaskResponse, error) {
	s.logger.Debug("update task requested",
		zap.String("agency_id", agencyID),
		zap.String("task_id", taskID),
		zap.String("status", req.Status),
	)

	if _, err := uuid.Parse(agencyID); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidAgencyID
	}
	if _, err := uuid.Parse(taskID); err != nil {
		return TaskResponse{}, taskerrors.ErrInvalidTaskID
	}
	if req.Status != StatusCompleted {
		return TaskResponse{}, taskerrors.ErrInvalidTaskStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update task begin tx failed", zap.Error(err))
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	t, err := qtx.FindByIDAndAgency(ctx, agencyID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaskResponse{}, taskerrors.ErrTaskNotFound
		}
		s.logger.Error("update task load failed", zap.Error(err))
		return TaskResponse{}, err
	}

	if t.Status == StatusCompleted {
		return TaskResponse{}, taskerrors.ErrTaskAlreadyCompleted
	}

	clockedIn, err := qtx.VisitClockedIn(ctx, agencyID, t.VisitID.String())
	if err != nil {
		s.logger.Error("update task clock-in check failed", zap.Error(err))
		return TaskResponse{}, err
	}
	if !clockedIn {
		s.logger.Warn("update task rejected, visit not clocked in",
			zap.String("task_id", taskID),
			zap.String("visit_id", t.VisitID.String()),
		)
		return TaskResponse{}, taskerrors.ErrVisitNotClockedIn
	}

	now := s.clock.Now()
	t.Status = StatusCompleted
	t.AdditionalNotes = req.AdditionalNotes
	t.CompletedAt = &now
	if actorUUID, err := uuid.Parse(actorID); err == nil {
		t.CompletedBy = &actorUUID
	}

	if err := qtx.Update(ctx, t); err != nil {
		s.logger.Error("update task persist failed", zap.Error(err))
		return TaskResponse{}, err
	}

	if s.logRepo != nil {
		msg := "Task completed: " + t.Title
		if req.AdditionalNotes != nil && *req.AdditionalNotes != "" {
			msg += " (" + *req.AdditionalNotes + ")"
		}
		if err := s.logRepo.WithTx(tx).Create(ctx, &visitlog.VisitLog{
			ID:       uuid.New(),
			AgencyID: t.AgencyID,
			VisitID:  t.VisitID,
			Action:   visitlog.ActionTask,
			Message:  msg,
			ActorID:  t.CompletedBy,
		}); err != nil {
			s.logger.Error("update task log persist failed", zap.Error(err))
			return TaskResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update task commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	s.logger.Info("update task success",
		zap.String("task_id", taskID),
		zap.String("visit_id", t.VisitID.String()),
	)
	return mapToResponse(*t), nil
}

func (s *service) ListByVisit(ctx context.Context, agencyID, visitID string) ([]TaskResponse, error) {
	rows, err := s.repo.FindAllByVisit(ctx, agencyID, visitID)
	if err != nil {
		s.logger.Error("list tasks failed", zap.String("visit_id", visitID), zap.Error(err))
		return nil, err
	}
	res := make([]TaskResponse, len(rows))
	for i, t := range rows {
		res[i] = mapToResponse(t)
	}
	return res, nil
}

func mapToResponse(t Task) TaskResponse {
	resp := TaskResponse{
		ID:              t.ID.String(),
		VisitID:         t.VisitID.String(),
		Title:           t.Title,
		Description:     t.Description,
		RiskCategory:    t.RiskCategory,
		Frequency:       t.Frequency,
		Status:          t.Status,
		AdditionalNotes: t.AdditionalNotes,
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

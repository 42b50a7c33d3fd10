package visitlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LogEntryResponse struct {
	ID        string `json:"id"`
	VisitID   string `json:"visit_id"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	ActorID   string `json:"actor_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type AppendEntry struct {
	AgencyID uuid.UUID
	VisitID  uuid.UUID
	Action   string
	Message  string
	ActorID  *uuid.UUID
}

//go:generate mockgen -source=visitlog_service.go -destination=mock/visitlog_service_mock.go -package=mock
type Service interface {
	Append(ctx context.Context, entry AppendEntry) error
	ListByVisit(ctx context.Context, agencyID, visitID string) ([]LogEntryResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("visitlog.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("visitlog.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Append(ctx context.Context, entry AppendEntry) error {
	row := &VisitLog{
		ID:       uuid.New(),
		AgencyID: entry.AgencyID,
		VisitID:  entry.VisitID,
		Action:   entry.Action,
		Message:  entry.Message,
		ActorID:  entry.ActorID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("append visit log failed",
			zap.String("visit_id", entry.VisitID.String()),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) ListByVisit(ctx context.Context, agencyID, visitID string) ([]LogEntryResponse, error) {
	rows, err := s.repo.FindAllByVisit(ctx, agencyID, visitID)
	if err != nil {
		return nil, err
	}
	res := make([]LogEntryResponse, len(rows))
	for i, r := range rows {
		res[i] = LogEntryResponse{
			ID:        r.ID.String(),
			VisitID:   r.VisitID.String(),
			Action:    r.Action,
			Message:   r.Message,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		}
		if r.ActorID != nil {
			res[i].ActorID = r.ActorID.String()
		}
	}
	return res, nil
}

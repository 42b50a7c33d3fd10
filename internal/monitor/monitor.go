// Package monitor watches the visit roster for windows that closed
// without a clock-in and queues a missed event for each, exactly once.
package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carelink/internal/events"
	"carelink/internal/messaging/kafka"
	"carelink/internal/schedule"
	"carelink/internal/visit"
)

const batchSize = 50

type Monitor struct {
	db     *sql.DB
	repo   visit.Repository
	outbox kafka.OutboxRepository
	clock  schedule.Clock
	logger *zap.Logger
}

func New(db *sql.DB, repo visit.Repository, outbox kafka.OutboxRepository, clock schedule.Clock, logger ...*zap.Logger) *Monitor {
	l := zap.L().Named("visit.monitor")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("visit.monitor")
	}
	if clock == nil {
		clock = schedule.SystemClock()
	}
	return &Monitor{db: db, repo: repo, outbox: outbox, clock: clock, logger: l}
}

// Run polls until the context is cancelled.
func (m *Monitor) Run(ctx context.Context, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	m.logger.Info("missed visit monitor started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("missed visit monitor stopped")
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.logger.Error("missed visit sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one pass: every visit whose window ended with no clock-in
// and no prior notification gets a missed event and is marked notified
// in the same transaction.
func (m *Monitor) Sweep(ctx context.Context) error {
	now := m.clock.Now()

	rows, err := m.repo.FindUnnotifiedMissed(ctx, now, batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	m.logger.Info("missed visits detected", zap.Int("count", len(rows)))

	for _, v := range rows {
		if err := m.notify(ctx, v, now); err != nil {
			m.logger.Error("notify missed visit failed",
				zap.String("visit_id", v.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (m *Monitor) notify(ctx context.Context, v visit.Visit, now time.Time) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	event := events.VisitMissedEvent{
		EventType:      events.EventTypeVisitMissed,
		VisitID:        v.ID.String(),
		AgencyID:       v.AgencyID.String(),
		ScheduledStart: v.StartAt,
		ScheduledEnd:   v.EndAt,
		DetectedAt:     now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := m.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: "visit",
		AggregateID:   v.ID.String(),
		EventType:     events.EventTypeVisitMissed,
		Topic:         events.VisitMissedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return err
	}

	v.MissedNotifiedAt = &now
	if err := m.repo.WithTx(tx).Update(ctx, &v); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("missed visit queued",
		zap.String("visit_id", v.ID.String()),
		zap.Time("scheduled_end", v.EndAt),
	)
	return nil
}

package consumer

import (
	"context"
	"encoding/json"

	"carelink/internal/events"
	"carelink/internal/schedule"
	"carelink/internal/visitlog"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeVisitMissed projects missed-visit events into display-ready
// visit log entries. Clock actions are logged in the clocking
// transaction itself; missed detections arrive only through this
// pipeline because the monitor has no request context.
func ConsumeVisitMissed(
	ctx context.Context,
	reader *kafkago.Reader,
	logService visitlog.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.visit_missed")
	log.Info("visit missed consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("visit missed consumer stopped")
				return
			}
			log.Error("fetch visit missed message failed", zap.Error(err))
			continue
		}

		var event events.VisitMissedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode visit missed event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		visitID, err := uuid.Parse(event.VisitID)
		if err != nil {
			log.Error("visit missed event has invalid visit id",
				zap.String("visit_id", event.VisitID),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		agencyID, err := uuid.Parse(event.AgencyID)
		if err != nil {
			log.Error("visit missed event has invalid agency id",
				zap.String("agency_id", event.AgencyID),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		message := "Visit missed: no clock-in by scheduled end " +
			schedule.FormatClockTime(event.ScheduledEnd)
		err = logService.Append(ctx, visitlog.AppendEntry{
			AgencyID: agencyID,
			VisitID:  visitID,
			Action:   visitlog.ActionMissed,
			Message:  message,
		})
		if err != nil {
			log.Error("append missed visit log failed",
				zap.String("visit_id", event.VisitID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit visit missed message failed", zap.Error(err))
			continue
		}

		log.Info("visit missed projected to log",
			zap.String("visit_id", event.VisitID),
			zap.String("agency_id", event.AgencyID),
		)
	}
}

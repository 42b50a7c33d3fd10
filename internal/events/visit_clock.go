package events

import "time"

const VisitClockTopic = "care.visit.clock.v1"

const (
	EventTypeVisitClockedIn  = "visit.clocked_in"
	EventTypeVisitClockedOut = "visit.clocked_out"
)

type VisitClockEvent struct {
	EventType  string    `json:"event_type"`
	VisitID    string    `json:"visit_id"`
	AgencyID   string    `json:"agency_id"`
	CarerID    string    `json:"carer_id"`
	Timing     string    `json:"timing"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

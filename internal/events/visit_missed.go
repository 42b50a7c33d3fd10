package events

import "time"

const VisitMissedTopic = "care.visit.missed.v1"

const EventTypeVisitMissed = "visit.missed"

type VisitMissedEvent struct {
	EventType      string    `json:"event_type"`
	VisitID        string    `json:"visit_id"`
	AgencyID       string    `json:"agency_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	DetectedAt     time.Time `json:"detected_at"`
}

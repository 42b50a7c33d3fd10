package visitlog

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionClockIn    = "CLOCK_IN"
	ActionClockOut   = "CLOCK_OUT"
	ActionAssignment = "ASSIGNMENT"
	ActionTask       = "TASK"
	ActionMissed     = "MISSED"
)

type VisitLog struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AgencyID  uuid.UUID  `gorm:"column:agency_id;type:uuid;not null;index"`
	VisitID   uuid.UUID  `gorm:"column:visit_id;type:uuid;not null;index"`
	Action    string     `gorm:"column:action;type:varchar(20);not null"`
	Message   string     `gorm:"column:message;type:text;not null"`
	ActorID   *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (VisitLog) TableName() string {
	return "visit_logs"
}

package visit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CareTypeSingleHanded = "SINGLE_HANDED_CALL"
	CareTypeDoubleHanded = "DOUBLE_HANDED_CALL"
	CareTypeSpecial      = "SPECIAL_CALL"
)

const (
	statusScheduled  = "SCHEDULED"
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

type Visit struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AgencyID uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	ClientID uuid.UUID `gorm:"column:client_id;type:uuid;not null;index"`

	StartAt  time.Time `gorm:"column:start_at;type:timestamptz;not null;index:idx_visits_window"`
	EndAt    time.Time `gorm:"column:end_at;type:timestamptz;not null;index:idx_visits_window"`
	CareType string    `gorm:"column:care_type;type:varchar(30);not null;default:SINGLE_HANDED_CALL"`
	Status   string    `gorm:"column:status;type:varchar(20);not null;default:SCHEDULED"`

	ClockInAt  *time.Time `gorm:"column:clock_in_at;type:timestamptz"`
	ClockOutAt *time.Time `gorm:"column:clock_out_at;type:timestamptz"`

	// Timing fixed at clock-in for the open session; decides whether the
	// session accrues off time or extra time on clock-out.
	SessionTiming *string `gorm:"column:session_timing;type:varchar(10)"`

	ExtraTotalMs int64 `gorm:"column:extra_total_ms;not null;default:0"`
	OffTotalMs   int64 `gorm:"column:off_total_ms;not null;default:0"`

	// Set once the monitor has published a missed event, so the poll
	// loop never notifies twice.
	MissedNotifiedAt *time.Time `gorm:"column:missed_notified_at;type:timestamptz"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Assignees []VisitAssignee `gorm:"foreignKey:VisitID;references:ID"`
	Tasks     []TaskRef       `gorm:"foreignKey:VisitID;references:ID"`
	Client    *ClientRef      `gorm:"foreignKey:ClientID;references:ID"`
}

func (Visit) TableName() string {
	return "visits"
}

// VisitAssignee is one carer slot on a visit. Position 0 is the primary
// carer; double-handed calls hold a second slot at position 1.
type VisitAssignee struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	VisitID    uuid.UUID `gorm:"column:visit_id;type:uuid;not null;index"`
	CarerID    uuid.UUID `gorm:"column:carer_id;type:uuid;not null;index"`
	Position   int       `gorm:"column:position;type:int;not null;default:0"`
	DistanceKm *float64  `gorm:"column:distance_km"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (VisitAssignee) TableName() string {
	return "visit_assignees"
}

// ClockEvent is one row of the append-only clock log for a visit.
type ClockEvent struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AgencyID uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	VisitID  uuid.UUID `gorm:"column:visit_id;type:uuid;not null;index"`
	CarerID  uuid.UUID `gorm:"column:carer_id;type:uuid;not null"`

	EventType  string    `gorm:"column:event_type;type:varchar(10);not null"`
	Timing     string    `gorm:"column:timing;type:varchar(10);not null"`
	Reason     *string   `gorm:"column:reason;type:varchar(100)"`
	Comments   *string   `gorm:"column:comments;type:text"`
	OccurredAt time.Time `gorm:"column:occurred_at;type:timestamptz;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ClockEvent) TableName() string {
	return "visit_clock_events"
}

const (
	ClockEventTypeIn  = "CLOCK_IN"
	ClockEventTypeOut = "CLOCK_OUT"
)

type TaskRef struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	VisitID uuid.UUID `gorm:"column:visit_id;type:uuid"`
	Title   string    `gorm:"column:title"`
	Status  string    `gorm:"column:status"`
}

func (TaskRef) TableName() string {
	return "visit_tasks"
}

type ClientRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
}

func (ClientRef) TableName() string {
	return "clients"
}

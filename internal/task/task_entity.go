package task

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Task is one care activity inside a visit window. Completion is only
// allowed once the parent visit has been clocked into.
type Task struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AgencyID uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	VisitID  uuid.UUID `gorm:"column:visit_id;type:uuid;not null;index"`

	Title        string `gorm:"column:title;type:varchar(200);not null"`
	Description  string `gorm:"column:description;type:text"`
	RiskCategory string `gorm:"column:risk_category;type:varchar(50)"`
	Frequency    string `gorm:"column:frequency;type:varchar(50)"`
	Status       string `gorm:"column:status;type:varchar(20);not null;default:PENDING"`

	AdditionalNotes *string    `gorm:"column:additional_notes;type:text"`
	CompletedAt     *time.Time `gorm:"column:completed_at;type:timestamptz"`
	CompletedBy     *uuid.UUID `gorm:"column:completed_by;type:uuid"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Task) TableName() string {
	return "visit_tasks"
}

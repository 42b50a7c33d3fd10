package visit

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=visit_repo.go -destination=mock/visit_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByIDAndAgency(ctx context.Context, agencyID, id string) (*Visit, error)
	FindAllByCarerInRange(ctx context.Context, agencyID, carerID string, from, to time.Time) ([]Visit, error)
	FindRunningByCarer(ctx context.Context, agencyID, carerID string) (*Visit, error)
	FindFutureByClient(ctx context.Context, agencyID string, clientID uuid.UUID, after time.Time) ([]Visit, error)
	FindUnnotifiedMissed(ctx context.Context, before time.Time, limit int) ([]Visit, error)
	Update(ctx context.Context, v *Visit) error
	CreateClockEvent(ctx context.Context, e *ClockEvent) error
	ReplaceAssignees(ctx context.Context, visitID uuid.UUID, rows []VisitAssignee) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) FindByIDAndAgency(ctx context.Context, agencyID, id string) (*Visit, error) {
	var v Visit
	err := r.db.WithContext(ctx).
		Preload("Assignees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Tasks").
		Preload("Client").
		Where("agency_id = ?", agencyID).
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *repository) FindAllByCarerInRange(ctx context.Context, agencyID, carerID string, from, to time.Time) ([]Visit, error) {
	var rows []Visit
	err := r.db.WithContext(ctx).
		Preload("Assignees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Tasks").
		Preload("Client").
		Joins("JOIN visit_assignees va ON va.visit_id = visits.id").
		Where("visits.agency_id = ?", agencyID).
		Where("va.carer_id = ?", carerID).
		Where("visits.start_at >= ? AND visits.start_at < ?", from, to).
		Order("visits.start_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindRunningByCarer returns the visit the carer is currently clocked
// into, or gorm.ErrRecordNotFound when there is none.
func (r *repository) FindRunningByCarer(ctx context.Context, agencyID, carerID string) (*Visit, error) {
	var v Visit
	err := r.db.WithContext(ctx).
		Joins("JOIN visit_assignees va ON va.visit_id = visits.id").
		Where("visits.agency_id = ?", agencyID).
		Where("va.carer_id = ?", carerID).
		Where("visits.clock_in_at IS NOT NULL").
		Where("visits.clock_out_at IS NULL").
		First(&v).Error
	return &v, err
}

func (r *repository) FindFutureByClient(ctx context.Context, agencyID string, clientID uuid.UUID, after time.Time) ([]Visit, error) {
	var rows []Visit
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Where("client_id = ?", clientID).
		Where("start_at > ?", after).
		Where("clock_in_at IS NULL").
		Order("start_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindUnnotifiedMissed lists visits whose window has ended with no
// clock-in and no missed notification yet.
func (r *repository) FindUnnotifiedMissed(ctx context.Context, before time.Time, limit int) ([]Visit, error) {
	var rows []Visit
	err := r.db.WithContext(ctx).
		Where("end_at < ?", before).
		Where("clock_in_at IS NULL").
		Where("missed_notified_at IS NULL").
		Order("end_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, v *Visit) error {
	return r.db.WithContext(ctx).Omit("Assignees", "Tasks", "Client").Save(v).Error
}

func (r *repository) CreateClockEvent(ctx context.Context, e *ClockEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) ReplaceAssignees(ctx context.Context, visitID uuid.UUID, rows []VisitAssignee) error {
	if err := r.db.WithContext(ctx).
		Where("visit_id = ?", visitID).
		Delete(&VisitAssignee{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

package task

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=task_repo.go -destination=mock/task_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByIDAndAgency(ctx context.Context, agencyID, id string) (*Task, error)
	FindAllByVisit(ctx context.Context, agencyID, visitID string) ([]Task, error)
	VisitClockedIn(ctx context.Context, agencyID, visitID string) (bool, error)
	Update(ctx context.Context, t *Task) error
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

func (r *repository) FindByIDAndAgency(ctx context.Context, agencyID, id string) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) FindAllByVisit(ctx context.Context, agencyID, visitID string) ([]Task, error) {
	var rows []Task
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// VisitClockedIn reports whether the parent visit has an open or past
// clock-in, which gates completing any of its tasks.
func (r *repository) VisitClockedIn(ctx context.Context, agencyID, visitID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("visits").
		Where("agency_id = ?", agencyID).
		Where("id = ?", visitID).
		Where("clock_in_at IS NOT NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Update(ctx context.Context, t *Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

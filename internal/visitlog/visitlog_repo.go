package visitlog

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=visitlog_repo.go -destination=mock/visitlog_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *VisitLog) error
	FindAllByVisit(ctx context.Context, agencyID, visitID string) ([]VisitLog, error)
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

func (r *repository) Create(ctx context.Context, l *VisitLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindAllByVisit(ctx context.Context, agencyID, visitID string) ([]VisitLog, error) {
	var rows []VisitLog
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Where("visit_id = ?", visitID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

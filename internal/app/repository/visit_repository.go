package repository

import (
	"context"

	"github.com/reflens/reflens/internal/app/model"
	"gorm.io/gorm"
)

// VisitRepository defines the data access contract for visit rows.
type VisitRepository interface {
	Create(ctx context.Context, visit *model.Visit) error
	CountByCode(ctx context.Context, code string) (int64, error)
}

type visitRepository struct {
	db *gorm.DB
}

// NewVisitRepository returns a GORM-backed VisitRepository.
func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *visitRepository) CountByCode(ctx context.Context, code string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("ref_code = ?", code).
		Count(&count).Error
	return count, err
}

package repository

import (
	"context"
	"errors"

	"github.com/reflens/reflens/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrApplicationNotFound signals that the requested application does not exist.
	ErrApplicationNotFound = errors.New("application not found")
)

// ApplicationRepository defines the data access contract for applications.
type ApplicationRepository interface {
	// CreateWithCode persists the application and its referral code as one
	// transaction: both rows become visible or neither does.
	CreateWithCode(ctx context.Context, app *model.Application, code *model.RefCode) error
	GetByRefCode(ctx context.Context, refCode string) (*model.Application, error)
	UpdateOutcome(ctx context.Context, id uint, outcome string) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository returns a GORM-backed ApplicationRepository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) CreateWithCode(ctx context.Context, app *model.Application, code *model.RefCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		code.ApplicationID = app.ID
		return tx.Create(code).Error
	})
}

func (r *applicationRepository) GetByRefCode(ctx context.Context, refCode string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Joins("JOIN ref_codes ON ref_codes.application_id = applications.id").
		Where("ref_codes.ref_code = ?", refCode).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) UpdateOutcome(ctx context.Context, id uint, outcome string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Update("outcome", outcome)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

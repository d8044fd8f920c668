package repository

import (
	"context"
	"errors"

	"github.com/reflens/reflens/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrRefCodeNotFound signals that the requested referral code does not exist.
	ErrRefCodeNotFound = errors.New("ref code not found")
)

// RefCodeRepository defines the data access contract for referral codes.
type RefCodeRepository interface {
	GetByCode(ctx context.Context, code string) (*model.RefCode, error)
	Exists(ctx context.Context, code string) (bool, error)
	AllCodes(ctx context.Context) ([]string, error)
}

type refCodeRepository struct {
	db *gorm.DB
}

// NewRefCodeRepository returns a GORM-backed RefCodeRepository.
func NewRefCodeRepository(db *gorm.DB) RefCodeRepository {
	return &refCodeRepository{db: db}
}

func (r *refCodeRepository) GetByCode(ctx context.Context, code string) (*model.RefCode, error) {
	var rc model.RefCode
	if err := r.db.WithContext(ctx).Where("ref_code = ?", code).First(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefCodeNotFound
		}
		return nil, err
	}
	return &rc, nil
}

func (r *refCodeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RefCode{}).
		Where("ref_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *refCodeRepository) AllCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&model.RefCode{}).
		Pluck("ref_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"gorm.io/gorm"
)

// WorkCenterRepository 工作中心仓库
type WorkCenterRepository struct {
	db *gorm.DB
}

// NewWorkCenterRepository 创建工作中心仓库
func NewWorkCenterRepository(db *gorm.DB) *WorkCenterRepository {
	return &WorkCenterRepository{db: db}
}

func (r *WorkCenterRepository) Create(ctx context.Context, wc *entity.WorkCenter) error {
	return translateError(r.db.WithContext(ctx).Create(wc).Error)
}

func (r *WorkCenterRepository) FindByID(ctx context.Context, id string) (*entity.WorkCenter, error) {
	var wc entity.WorkCenter
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&wc).Error; err != nil {
		return nil, translateError(err)
	}
	return &wc, nil
}

func (r *WorkCenterRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkCenter{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// List 工作中心列表，activeOnly为true时只返回启用的
func (r *WorkCenterRepository) List(ctx context.Context, activeOnly bool) ([]entity.WorkCenter, error) {
	query := r.db.WithContext(ctx).Model(&entity.WorkCenter{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var centers []entity.WorkCenter
	err := query.Order("code ASC").Find(&centers).Error
	return centers, err
}

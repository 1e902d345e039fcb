package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOMRepository BOM仓库
type BOMRepository struct {
	db *gorm.DB
}

// NewBOMRepository 创建BOM仓库
func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// 行项按位置排序，未指定位置的排在最后，其余按创建顺序
const itemOrder = "COALESCE(position, 2147483647) ASC, created_at ASC, id ASC"

// BOMListParams BOM列表查询参数
type BOMListParams struct {
	ProductID string
	IsActive  *bool
}

// GetByID 根据ID获取BOM（含行项）
func (r *BOMRepository) GetByID(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order(itemOrder)
		}).
		Preload("Items.Component").
		Preload("Product").
		Where("id = ?", id).
		First(&bom).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &bom, nil
}

// GetHeader 只获取BOM头
func (r *BOMRepository) GetHeader(ctx context.Context, id string) (*entity.BOM, error) {
	var bom entity.BOM
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bom).Error; err != nil {
		return nil, translateError(err)
	}
	return &bom, nil
}

// List 获取BOM列表（不含行项）
func (r *BOMRepository) List(ctx context.Context, params BOMListParams) ([]entity.BOM, error) {
	query := r.db.WithContext(ctx).Model(&entity.BOM{}).Preload("Product")
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	var boms []entity.BOM
	err := query.Order("product_id ASC, created_at DESC").Find(&boms).Error
	return boms, err
}

// ListVersions 获取产品的全部BOM版本号
func (r *BOMRepository) ListVersions(ctx context.Context, productID string) ([]string, error) {
	var versions []string
	err := r.db.WithContext(ctx).
		Model(&entity.BOM{}).
		Where("product_id = ?", productID).
		Pluck("version", &versions).Error
	return versions, err
}

// VersionExists 检查(产品,版本)是否已存在，excludeID用于更新时排除自身
func (r *BOMRepository) VersionExists(ctx context.Context, productID, version, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&entity.BOM{}).
		Where("product_id = ? AND version = ?", productID, version)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建BOM，Items一并写入
func (r *BOMRepository) Create(ctx context.Context, bom *entity.BOM) error {
	return translateError(r.db.WithContext(ctx).Create(bom).Error)
}

// Updates 部分更新BOM头
func (r *BOMRepository) Updates(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.BOM{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateItem 创建BOM行项
func (r *BOMRepository) CreateItem(ctx context.Context, item *entity.BOMItem) error {
	return translateError(r.db.WithContext(ctx).Create(item).Error)
}

// GetItem 获取BOM行项
func (r *BOMRepository) GetItem(ctx context.Context, id string) (*entity.BOMItem, error) {
	var item entity.BOMItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// GetItems 获取BOM的所有行项
func (r *BOMRepository) GetItems(ctx context.Context, bomID string) ([]entity.BOMItem, error) {
	var items []entity.BOMItem
	err := r.db.WithContext(ctx).
		Where("bom_id = ?", bomID).
		Order(itemOrder).
		Find(&items).Error
	return items, err
}

// DeleteItem 删除BOM行项
func (r *BOMRepository) DeleteItem(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.BOMItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTotalCost 回写BOM总成本
func (r *BOMRepository) UpdateTotalCost(ctx context.Context, bomID string, total decimal.Decimal) error {
	return r.Updates(ctx, bomID, map[string]interface{}{"total_cost": total})
}

package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"gorm.io/gorm"
)

// ProductionOrderRepository 生产订单仓库
type ProductionOrderRepository struct {
	db *gorm.DB
}

func NewProductionOrderRepository(db *gorm.DB) *ProductionOrderRepository {
	return &ProductionOrderRepository{db: db}
}

// Create 创建生产订单，工序和物料需求一并写入
func (r *ProductionOrderRepository) Create(ctx context.Context, order *entity.ProductionOrder) error {
	return translateError(r.db.WithContext(ctx).Create(order).Error)
}

// GetByID 获取订单详情（工序、物料、质检）
func (r *ProductionOrderRepository) GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	var order entity.ProductionOrder
	err := r.db.WithContext(ctx).
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Operations.WorkCenter").
		Preload("MaterialConsumptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("QualityInspections", func(db *gorm.DB) *gorm.DB {
			return db.Order("inspected_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// GetHeader 只获取订单头
func (r *ProductionOrderRepository) GetHeader(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	var order entity.ProductionOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

type OrderListParams struct {
	Status    string
	ProductID string
	BOMID     string
}

func (r *ProductionOrderRepository) List(ctx context.Context, params OrderListParams) ([]entity.ProductionOrder, error) {
	query := r.db.WithContext(ctx).Model(&entity.ProductionOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProductID != "" {
		query = query.Where("product_id = ?", params.ProductID)
	}
	if params.BOMID != "" {
		query = query.Where("bom_id = ?", params.BOMID)
	}
	var orders []entity.ProductionOrder
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// Updates 部分更新订单头
func (r *ProductionOrderRepository) Updates(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.ProductionOrder{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetConsumption 获取订单下的一条物料需求
func (r *ProductionOrderRepository) GetConsumption(ctx context.Context, orderID, id string) (*entity.MaterialConsumption, error) {
	var mc entity.MaterialConsumption
	err := r.db.WithContext(ctx).
		Where("id = ? AND production_order_id = ?", id, orderID).
		First(&mc).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &mc, nil
}

func (r *ProductionOrderRepository) UpdateConsumption(ctx context.Context, mc *entity.MaterialConsumption) error {
	return r.db.WithContext(ctx).Save(mc).Error
}

// CreateInspection 创建质检记录
func (r *ProductionOrderRepository) CreateInspection(ctx context.Context, qi *entity.QualityInspection) error {
	return r.db.WithContext(ctx).Create(qi).Error
}

// CountOpenByBOM 统计引用该BOM的未结订单数
func (r *ProductionOrderRepository) CountOpenByBOM(ctx context.Context, bomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ProductionOrder{}).
		Where("bom_id = ? AND status IN ?", bomID, []string{
			entity.OrderStatusPlanned, entity.OrderStatusInProgress, entity.OrderStatusOnHold,
		}).
		Count(&count).Error
	return count, err
}

package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"gorm.io/gorm"
)

// ProductRepository 产品仓库
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓库
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return translateError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// CodeExists 检查产品编码是否已存在
func (r *ProductRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Product{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// List 产品列表，keyword匹配编码或名称
func (r *ProductRepository) List(ctx context.Context, keyword string) ([]entity.Product, error) {
	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", kw, kw)
	}
	var products []entity.Product
	err := query.Order("code ASC").Find(&products).Error
	return products, err
}

// FindByCode 根据编码获取产品
func (r *ProductRepository) FindByCode(ctx context.Context, code string) (*entity.Product, error) {
	var p entity.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

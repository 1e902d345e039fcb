package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Repositories 仓库集合
type Repositories struct {
	db *gorm.DB

	Product         *ProductRepository
	WorkCenter      *WorkCenterRepository
	BOM             *BOMRepository
	ProductionOrder *ProductionOrderRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:              db,
		Product:         NewProductRepository(db),
		WorkCenter:      NewWorkCenterRepository(db),
		BOM:             NewBOMRepository(db),
		ProductionOrder: NewProductionOrderRepository(db),
	}
}

// Transaction 在同一事务内执行fn，fn拿到绑定事务的仓库集合
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB 返回底层db
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// GenerateID 生成32位ID
func GenerateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// translateError 将gorm错误转换为仓库层错误
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

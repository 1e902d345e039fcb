package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 产品/物料主数据（BOM和工单引用）
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	Code          string          `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name          string          `json:"name" gorm:"size:128;not null"`
	Description   string          `json:"description" gorm:"type:text"`
	UnitOfMeasure string          `json:"unit_of_measure" gorm:"size:16;not null;default:Each"`
	StandardCost  decimal.Decimal `json:"standard_cost" gorm:"type:decimal(15,4);not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "mfg_products"
}

// WorkCenter 工作中心
type WorkCenter struct {
	ID              string          `json:"id" gorm:"primaryKey;size:32"`
	Code            string          `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name            string          `json:"name" gorm:"size:128;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	CapacityPerHour decimal.Decimal `json:"capacity_per_hour" gorm:"type:decimal(12,4);not null"`
	IsActive        bool            `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (WorkCenter) TableName() string {
	return "mfg_work_centers"
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManufacturingType 制造类型
const (
	ManufacturingTypeDiscrete   = "Discrete"
	ManufacturingTypeProcess    = "Process"
	ManufacturingTypeRepetitive = "Repetitive"
	ManufacturingTypeBatch      = "Batch"
	ManufacturingTypeLean       = "Lean"
	ManufacturingTypeCustom     = "Custom"
)

// ManufacturingTypes 所有合法的制造类型
var ManufacturingTypes = []string{
	ManufacturingTypeDiscrete,
	ManufacturingTypeProcess,
	ManufacturingTypeRepetitive,
	ManufacturingTypeBatch,
	ManufacturingTypeLean,
	ManufacturingTypeCustom,
}

// BOM BOM头表
type BOM struct {
	ID                string          `json:"id" gorm:"primaryKey;size:32"`
	ProductID         string          `json:"product_id" gorm:"size:32;not null;uniqueIndex:idx_mfg_bom_product_version"`
	Version           string          `json:"version" gorm:"size:32;not null;uniqueIndex:idx_mfg_bom_product_version"`
	Name              string          `json:"name" gorm:"size:128;not null"`
	Description       string          `json:"description" gorm:"type:text"`
	ManufacturingType string          `json:"manufacturing_type" gorm:"size:16;not null"`
	IsActive          bool            `json:"is_active" gorm:"not null"`
	Notes             string          `json:"notes" gorm:"type:text"`
	RevisionNotes     string          `json:"revision_notes" gorm:"type:text"`
	YieldPercentage   decimal.Decimal `json:"yield_percentage" gorm:"type:decimal(7,4);not null"`
	TotalCost         decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,4);not null"`
	ApprovedBy        *string         `json:"approved_by" gorm:"size:32"`
	ApprovedAt        *time.Time      `json:"approved_at"`
	CreatedBy         string          `json:"created_by" gorm:"size:32"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// 关联
	Product *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Items   []BOMItem `json:"items,omitempty" gorm:"foreignKey:BOMID"`
}

func (BOM) TableName() string {
	return "mfg_boms"
}

// BOMItem BOM行项
type BOMItem struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	BOMID         string          `json:"bom_id" gorm:"size:32;not null;index"`
	ComponentID   string          `json:"component_id" gorm:"size:32;not null"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	UnitOfMeasure string          `json:"unit_of_measure" gorm:"size:16;not null"`
	Position      *int            `json:"position"`
	IsOptional    bool            `json:"is_optional" gorm:"not null"`
	IsSubAssembly bool            `json:"is_sub_assembly" gorm:"not null"`
	ScrapRate     decimal.Decimal `json:"scrap_rate" gorm:"type:decimal(7,4);not null"`
	Operation     string          `json:"operation" gorm:"size:64"`
	Notes         string          `json:"notes" gorm:"type:text"`
	WorkCenterID  *string         `json:"work_center_id" gorm:"size:32"`
	UnitCost      decimal.Decimal `json:"unit_cost" gorm:"type:decimal(15,4);not null"`
	TotalCost     decimal.Decimal `json:"total_cost" gorm:"type:decimal(15,4);not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// 关联
	Component  *Product    `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
	WorkCenter *WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
}

func (BOMItem) TableName() string {
	return "mfg_bom_items"
}

// LineCost 行项成本 = 单价 × 数量（不计损耗率）
func (i BOMItem) LineCost() decimal.Decimal {
	return i.UnitCost.Mul(i.Quantity)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionOrderStatus 生产订单状态（不限制状态流转）
const (
	OrderStatusPlanned    = "Planned"
	OrderStatusInProgress = "In Progress"
	OrderStatusCompleted  = "Completed"
	OrderStatusOnHold     = "On Hold"
	OrderStatusCancelled  = "Cancelled"
)

var OrderStatuses = []string{
	OrderStatusPlanned,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusOnHold,
	OrderStatusCancelled,
}

// ProductionOrderPriority 优先级
const (
	PriorityLow    = "Low"
	PriorityNormal = "Normal"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

var OrderPriorities = []string{
	PriorityLow,
	PriorityNormal,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

// ProductionOrder 生产订单
type ProductionOrder struct {
	ID               string          `json:"id" gorm:"primaryKey;size:32"`
	OrderNumber      string          `json:"order_number" gorm:"size:50;not null;uniqueIndex"`
	BOMID            string          `json:"bom_id" gorm:"size:32;not null;index"`
	ProductID        string          `json:"product_id" gorm:"size:32;not null;index"`
	Quantity         decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	PlannedStartDate *time.Time      `json:"planned_start_date"`
	PlannedEndDate   *time.Time      `json:"planned_end_date"`
	ActualStartDate  *time.Time      `json:"actual_start_date"`
	ActualEndDate    *time.Time      `json:"actual_end_date"`
	Status           string          `json:"status" gorm:"size:20;not null"`
	Priority         string          `json:"priority" gorm:"size:20;not null"`
	Reference        string          `json:"reference" gorm:"size:128"`
	Notes            string          `json:"notes" gorm:"type:text"`
	CreatedBy        string          `json:"created_by" gorm:"size:32"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	BOM                  *BOM                  `json:"bom,omitempty" gorm:"foreignKey:BOMID"`
	Operations           []ProductionOperation `json:"operations,omitempty" gorm:"foreignKey:ProductionOrderID"`
	MaterialConsumptions []MaterialConsumption `json:"material_consumptions,omitempty" gorm:"foreignKey:ProductionOrderID"`
	QualityInspections   []QualityInspection   `json:"quality_inspections,omitempty" gorm:"foreignKey:ProductionOrderID"`
}

func (ProductionOrder) TableName() string {
	return "mfg_production_orders"
}

// OperationStatus 工序状态
const (
	OperationStatusPending    = "Pending"
	OperationStatusInProgress = "In Progress"
	OperationStatusDone       = "Done"
)

// ProductionOperation 生产工序
type ProductionOperation struct {
	ID                string              `json:"id" gorm:"primaryKey;size:32"`
	ProductionOrderID string              `json:"production_order_id" gorm:"size:32;not null;index"`
	Sequence          int                 `json:"sequence" gorm:"not null"`
	Name              string              `json:"name" gorm:"size:128"`
	WorkCenterID      string              `json:"work_center_id" gorm:"size:32;not null"`
	PlannedDuration   decimal.Decimal     `json:"planned_duration" gorm:"type:decimal(12,2);not null"` // 分钟
	ActualDuration    decimal.NullDecimal `json:"actual_duration" gorm:"type:decimal(12,2)"`
	Status            string              `json:"status" gorm:"size:20;not null"`
	Notes             string              `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`

	WorkCenter *WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
}

func (ProductionOperation) TableName() string {
	return "mfg_production_operations"
}

// ConsumptionStatus 物料消耗状态
const (
	ConsumptionStatusPending  = "Pending"
	ConsumptionStatusPartial  = "Partial"
	ConsumptionStatusConsumed = "Consumed"
)

// MaterialConsumption 生产订单物料需求（按BOM展开的快照）
type MaterialConsumption struct {
	ID                string              `json:"id" gorm:"primaryKey;size:32"`
	ProductionOrderID string              `json:"production_order_id" gorm:"size:32;not null;index"`
	ProductID         string              `json:"product_id" gorm:"size:32;not null"`
	RequiredQuantity  decimal.Decimal     `json:"required_quantity" gorm:"type:decimal(15,4);not null"`
	UnitOfMeasure     string              `json:"unit_of_measure" gorm:"size:16;not null"`
	ConsumedQuantity  decimal.NullDecimal `json:"consumed_quantity" gorm:"type:decimal(15,4)"`
	Status            string              `json:"status" gorm:"size:20;not null"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (MaterialConsumption) TableName() string {
	return "mfg_material_consumptions"
}

// InspectionResult 质检结果
const (
	InspectionPending = "Pending"
	InspectionPassed  = "Passed"
	InspectionFailed  = "Failed"
)

// QualityInspection 质检记录
type QualityInspection struct {
	ID                string          `json:"id" gorm:"primaryKey;size:32"`
	ProductionOrderID string          `json:"production_order_id" gorm:"size:32;not null;index"`
	InspectionType    string          `json:"inspection_type" gorm:"size:32;not null"`
	Result            string          `json:"result" gorm:"size:16;not null"`
	InspectedQuantity decimal.Decimal `json:"inspected_quantity" gorm:"type:decimal(15,4);not null"`
	DefectQuantity    decimal.Decimal `json:"defect_quantity" gorm:"type:decimal(15,4);not null"`
	Inspector         string          `json:"inspector" gorm:"size:64"`
	Notes             string          `json:"notes" gorm:"type:text"`
	InspectedAt       time.Time       `json:"inspected_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (QualityInspection) TableName() string {
	return "mfg_quality_inspections"
}

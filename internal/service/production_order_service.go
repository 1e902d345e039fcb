package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/idgen"
	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductionOrderService 生产订单服务
type ProductionOrderService struct {
	repos   *repository.Repositories
	planner *MaterialPlanner
	numbers *idgen.OrderNumberGenerator
	logger  *zap.Logger
}

// NewProductionOrderService 创建生产订单服务
func NewProductionOrderService(repos *repository.Repositories, planner *MaterialPlanner, numbers *idgen.OrderNumberGenerator, logger *zap.Logger) *ProductionOrderService {
	return &ProductionOrderService{repos: repos, planner: planner, numbers: numbers, logger: logger}
}

// OperationInput 工序
type OperationInput struct {
	Sequence        *int            `json:"sequence"`
	Name            string          `json:"name"`
	WorkCenterID    string          `json:"work_center_id"`
	PlannedDuration decimal.Decimal `json:"planned_duration"`
	Notes           string          `json:"notes"`
}

// MaterialInput 客户端提交的物料需求行
type MaterialInput struct {
	ProductID        string          `json:"product_id"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	UnitOfMeasure    string          `json:"unit_of_measure"`
}

// CreateProductionOrderRequest 创建生产订单请求
// 物料行按BOM展开，带SessionID时使用该会话的缓存；Materials非空时须与展开结果一致
type CreateProductionOrderRequest struct {
	SessionID        string           `json:"session_id"`
	BOMID            string           `json:"bom_id" binding:"required"`
	ProductID        string           `json:"product_id"`
	Quantity         decimal.Decimal  `json:"quantity"`
	PlannedStartDate string           `json:"planned_start_date"`
	PlannedEndDate   string           `json:"planned_end_date"`
	Status           string           `json:"status"`
	Priority         string           `json:"priority"`
	Reference        string           `json:"reference"`
	Notes            string           `json:"notes"`
	Operations       []OperationInput `json:"operations"`
	Materials        []MaterialInput  `json:"materials"`
}

// UpdateStatusRequest 更新订单状态
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ReportConsumptionRequest 报告物料消耗
type ReportConsumptionRequest struct {
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity"`
}

// AddInspectionRequest 质检记录
type AddInspectionRequest struct {
	InspectionType    string          `json:"inspection_type" binding:"required"`
	Result            string          `json:"result"`
	InspectedQuantity decimal.Decimal `json:"inspected_quantity"`
	DefectQuantity    decimal.Decimal `json:"defect_quantity"`
	Inspector         string          `json:"inspector"`
	Notes             string          `json:"notes"`
	InspectedAt       string          `json:"inspected_at"`
}

// ProductionOrderDetailResult 订单详情
type ProductionOrderDetailResult struct {
	*entity.ProductionOrder
	Operations           []entity.ProductionOperation `json:"operations"`
	MaterialConsumptions []entity.MaterialConsumption `json:"materialConsumptions"`
	QualityInspections   []entity.QualityInspection   `json:"qualityInspections"`
}

func newOrderDetail(order *entity.ProductionOrder) *ProductionOrderDetailResult {
	header := *order
	header.Operations = nil
	header.MaterialConsumptions = nil
	header.QualityInspections = nil

	result := &ProductionOrderDetailResult{
		ProductionOrder:      &header,
		Operations:           order.Operations,
		MaterialConsumptions: order.MaterialConsumptions,
		QualityInspections:   order.QualityInspections,
	}
	if result.Operations == nil {
		result.Operations = []entity.ProductionOperation{}
	}
	if result.MaterialConsumptions == nil {
		result.MaterialConsumptions = []entity.MaterialConsumption{}
	}
	if result.QualityInspections == nil {
		result.QualityInspections = []entity.QualityInspection{}
	}
	return result
}

// parseDate 支持 2006-01-02 和 RFC 3339
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// matchMaterials 校验客户端提交的物料行与BOM展开结果一致（顺序不限）
func matchMaterials(submitted []MaterialInput, derived []PlannedMaterial) error {
	verr := &ValidationError{}
	used := make([]bool, len(derived))
	for i, m := range submitted {
		prefix := "materials[" + strconv.Itoa(i) + "]."
		productID := strings.TrimSpace(m.ProductID)

		// 同一物料多行时优先匹配数量与单位都一致的行
		match := -1
		for j, d := range derived {
			if used[j] || d.ProductID != productID {
				continue
			}
			if match < 0 {
				match = j
			}
			if d.RequiredQuantity.Equal(m.RequiredQuantity) && d.UnitOfMeasure == strings.TrimSpace(m.UnitOfMeasure) {
				match = j
				break
			}
		}
		if match < 0 {
			verr.Add(prefix+"product_id", "is not a component of the BOM")
			continue
		}
		used[match] = true

		d := derived[match]
		if !d.RequiredQuantity.Equal(m.RequiredQuantity) {
			verr.Add(prefix+"required_quantity", "must be "+d.RequiredQuantity.String())
		}
		if d.UnitOfMeasure != strings.TrimSpace(m.UnitOfMeasure) {
			verr.Add(prefix+"unit_of_measure", "must be "+d.UnitOfMeasure)
		}
	}
	for j, d := range derived {
		if !used[j] {
			verr.Add("materials", "missing line for component "+d.ProductID)
		}
	}
	return verr.OrNil()
}

// Create 提交生产订单，订单头、工序和物料需求在同一事务内写入
// 物料行总是按BOM展开，客户端提交的materials只做核对
func (s *ProductionOrderService) Create(ctx context.Context, userID string, req *CreateProductionOrderRequest) (*ProductionOrderDetailResult, error) {
	verr := &ValidationError{}
	bomID := strings.TrimSpace(req.BOMID)
	if bomID == "" {
		verr.Add("bom_id", "is required")
	}
	if !req.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than 0")
	}

	var start, end time.Time
	var startOK, endOK bool
	if req.PlannedStartDate == "" {
		verr.Add("planned_start_date", "is required")
	} else if t, err := parseDate(req.PlannedStartDate); err != nil {
		verr.Add("planned_start_date", "must be an ISO-8601 date")
	} else {
		start, startOK = t, true
	}
	if req.PlannedEndDate == "" {
		verr.Add("planned_end_date", "is required")
	} else if t, err := parseDate(req.PlannedEndDate); err != nil {
		verr.Add("planned_end_date", "must be an ISO-8601 date")
	} else {
		end, endOK = t, true
	}
	if startOK && endOK && end.Before(start) {
		verr.Add("planned_end_date", "must not be before planned_start_date")
	}

	status := req.Status
	if status == "" {
		status = entity.OrderStatusPlanned
	} else if !contains(entity.OrderStatuses, status) {
		verr.Add("status", "must be one of "+strings.Join(entity.OrderStatuses, ", "))
	}
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityNormal
	} else if !contains(entity.OrderPriorities, priority) {
		verr.Add("priority", "must be one of "+strings.Join(entity.OrderPriorities, ", "))
	}

	if len(req.Operations) == 0 {
		verr.Add("operations", "at least one operation is required")
	}
	for i, op := range req.Operations {
		prefix := "operations[" + strconv.Itoa(i) + "]."
		if strings.TrimSpace(op.WorkCenterID) == "" {
			verr.Add(prefix+"work_center_id", "is required")
		}
		if op.PlannedDuration.IsNegative() {
			verr.Add(prefix+"planned_duration", "must not be negative")
		}
	}
	for i, m := range req.Materials {
		prefix := "materials[" + strconv.Itoa(i) + "]."
		if strings.TrimSpace(m.ProductID) == "" {
			verr.Add(prefix+"product_id", "is required")
		}
		if !m.RequiredQuantity.IsPositive() {
			verr.Add(prefix+"required_quantity", "must be greater than 0")
		}
		if strings.TrimSpace(m.UnitOfMeasure) == "" {
			verr.Add(prefix+"unit_of_measure", "is required")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	bom, err := s.repos.BOM.GetHeader(ctx, bomID)
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	if !bom.IsActive {
		return nil, NewValidationError("bom_id", "BOM is not active")
	}

	plan, err := s.planner.Plan(ctx, &MaterialPlanRequest{
		SessionID: req.SessionID,
		BOMID:     bomID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return nil, err
	}
	materials := plan.Materials
	if len(req.Materials) > 0 {
		if err := matchMaterials(req.Materials, materials); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	order := &entity.ProductionOrder{
		ID:               repository.GenerateID(),
		OrderNumber:      s.numbers.Next(now),
		BOMID:            bom.ID,
		ProductID:        bom.ProductID,
		Quantity:         req.Quantity,
		PlannedStartDate: &start,
		PlannedEndDate:   &end,
		Status:           status,
		Priority:         priority,
		Reference:        req.Reference,
		Notes:            req.Notes,
		CreatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if status == entity.OrderStatusInProgress {
		order.ActualStartDate = &now
	}
	for i, op := range req.Operations {
		seq := i + 1
		if op.Sequence != nil {
			seq = *op.Sequence
		}
		order.Operations = append(order.Operations, entity.ProductionOperation{
			ID:                repository.GenerateID(),
			ProductionOrderID: order.ID,
			Sequence:          seq,
			Name:              op.Name,
			WorkCenterID:      strings.TrimSpace(op.WorkCenterID),
			PlannedDuration:   op.PlannedDuration,
			Status:            entity.OperationStatusPending,
			Notes:             op.Notes,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	for _, m := range materials {
		order.MaterialConsumptions = append(order.MaterialConsumptions, entity.MaterialConsumption{
			ID:                repository.GenerateID(),
			ProductionOrderID: order.ID,
			ProductID:         m.ProductID,
			RequiredQuantity:  m.RequiredQuantity,
			UnitOfMeasure:     m.UnitOfMeasure,
			Status:            entity.ConsumptionStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		wcErr := &ValidationError{}
		for i, op := range order.Operations {
			if _, err := tx.WorkCenter.FindByID(ctx, op.WorkCenterID); err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("get work center: %w", err)
				}
				wcErr.Add("operations["+strconv.Itoa(i)+"].work_center_id", "work center not found")
			}
		}
		if err := wcErr.OrNil(); err != nil {
			return err
		}
		if err := tx.ProductionOrder.Create(ctx, order); err != nil {
			return fmt.Errorf("create production order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.planner.Forget(ctx, req.SessionID)
	s.logger.Info("Production order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("bom_id", order.BOMID),
		zap.String("quantity", order.Quantity.String()),
		zap.Int("materials", len(order.MaterialConsumptions)),
	)
	return s.Get(ctx, order.ID)
}

// Get 订单详情
func (s *ProductionOrderService) Get(ctx context.Context, id string) (*ProductionOrderDetailResult, error) {
	order, err := s.repos.ProductionOrder.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "production order", id)
	}
	return newOrderDetail(order), nil
}

// List 订单列表
func (s *ProductionOrderService) List(ctx context.Context, params repository.OrderListParams) ([]entity.ProductionOrder, error) {
	if params.Status != "" && !contains(entity.OrderStatuses, params.Status) {
		return nil, NewValidationError("status", "must be one of "+strings.Join(entity.OrderStatuses, ", "))
	}
	orders, err := s.repos.ProductionOrder.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list production orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus 设置订单状态，不限制流转
// 首次进入In Progress记录实际开工时间，进入Completed记录实际完工时间
func (s *ProductionOrderService) UpdateStatus(ctx context.Context, id, status string) (*entity.ProductionOrder, error) {
	if !contains(entity.OrderStatuses, status) {
		return nil, NewValidationError("status", "must be one of "+strings.Join(entity.OrderStatuses, ", "))
	}

	var order *entity.ProductionOrder
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		order, err = tx.ProductionOrder.GetHeader(ctx, id)
		if err != nil {
			return lookupError(err, "production order", id)
		}

		now := time.Now()
		fields := map[string]interface{}{"status": status}
		if status == entity.OrderStatusInProgress && order.ActualStartDate == nil {
			fields["actual_start_date"] = now
			order.ActualStartDate = &now
		}
		if status == entity.OrderStatusCompleted {
			fields["actual_end_date"] = now
			order.ActualEndDate = &now
		}
		order.Status = status
		return tx.ProductionOrder.Updates(ctx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReportConsumption 登记物料实际消耗量，低于需求量为Partial，否则为Consumed
func (s *ProductionOrderService) ReportConsumption(ctx context.Context, orderID, lineID string, req *ReportConsumptionRequest) (*entity.MaterialConsumption, error) {
	if req.ConsumedQuantity.IsNegative() {
		return nil, NewValidationError("consumed_quantity", "must not be negative")
	}

	var line *entity.MaterialConsumption
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.ProductionOrder.GetHeader(ctx, orderID); err != nil {
			return lookupError(err, "production order", orderID)
		}
		var err error
		line, err = tx.ProductionOrder.GetConsumption(ctx, orderID, lineID)
		if err != nil {
			return lookupError(err, "material consumption", lineID)
		}

		line.ConsumedQuantity = decimal.NewNullDecimal(req.ConsumedQuantity)
		switch {
		case req.ConsumedQuantity.IsZero():
			line.Status = entity.ConsumptionStatusPending
		case req.ConsumedQuantity.LessThan(line.RequiredQuantity):
			line.Status = entity.ConsumptionStatusPartial
		default:
			line.Status = entity.ConsumptionStatusConsumed
		}
		line.UpdatedAt = time.Now()
		return tx.ProductionOrder.UpdateConsumption(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// AddInspection 新增质检记录
func (s *ProductionOrderService) AddInspection(ctx context.Context, orderID, userID string, req *AddInspectionRequest) (*entity.QualityInspection, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(req.InspectionType) == "" {
		verr.Add("inspection_type", "is required")
	}
	result := req.Result
	if result == "" {
		result = entity.InspectionPending
	} else if !contains([]string{entity.InspectionPending, entity.InspectionPassed, entity.InspectionFailed}, result) {
		verr.Add("result", "must be one of Pending, Passed, Failed")
	}
	if req.InspectedQuantity.IsNegative() {
		verr.Add("inspected_quantity", "must not be negative")
	}
	if req.DefectQuantity.IsNegative() {
		verr.Add("defect_quantity", "must not be negative")
	} else if req.DefectQuantity.GreaterThan(req.InspectedQuantity) {
		verr.Add("defect_quantity", "must not exceed inspected_quantity")
	}
	inspectedAt := time.Now()
	if req.InspectedAt != "" {
		t, err := parseDate(req.InspectedAt)
		if err != nil {
			verr.Add("inspected_at", "must be an ISO-8601 date")
		}
		inspectedAt = t
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	inspector := req.Inspector
	if inspector == "" {
		inspector = userID
	}
	qi := &entity.QualityInspection{
		ID:                repository.GenerateID(),
		ProductionOrderID: orderID,
		InspectionType:    strings.TrimSpace(req.InspectionType),
		Result:            result,
		InspectedQuantity: req.InspectedQuantity,
		DefectQuantity:    req.DefectQuantity,
		Inspector:         inspector,
		Notes:             req.Notes,
		InspectedAt:       inspectedAt,
		CreatedAt:         time.Now(),
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.ProductionOrder.GetHeader(ctx, orderID); err != nil {
			return lookupError(err, "production order", orderID)
		}
		return tx.ProductionOrder.CreateInspection(ctx, qi)
	})
	if err != nil {
		return nil, err
	}
	return qi, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// BOMService BOM服务
type BOMService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewBOMService 创建BOM服务
func NewBOMService(repos *repository.Repositories, logger *zap.Logger) *BOMService {
	return &BOMService{repos: repos, logger: logger}
}

// CreateBOMRequest 创建BOM请求
type CreateBOMRequest struct {
	ProductID         string              `json:"product_id" binding:"required"`
	Version           string              `json:"version" binding:"required"`
	Name              string              `json:"name" binding:"required"`
	Description       string              `json:"description"`
	ManufacturingType string              `json:"manufacturing_type" binding:"required"`
	IsActive          *bool               `json:"is_active"`
	Notes             string              `json:"notes"`
	RevisionNotes     string              `json:"revision_notes"`
	YieldPercentage   *decimal.Decimal    `json:"yield_percentage"`
	Items             []AddBOMItemRequest `json:"items"`
}

// UpdateBOMRequest 更新BOM头请求，nil字段不修改
type UpdateBOMRequest struct {
	Name              *string          `json:"name"`
	Version           *string          `json:"version"`
	Description       *string          `json:"description"`
	ManufacturingType *string          `json:"manufacturing_type"`
	IsActive          *bool            `json:"is_active"`
	Notes             *string          `json:"notes"`
	RevisionNotes     *string          `json:"revision_notes"`
	YieldPercentage   *decimal.Decimal `json:"yield_percentage"`
}

// AddBOMItemRequest 添加BOM行项请求
type AddBOMItemRequest struct {
	ComponentID   string           `json:"component_id" binding:"required"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitOfMeasure string           `json:"unit_of_measure" binding:"required"`
	Position      *int             `json:"position"`
	IsOptional    bool             `json:"is_optional"`
	IsSubAssembly bool             `json:"is_sub_assembly"`
	ScrapRate     decimal.Decimal  `json:"scrap_rate"`
	Operation     string           `json:"operation"`
	Notes         string           `json:"notes"`
	WorkCenterID  *string          `json:"work_center_id"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
}

// CopyBOMRequest 复制BOM请求
type CopyBOMRequest struct {
	NewVersion    string `json:"new_version" binding:"required"`
	NewName       string `json:"new_name"`
	RevisionNotes string `json:"revision_notes"`
}

// CreateBOMResult 创建BOM结果
type CreateBOMResult struct {
	BOM       *entity.BOM `json:"bom"`
	ItemCount int         `json:"item_count"`
}

// BOMDetailResult BOM详情
type BOMDetailResult struct {
	*entity.BOM
	Items     []entity.BOMItem `json:"items"`
	ItemCount int              `json:"item_count"`
	Versions  []string         `json:"versions"`
}

// CopySuggestion 复制BOM时的默认值
type CopySuggestion struct {
	SourceID         string `json:"source_id"`
	SourceVersion    string `json:"source_version"`
	SuggestedVersion string `json:"suggested_version"`
	SuggestedName    string `json:"suggested_name"`
}

// CopyBOMResult 复制BOM结果
type CopyBOMResult struct {
	SourceID    string      `json:"source_id"`
	BOM         *entity.BOM `json:"bom"`
	ItemsCopied int         `json:"items_copied"`
}

// BOMSummary BOM摘要
type BOMSummary struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// BOMItemDiff 同一组件在两个版本中的差异
type BOMItemDiff struct {
	ComponentID string         `json:"component_id"`
	ItemA       entity.BOMItem `json:"item_a"`
	ItemB       entity.BOMItem `json:"item_b"`
	Changes     []FieldChange  `json:"changes"`
}

type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// BOMCompareResult BOM对比结果
type BOMCompareResult struct {
	BOMA     BOMSummary       `json:"bom_a"`
	BOMB     BOMSummary       `json:"bom_b"`
	Added    []entity.BOMItem `json:"added"`
	Removed  []entity.BOMItem `json:"removed"`
	Modified []BOMItemDiff    `json:"modified"`
}

// RollUpCost BOM总成本 = Σ 行项成本
func RollUpCost(items []entity.BOMItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalCost)
	}
	return total
}

func isManufacturingType(t string) bool {
	for _, v := range entity.ManufacturingTypes {
		if v == t {
			return true
		}
	}
	return false
}

func validateYield(verr *ValidationError, y *decimal.Decimal) {
	if y == nil {
		return
	}
	if !y.IsPositive() || y.GreaterThan(hundred) {
		verr.Add("yield_percentage", "must be greater than 0 and at most 100")
	}
}

// CreateBOM 创建BOM头（可带初始行项）
func (s *BOMService) CreateBOM(ctx context.Context, userID string, req *CreateBOMRequest) (*CreateBOMResult, error) {
	verr := &ValidationError{}
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Version = strings.TrimSpace(req.Version)
	req.Name = strings.TrimSpace(req.Name)
	if req.ProductID == "" {
		verr.Add("product_id", "is required")
	}
	if req.Name == "" {
		verr.Add("name", "is required")
	}
	if req.Version == "" {
		verr.Add("version", "is required")
	}
	if req.ManufacturingType == "" {
		verr.Add("manufacturing_type", "is required")
	} else if !isManufacturingType(req.ManufacturingType) {
		verr.Add("manufacturing_type", "must be one of "+strings.Join(entity.ManufacturingTypes, ", "))
	}
	validateYield(verr, req.YieldPercentage)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	bom := &entity.BOM{
		ID:                repository.GenerateID(),
		ProductID:         req.ProductID,
		Version:           req.Version,
		Name:              req.Name,
		Description:       req.Description,
		ManufacturingType: req.ManufacturingType,
		IsActive:          true,
		Notes:             req.Notes,
		RevisionNotes:     req.RevisionNotes,
		YieldPercentage:   hundred,
		TotalCost:         decimal.Zero,
		CreatedBy:         userID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.IsActive != nil {
		bom.IsActive = *req.IsActive
	}
	if req.YieldPercentage != nil {
		bom.YieldPercentage = *req.YieldPercentage
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		exists, err := tx.BOM.VersionExists(ctx, bom.ProductID, bom.Version, "")
		if err != nil {
			return fmt.Errorf("check version: %w", err)
		}
		if exists {
			return versionConflict(bom.ProductID, bom.Version)
		}

		for i := range req.Items {
			item, err := s.buildItem(ctx, tx, bom, &req.Items[i])
			if err != nil {
				var verr *ValidationError
				if errors.As(err, &verr) {
					for j := range verr.Errors {
						verr.Errors[j].Field = "items[" + strconv.Itoa(i) + "]." + verr.Errors[j].Field
					}
				}
				return err
			}
			item.Component = nil
			bom.Items = append(bom.Items, *item)
		}
		bom.TotalCost = RollUpCost(bom.Items)

		if err := tx.BOM.Create(ctx, bom); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return versionConflict(bom.ProductID, bom.Version)
			}
			return fmt.Errorf("create BOM: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateBOMResult{BOM: bom, ItemCount: len(bom.Items)}, nil
}

func versionConflict(productID, version string) error {
	return &ConflictError{Message: fmt.Sprintf("BOM version %s already exists for product %s", version, productID)}
}

// GetBOM 获取BOM详情
func (s *BOMService) GetBOM(ctx context.Context, id string) (*BOMDetailResult, error) {
	bom, err := s.repos.BOM.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "bom", id)
	}
	versions, err := s.repos.BOM.ListVersions(ctx, bom.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	items := bom.Items
	if items == nil {
		items = []entity.BOMItem{}
	}
	return &BOMDetailResult{
		BOM:       bom,
		Items:     items,
		ItemCount: len(items),
		Versions:  versions,
	}, nil
}

// ListBOMs BOM列表
func (s *BOMService) ListBOMs(ctx context.Context, params repository.BOMListParams) ([]entity.BOM, error) {
	boms, err := s.repos.BOM.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list BOMs: %w", err)
	}
	return boms, nil
}

// UpdateBOM 部分更新BOM头
func (s *BOMService) UpdateBOM(ctx context.Context, id string, req *UpdateBOMRequest) (*entity.BOM, error) {
	verr := &ValidationError{}
	fields := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			verr.Add("name", "must not be empty")
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Version != nil {
		if strings.TrimSpace(*req.Version) == "" {
			verr.Add("version", "must not be empty")
		}
		fields["version"] = strings.TrimSpace(*req.Version)
	}
	if req.ManufacturingType != nil {
		if !isManufacturingType(*req.ManufacturingType) {
			verr.Add("manufacturing_type", "must be one of "+strings.Join(entity.ManufacturingTypes, ", "))
		}
		fields["manufacturing_type"] = *req.ManufacturingType
	}
	validateYield(verr, req.YieldPercentage)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.RevisionNotes != nil {
		fields["revision_notes"] = *req.RevisionNotes
	}
	if req.YieldPercentage != nil {
		fields["yield_percentage"] = *req.YieldPercentage
	}

	var updated *entity.BOM
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		bom, err := tx.BOM.GetHeader(ctx, id)
		if err != nil {
			return lookupError(err, "bom", id)
		}
		if v, ok := fields["version"].(string); ok && v != bom.Version {
			exists, err := tx.BOM.VersionExists(ctx, bom.ProductID, v, bom.ID)
			if err != nil {
				return fmt.Errorf("check version: %w", err)
			}
			if exists {
				return versionConflict(bom.ProductID, v)
			}
		}
		if len(fields) > 0 {
			if err := tx.BOM.Updates(ctx, id, fields); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return versionConflict(bom.ProductID, fmt.Sprint(fields["version"]))
				}
				return fmt.Errorf("update BOM: %w", err)
			}
		}
		updated, err = tx.BOM.GetHeader(ctx, id)
		if err != nil {
			return lookupError(err, "bom", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// buildItem 校验请求并构造行项，单价未给出时取组件标准成本
func (s *BOMService) buildItem(ctx context.Context, tx *repository.Repositories, bom *entity.BOM, req *AddBOMItemRequest) (*entity.BOMItem, error) {
	verr := &ValidationError{}
	componentID := strings.TrimSpace(req.ComponentID)
	unit := strings.TrimSpace(req.UnitOfMeasure)
	if componentID == "" {
		verr.Add("component_id", "is required")
	} else if componentID == bom.ProductID {
		verr.Add("component_id", "component must differ from the BOM product")
	}
	if !req.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than 0")
	}
	if unit == "" {
		verr.Add("unit_of_measure", "is required")
	}
	if req.ScrapRate.IsNegative() || req.ScrapRate.GreaterThan(hundred) {
		verr.Add("scrap_rate", "must be between 0 and 100")
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		verr.Add("unit_cost", "must not be negative")
	}
	if req.Position != nil && *req.Position < 0 {
		verr.Add("position", "must not be negative")
	}

	var workCenterID *string
	if req.WorkCenterID != nil && strings.TrimSpace(*req.WorkCenterID) != "" {
		wcID := strings.TrimSpace(*req.WorkCenterID)
		if _, err := tx.WorkCenter.FindByID(ctx, wcID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("get work center: %w", err)
			}
			verr.Add("work_center_id", "work center not found")
		}
		workCenterID = &wcID
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var component *entity.Product
	unitCost := decimal.Zero
	p, err := tx.Product.FindByID(ctx, componentID)
	switch {
	case err == nil:
		component = p
		unitCost = p.StandardCost
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get component: %w", err)
	}
	if req.UnitCost != nil {
		unitCost = *req.UnitCost
	}

	now := time.Now()
	item := &entity.BOMItem{
		ID:            repository.GenerateID(),
		BOMID:         bom.ID,
		ComponentID:   componentID,
		Quantity:      req.Quantity,
		UnitOfMeasure: unit,
		Position:      req.Position,
		IsOptional:    req.IsOptional,
		IsSubAssembly: req.IsSubAssembly,
		ScrapRate:     req.ScrapRate,
		Operation:     req.Operation,
		Notes:         req.Notes,
		WorkCenterID:  workCenterID,
		UnitCost:      unitCost,
		CreatedAt:     now,
		UpdatedAt:     now,
		Component:     component,
	}
	item.TotalCost = item.LineCost()
	return item, nil
}

// rollUp 重新汇总并回写BOM总成本
func rollUp(ctx context.Context, tx *repository.Repositories, bomID string) (decimal.Decimal, error) {
	items, err := tx.BOM.GetItems(ctx, bomID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get items: %w", err)
	}
	total := RollUpCost(items)
	if err := tx.BOM.UpdateTotalCost(ctx, bomID, total); err != nil {
		return decimal.Zero, fmt.Errorf("update total cost: %w", err)
	}
	return total, nil
}

// AddItem 添加BOM行项并重算总成本
func (s *BOMService) AddItem(ctx context.Context, bomID string, req *AddBOMItemRequest) (*entity.BOMItem, error) {
	var created *entity.BOMItem
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		bom, err := tx.BOM.GetHeader(ctx, bomID)
		if err != nil {
			return lookupError(err, "bom", bomID)
		}
		item, err := s.buildItem(ctx, tx, bom, req)
		if err != nil {
			return err
		}
		component := item.Component
		item.Component = nil
		if err := tx.BOM.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create BOM item: %w", err)
		}
		if _, err := rollUp(ctx, tx, bomID); err != nil {
			return err
		}
		item.Component = component
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveItem 删除BOM行项并重算总成本，已下达订单的物料快照不受影响
func (s *BOMService) RemoveItem(ctx context.Context, bomID, itemID string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		item, err := tx.BOM.GetItem(ctx, itemID)
		if err != nil {
			return lookupError(err, "bom item", itemID)
		}
		if item.BOMID != bomID {
			return &NotFoundError{Resource: "bom item", ID: itemID}
		}
		if err := tx.BOM.DeleteItem(ctx, itemID); err != nil {
			return lookupError(err, "bom item", itemID)
		}
		_, err = rollUp(ctx, tx, bomID)
		return err
	})
}

// ToggleActive 切换启用状态
func (s *BOMService) ToggleActive(ctx context.Context, bomID string) (*entity.BOM, error) {
	// 计数放在事务外，查询失败不影响切换
	open, countErr := s.repos.ProductionOrder.CountOpenByBOM(ctx, bomID)
	if countErr != nil {
		s.logger.Warn("Count open production orders failed",
			zap.String("bom_id", bomID), zap.Error(countErr))
	}

	var bom *entity.BOM
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		bom, err = tx.BOM.GetHeader(ctx, bomID)
		if err != nil {
			return lookupError(err, "bom", bomID)
		}
		if countErr == nil && open > 0 && bom.IsActive {
			s.logger.Info("Deactivating BOM referenced by open production orders",
				zap.String("bom_id", bomID), zap.Int64("open_orders", open))
		}
		bom.IsActive = !bom.IsActive
		return tx.BOM.Updates(ctx, bomID, map[string]interface{}{"is_active": bom.IsActive})
	})
	if err != nil {
		return nil, err
	}
	return bom, nil
}

// Approve 审批BOM
func (s *BOMService) Approve(ctx context.Context, bomID, approver string) (*entity.BOM, error) {
	if approver == "" {
		return nil, NewValidationError("approved_by", "is required")
	}
	now := time.Now()
	err := s.repos.BOM.Updates(ctx, bomID, map[string]interface{}{
		"approved_by": approver,
		"approved_at": now,
	})
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	bom, err := s.repos.BOM.GetHeader(ctx, bomID)
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	return bom, nil
}

// NextVersionFor 产品的下一个BOM版本号
func (s *BOMService) NextVersionFor(ctx context.Context, productID string) (string, error) {
	if strings.TrimSpace(productID) == "" {
		return "", NewValidationError("product_id", "is required")
	}
	versions, err := s.repos.BOM.ListVersions(ctx, productID)
	if err != nil {
		return "", fmt.Errorf("list versions: %w", err)
	}
	return NextVersion(versions), nil
}

// CopySuggestion 复制对话框的默认版本号和名称
func (s *BOMService) CopySuggestion(ctx context.Context, bomID string) (*CopySuggestion, error) {
	bom, err := s.repos.BOM.GetHeader(ctx, bomID)
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	return &CopySuggestion{
		SourceID:         bom.ID,
		SourceVersion:    bom.Version,
		SuggestedVersion: SuggestCopyVersion(bom.Version),
		SuggestedName:    bom.Name,
	}, nil
}

// CopyBOM 复制BOM为新版本，行项逐条克隆为独立记录
func (s *BOMService) CopyBOM(ctx context.Context, sourceID, userID string, req *CopyBOMRequest) (*CopyBOMResult, error) {
	newVersion := strings.TrimSpace(req.NewVersion)
	if newVersion == "" {
		return nil, NewValidationError("new_version", "is required")
	}

	var result *CopyBOMResult
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		source, err := tx.BOM.GetHeader(ctx, sourceID)
		if err != nil {
			return lookupError(err, "bom", sourceID)
		}
		exists, err := tx.BOM.VersionExists(ctx, source.ProductID, newVersion, "")
		if err != nil {
			return fmt.Errorf("check version: %w", err)
		}
		if exists {
			return versionConflict(source.ProductID, newVersion)
		}
		items, err := tx.BOM.GetItems(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("get source items: %w", err)
		}

		name := strings.TrimSpace(req.NewName)
		if name == "" {
			name = source.Name
		}
		now := time.Now()
		copied := &entity.BOM{
			ID:                repository.GenerateID(),
			ProductID:         source.ProductID,
			Version:           newVersion,
			Name:              name,
			Description:       source.Description,
			ManufacturingType: source.ManufacturingType,
			IsActive:          true,
			Notes:             source.Notes,
			RevisionNotes:     req.RevisionNotes,
			YieldPercentage:   source.YieldPercentage,
			CreatedBy:         userID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		for _, item := range items {
			clone := item
			clone.ID = repository.GenerateID()
			clone.BOMID = copied.ID
			clone.CreatedAt = now
			clone.UpdatedAt = now
			clone.Component = nil
			clone.WorkCenter = nil
			copied.Items = append(copied.Items, clone)
		}
		copied.TotalCost = RollUpCost(copied.Items)

		if err := tx.BOM.Create(ctx, copied); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return versionConflict(source.ProductID, newVersion)
			}
			return fmt.Errorf("create BOM copy: %w", err)
		}

		result = &CopyBOMResult{SourceID: source.ID, BOM: copied, ItemsCopied: len(copied.Items)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("BOM copied",
		zap.String("source_id", sourceID),
		zap.String("bom_id", result.BOM.ID),
		zap.String("version", newVersion),
		zap.Int("items", result.ItemsCopied),
	)
	return result, nil
}

// Compare 按组件对比两个BOM的行项，同一组件在一个BOM中出现多次时取排序靠前的一条
func (s *BOMService) Compare(ctx context.Context, bomAID, bomBID string) (*BOMCompareResult, error) {
	verr := &ValidationError{}
	if bomAID == "" {
		verr.Add("bom_a", "is required")
	}
	if bomBID == "" {
		verr.Add("bom_b", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	bomA, err := s.repos.BOM.GetByID(ctx, bomAID)
	if err != nil {
		return nil, lookupError(err, "bom", bomAID)
	}
	bomB, err := s.repos.BOM.GetByID(ctx, bomBID)
	if err != nil {
		return nil, lookupError(err, "bom", bomBID)
	}

	mapA := indexByComponent(bomA.Items)
	mapB := indexByComponent(bomB.Items)

	result := &BOMCompareResult{
		BOMA:     summarize(bomA),
		BOMB:     summarize(bomB),
		Added:    []entity.BOMItem{},
		Removed:  []entity.BOMItem{},
		Modified: []BOMItemDiff{},
	}
	for _, itemA := range bomA.Items {
		if mapA[itemA.ComponentID].ID != itemA.ID {
			continue
		}
		itemB, ok := mapB[itemA.ComponentID]
		if !ok {
			result.Removed = append(result.Removed, itemA)
			continue
		}
		if changes := compareItemFields(itemA, itemB); len(changes) > 0 {
			result.Modified = append(result.Modified, BOMItemDiff{
				ComponentID: itemA.ComponentID,
				ItemA:       itemA,
				ItemB:       itemB,
				Changes:     changes,
			})
		}
	}
	for _, itemB := range bomB.Items {
		if mapB[itemB.ComponentID].ID != itemB.ID {
			continue
		}
		if _, ok := mapA[itemB.ComponentID]; !ok {
			result.Added = append(result.Added, itemB)
		}
	}
	return result, nil
}

func summarize(b *entity.BOM) BOMSummary {
	return BOMSummary{ID: b.ID, ProductID: b.ProductID, Name: b.Name, Version: b.Version}
}

func indexByComponent(items []entity.BOMItem) map[string]entity.BOMItem {
	m := make(map[string]entity.BOMItem, len(items))
	for _, item := range items {
		if _, ok := m[item.ComponentID]; !ok {
			m[item.ComponentID] = item
		}
	}
	return m
}

func compareItemFields(a, b entity.BOMItem) []FieldChange {
	var changes []FieldChange
	if !a.Quantity.Equal(b.Quantity) {
		changes = append(changes, FieldChange{Field: "quantity", Old: a.Quantity.String(), New: b.Quantity.String()})
	}
	if a.UnitOfMeasure != b.UnitOfMeasure {
		changes = append(changes, FieldChange{Field: "unit_of_measure", Old: a.UnitOfMeasure, New: b.UnitOfMeasure})
	}
	if !intPtrEqual(a.Position, b.Position) {
		changes = append(changes, FieldChange{Field: "position", Old: intPtrStr(a.Position), New: intPtrStr(b.Position)})
	}
	return changes
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func intPtrStr(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

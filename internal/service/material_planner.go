package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaterialPlanner 生产订单物料展开
type MaterialPlanner struct {
	repos  *repository.Repositories
	cache  PlanningCache
	logger *zap.Logger
}

// NewMaterialPlanner 创建物料展开服务
func NewMaterialPlanner(repos *repository.Repositories, cache PlanningCache, logger *zap.Logger) *MaterialPlanner {
	return &MaterialPlanner{repos: repos, cache: cache, logger: logger}
}

// MaterialPlanRequest 物料展开请求
type MaterialPlanRequest struct {
	SessionID string          `json:"session_id"`
	BOMID     string          `json:"bom_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// PlannedMaterial 展开后的物料需求行
type PlannedMaterial struct {
	ProductID        string          `json:"product_id"`
	RequiredQuantity decimal.Decimal `json:"required_quantity"`
	UnitOfMeasure    string          `json:"unit_of_measure"`
}

// MaterialPlanResult 物料展开结果，Reloaded表示行项是从BOM重新加载的
type MaterialPlanResult struct {
	BOMID     string            `json:"bom_id"`
	ProductID string            `json:"product_id"`
	Quantity  decimal.Decimal   `json:"quantity"`
	Materials []PlannedMaterial `json:"materials"`
	Reloaded  bool              `json:"reloaded"`
}

// DeriveMaterials 每个BOM行项一行，需求量 = 行项用量 × 订单数量
func DeriveMaterials(items []PlanItem, quantity decimal.Decimal) []PlannedMaterial {
	materials := make([]PlannedMaterial, 0, len(items))
	for _, item := range items {
		materials = append(materials, PlannedMaterial{
			ProductID:        item.ComponentID,
			RequiredQuantity: item.Quantity.Mul(quantity),
			UnitOfMeasure:    item.UnitOfMeasure,
		})
	}
	return materials
}

// PlanItemsFromBOM 取出展开所需的行项字段
func PlanItemsFromBOM(items []entity.BOMItem) []PlanItem {
	planItems := make([]PlanItem, 0, len(items))
	for _, item := range items {
		planItems = append(planItems, PlanItem{
			ComponentID:   item.ComponentID,
			Quantity:      item.Quantity,
			UnitOfMeasure: item.UnitOfMeasure,
		})
	}
	return planItems
}

// Plan 展开物料
// 会话中已缓存同一BOM时只按新数量重算；BOM变化或未命中时重新加载行项并替换整个列表
func (p *MaterialPlanner) Plan(ctx context.Context, req *MaterialPlanRequest) (*MaterialPlanResult, error) {
	verr := &ValidationError{}
	bomID := strings.TrimSpace(req.BOMID)
	if bomID == "" {
		verr.Add("bom_id", "is required")
	}
	if !req.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than 0")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var snap *PlanSnapshot
	if req.SessionID != "" {
		cached, err := p.cache.Load(ctx, req.SessionID)
		if err != nil {
			p.logger.Warn("Planner cache load failed, reloading BOM",
				zap.String("session_id", req.SessionID), zap.Error(err))
		} else if cached != nil && cached.BOMID == bomID {
			snap = cached
		}
	}

	reloaded := false
	if snap == nil {
		loaded, err := p.loadSnapshot(ctx, bomID)
		if err != nil {
			return nil, err
		}
		snap = loaded
		reloaded = true
		if req.SessionID != "" {
			if err := p.cache.Store(ctx, req.SessionID, snap); err != nil {
				p.logger.Warn("Planner cache store failed",
					zap.String("session_id", req.SessionID), zap.Error(err))
			}
		}
	}

	return &MaterialPlanResult{
		BOMID:     snap.BOMID,
		ProductID: snap.ProductID,
		Quantity:  req.Quantity,
		Materials: DeriveMaterials(snap.Items, req.Quantity),
		Reloaded:  reloaded,
	}, nil
}

// Forget 结束编辑会话时清除缓存
func (p *MaterialPlanner) Forget(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := p.cache.Drop(ctx, sessionID); err != nil {
		p.logger.Warn("Planner cache drop failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (p *MaterialPlanner) loadSnapshot(ctx context.Context, bomID string) (*PlanSnapshot, error) {
	bom, err := p.repos.BOM.GetHeader(ctx, bomID)
	if err != nil {
		return nil, lookupError(err, "bom", bomID)
	}
	items, err := p.repos.BOM.GetItems(ctx, bomID)
	if err != nil {
		return nil, fmt.Errorf("get BOM items: %w", err)
	}
	return &PlanSnapshot{
		BOMID:     bom.ID,
		ProductID: bom.ProductID,
		Items:     PlanItemsFromBOM(items),
	}, nil
}

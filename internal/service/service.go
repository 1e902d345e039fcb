package service

import (
	"github.com/bitfantasy/nimo-mfg/internal/config"
	"github.com/bitfantasy/nimo-mfg/internal/idgen"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	BOM             *BOMService
	Planner         *MaterialPlanner
	ProductionOrder *ProductionOrderService
	Catalog         *CatalogService
}

// NewServices 创建服务集合，rdb为nil时物料展开缓存使用进程内实现
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	numbers, err := idgen.NewOrderNumberGenerator(cfg.Server.NodeID, "MO")
	if err != nil {
		return nil, err
	}

	var cache PlanningCache
	if rdb != nil {
		cache = NewRedisPlanningCache(rdb, cfg.Planner.SessionTTL)
	} else {
		cache = NewMemoryPlanningCache(cfg.Planner.SessionTTL)
	}

	planner := NewMaterialPlanner(repos, cache, logger)
	return &Services{
		BOM:             NewBOMService(repos, logger),
		Planner:         planner,
		ProductionOrder: NewProductionOrderService(repos, planner, numbers, logger),
		Catalog:         NewCatalogService(repos),
	}, nil
}

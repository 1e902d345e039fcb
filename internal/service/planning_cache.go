package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PlanItem 缓存的BOM行项（只保留展开物料所需字段）
type PlanItem struct {
	ComponentID   string          `json:"component_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitOfMeasure string          `json:"unit_of_measure"`
}

// PlanSnapshot 一个编辑会话当前选中BOM的行项快照
type PlanSnapshot struct {
	BOMID     string     `json:"bom_id"`
	ProductID string     `json:"product_id"`
	Items     []PlanItem `json:"items"`
}

// PlanningCache 按会话缓存BOM行项快照，Load未命中返回nil, nil
type PlanningCache interface {
	Load(ctx context.Context, sessionID string) (*PlanSnapshot, error)
	Store(ctx context.Context, sessionID string, snap *PlanSnapshot) error
	Drop(ctx context.Context, sessionID string) error
}

const planCacheKeyPrefix = "mfg:planner:"

// RedisPlanningCache Redis实现
type RedisPlanningCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPlanningCache(rdb *redis.Client, ttl time.Duration) *RedisPlanningCache {
	return &RedisPlanningCache{rdb: rdb, ttl: ttl}
}

func (c *RedisPlanningCache) Load(ctx context.Context, sessionID string) (*PlanSnapshot, error) {
	raw, err := c.rdb.Get(ctx, planCacheKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var snap PlanSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (c *RedisPlanningCache) Store(ctx context.Context, sessionID string, snap *PlanSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.rdb.Set(ctx, planCacheKeyPrefix+sessionID, raw, c.ttl).Err()
}

func (c *RedisPlanningCache) Drop(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, planCacheKeyPrefix+sessionID).Err()
}

// MemoryPlanningCache 进程内实现，未配置Redis时使用
type MemoryPlanningCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryPlanEntry
	now     func() time.Time
}

type memoryPlanEntry struct {
	snap    PlanSnapshot
	expires time.Time
}

func NewMemoryPlanningCache(ttl time.Duration) *MemoryPlanningCache {
	return &MemoryPlanningCache{
		ttl:     ttl,
		entries: make(map[string]memoryPlanEntry),
		now:     time.Now,
	}
}

func (c *MemoryPlanningCache) Load(_ context.Context, sessionID string) (*PlanSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sessionID]
	if !ok {
		return nil, nil
	}
	if c.ttl > 0 && c.now().After(e.expires) {
		delete(c.entries, sessionID)
		return nil, nil
	}
	snap := e.snap
	snap.Items = append([]PlanItem(nil), e.snap.Items...)
	return &snap, nil
}

func (c *MemoryPlanningCache) Store(_ context.Context, sessionID string, snap *PlanSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *snap
	stored.Items = append([]PlanItem(nil), snap.Items...)
	c.entries[sessionID] = memoryPlanEntry{snap: stored, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryPlanningCache) Drop(_ context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.entries, sessionID)
	c.mu.Unlock()
	return nil
}

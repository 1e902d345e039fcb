package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisPlanningCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisPlanningCache(rdb, ttl), mr
}

func testSnapshot() *PlanSnapshot {
	return &PlanSnapshot{
		BOMID:     "bom-1",
		ProductID: "prod-widget",
		Items: []PlanItem{
			{ComponentID: "steel", Quantity: dec("2.5"), UnitOfMeasure: "kg"},
			{ComponentID: "bolt", Quantity: dec("5"), UnitOfMeasure: "Each"},
		},
	}
}

func TestRedisPlanningCacheRoundTrip(t *testing.T) {
	cache, mr := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	snap, err := cache.Load(ctx, "form-1")
	if err != nil || snap != nil {
		t.Fatalf("expected miss as nil, nil; got %v, %v", snap, err)
	}

	if err := cache.Store(ctx, "form-1", testSnapshot()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !mr.Exists("mfg:planner:form-1") {
		t.Fatalf("expected key mfg:planner:form-1, got keys %v", mr.Keys())
	}
	if ttl := mr.TTL("mfg:planner:form-1"); ttl != time.Minute {
		t.Errorf("expected TTL 1m, got %s", ttl)
	}

	snap, err = cache.Load(ctx, "form-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.BOMID != "bom-1" || snap.ProductID != "prod-widget" || len(snap.Items) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.Items[0].Quantity.Equal(dec("2.5")) || snap.Items[1].UnitOfMeasure != "Each" {
		t.Errorf("unexpected items %+v", snap.Items)
	}

	if err := cache.Drop(ctx, "form-1"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if snap, err := cache.Load(ctx, "form-1"); err != nil || snap != nil {
		t.Errorf("expected miss after Drop, got %v, %v", snap, err)
	}
}

func TestRedisPlanningCacheExpires(t *testing.T) {
	cache, mr := setupRedisCache(t, 30*time.Second)
	ctx := context.Background()

	if err := cache.Store(ctx, "form-1", testSnapshot()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	mr.FastForward(29 * time.Second)
	if snap, _ := cache.Load(ctx, "form-1"); snap == nil {
		t.Fatal("expected snapshot before TTL")
	}
	mr.FastForward(2 * time.Second)
	if snap, err := cache.Load(ctx, "form-1"); err != nil || snap != nil {
		t.Errorf("expected miss after TTL, got %v, %v", snap, err)
	}
}

func TestRedisPlanningCacheCorruptPayload(t *testing.T) {
	cache, mr := setupRedisCache(t, time.Minute)
	if err := mr.Set("mfg:planner:form-1", "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := cache.Load(context.Background(), "form-1"); err == nil {
		t.Error("expected decode error")
	}
}

func TestPlannerWithRedisCache(t *testing.T) {
	svc, _ := setupServices(t)
	cache, mr := setupRedisCache(t, time.Minute)
	planner := NewMaterialPlanner(svc.Planner.repos, cache, zap.NewNop())
	ctx := context.Background()

	bom := createTestBOM(t, svc, "prod-widget", "1.0")
	addTestItem(t, svc, bom.ID, "steel", "2", "kg", nil)

	first, err := planner.Plan(ctx, &MaterialPlanRequest{SessionID: "form-1", BOMID: bom.ID, Quantity: dec("10")})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !first.Reloaded {
		t.Error("expected first plan to load the BOM")
	}
	second, err := planner.Plan(ctx, &MaterialPlanRequest{SessionID: "form-1", BOMID: bom.ID, Quantity: dec("20")})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if second.Reloaded || !second.Materials[0].RequiredQuantity.Equal(dec("40")) {
		t.Errorf("expected rescale from redis session, got %+v", second)
	}

	planner.Forget(ctx, "form-1")
	if mr.Exists("mfg:planner:form-1") {
		t.Error("expected Forget to delete the session key")
	}

	mr.Close()
	third, err := planner.Plan(ctx, &MaterialPlanRequest{SessionID: "form-1", BOMID: bom.ID, Quantity: dec("10")})
	if err != nil {
		t.Fatalf("Plan should degrade when redis is down: %v", err)
	}
	if !third.Reloaded {
		t.Error("expected reload when redis is unavailable")
	}
}

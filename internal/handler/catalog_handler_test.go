package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mfg/internal/testutil"
)

func TestCatalogProducts(t *testing.T) {
	env := setupTestEnv(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/manufacturing/products", map[string]interface{}{
		"code": "STEEL-01", "name": "Steel plate", "standard_cost": "4.25",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/manufacturing/products", map[string]interface{}{
		"code": "STEEL-01", "name": "Duplicate",
	}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate code, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/manufacturing/products?keyword=steel", nil, token)
	if total := testutil.Data(t, w)["total"]; total != float64(1) {
		t.Errorf("Expected 1 product, got %v", total)
	}
}

func TestCatalogWorkCenters(t *testing.T) {
	env := setupTestEnv(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/manufacturing/work-centers", map[string]interface{}{
		"code": "WC-CUT", "name": "Cutting",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	testutil.DoRequest(env.Router, "POST", "/api/manufacturing/work-centers", map[string]interface{}{
		"code": "WC-OLD", "name": "Retired", "is_active": false,
	}, token)

	w = testutil.DoRequest(env.Router, "GET", "/api/manufacturing/work-centers?active=true", nil, token)
	if total := testutil.Data(t, w)["total"]; total != float64(1) {
		t.Errorf("Expected 1 active work center, got %v", total)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/manufacturing/work-centers", nil, token)
	if total := testutil.Data(t, w)["total"]; total != float64(2) {
		t.Errorf("Expected 2 work centers, got %v", total)
	}
}

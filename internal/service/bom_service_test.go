package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/bitfantasy/nimo-mfg/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"gorm.io/gorm"
)

func setupServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc, err := NewServices(repository.NewRepositories(db), nil, testutil.TestConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	return svc, db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func createTestBOM(t *testing.T, svc *Services, productID, version string) *entity.BOM {
	t.Helper()
	result, err := svc.BOM.CreateBOM(context.Background(), testutil.TestUser, &CreateBOMRequest{
		ProductID:         productID,
		Version:           version,
		Name:              "Widget BOM",
		Description:       "main assembly",
		ManufacturingType: entity.ManufacturingTypeDiscrete,
	})
	if err != nil {
		t.Fatalf("CreateBOM: %v", err)
	}
	return result.BOM
}

func addTestItem(t *testing.T, svc *Services, bomID, componentID, qty, unit string, unitCost *decimal.Decimal) *entity.BOMItem {
	t.Helper()
	item, err := svc.BOM.AddItem(context.Background(), bomID, &AddBOMItemRequest{
		ComponentID:   componentID,
		Quantity:      dec(qty),
		UnitOfMeasure: unit,
		UnitCost:      unitCost,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return item
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	out := make(map[string]string)
	for _, fe := range verr.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestCreateBOMDefaults(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	if !bom.IsActive {
		t.Error("expected new BOM to be active by default")
	}
	if !bom.YieldPercentage.Equal(dec("100")) {
		t.Errorf("expected yield 100, got %s", bom.YieldPercentage)
	}
	if bom.CreatedBy != testutil.TestUser {
		t.Errorf("expected created_by %s, got %s", testutil.TestUser, bom.CreatedBy)
	}

	inactive := false
	result, err := svc.BOM.CreateBOM(context.Background(), "", &CreateBOMRequest{
		ProductID: "prod-widget", Version: "2.0", Name: "Widget", ManufacturingType: "Batch", IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("CreateBOM: %v", err)
	}
	if result.BOM.IsActive {
		t.Error("expected is_active=false to be honoured")
	}

	detail, err := svc.BOM.GetBOM(context.Background(), result.BOM.ID)
	if err != nil {
		t.Fatalf("GetBOM: %v", err)
	}
	if detail.IsActive {
		t.Error("expected stored BOM to be inactive")
	}
}

func TestCreateBOMValidation(t *testing.T) {
	svc, _ := setupServices(t)

	_, err := svc.BOM.CreateBOM(context.Background(), "", &CreateBOMRequest{ManufacturingType: "Assembly"})
	fields := fieldErrors(t, err)
	for _, f := range []string{"product_id", "name", "version", "manufacturing_type"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}
}

func TestCreateBOMDuplicateVersion(t *testing.T) {
	svc, _ := setupServices(t)
	createTestBOM(t, svc, "prod-widget", "1.0")

	_, err := svc.BOM.CreateBOM(context.Background(), "", &CreateBOMRequest{
		ProductID: "prod-widget", Version: "1.0", Name: "Again", ManufacturingType: "Discrete",
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// 其他产品可以使用相同版本号
	createTestBOM(t, svc, "prod-other", "1.0")
}

func TestAddItemRejectsSelfReference(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	_, err := svc.BOM.AddItem(context.Background(), bom.ID, &AddBOMItemRequest{
		ComponentID:   "prod-widget",
		Quantity:      dec("1"),
		UnitOfMeasure: "Each",
	})
	fields := fieldErrors(t, err)
	if _, ok := fields["component_id"]; !ok {
		t.Fatalf("expected component_id error, got %v", fields)
	}

	detail, _ := svc.BOM.GetBOM(context.Background(), bom.ID)
	if detail.ItemCount != 0 {
		t.Errorf("expected no items after rejected add, got %d", detail.ItemCount)
	}
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	missingWC := "wc-missing"
	_, err := svc.BOM.AddItem(context.Background(), bom.ID, &AddBOMItemRequest{
		ComponentID:  "comp-a",
		Quantity:     dec("0"),
		ScrapRate:    dec("120"),
		WorkCenterID: &missingWC,
	})
	fields := fieldErrors(t, err)
	for _, f := range []string{"quantity", "unit_of_measure", "scrap_rate", "work_center_id"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}

	_, err = svc.BOM.AddItem(context.Background(), "no-such-bom", &AddBOMItemRequest{
		ComponentID: "comp-a", Quantity: dec("1"), UnitOfMeasure: "Each",
	})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCostRollUp(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	addTestItem(t, svc, bom.ID, "comp-a", "3", "Each", decPtr("2.00"))
	addTestItem(t, svc, bom.ID, "comp-b", "1", "Each", decPtr("5.50"))

	detail, err := svc.BOM.GetBOM(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("GetBOM: %v", err)
	}
	if !detail.TotalCost.Equal(dec("11.50")) {
		t.Errorf("expected total 11.50, got %s", detail.TotalCost)
	}
	if !RollUpCost(detail.Items).Equal(dec("11.5")) {
		t.Errorf("RollUpCost over stored items = %s", RollUpCost(detail.Items))
	}
}

func TestAddItemUsesStandardCost(t *testing.T) {
	svc, db := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")
	steel := testutil.SeedProduct(t, db, "STEEL", "4.25")

	item := addTestItem(t, svc, bom.ID, steel.ID, "2", "kg", nil)
	if !item.UnitCost.Equal(dec("4.25")) {
		t.Errorf("expected unit cost from standard cost, got %s", item.UnitCost)
	}
	if !item.TotalCost.Equal(dec("8.5")) {
		t.Errorf("expected total 8.5, got %s", item.TotalCost)
	}

	unknown := addTestItem(t, svc, bom.ID, "not-in-catalog", "2", "kg", nil)
	if !unknown.UnitCost.IsZero() {
		t.Errorf("expected zero cost for unknown component, got %s", unknown.UnitCost)
	}
}

func TestRemoveItemRecomputesTotal(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")
	a := addTestItem(t, svc, bom.ID, "comp-a", "3", "Each", decPtr("2"))
	addTestItem(t, svc, bom.ID, "comp-b", "1", "Each", decPtr("5.5"))

	if err := svc.BOM.RemoveItem(context.Background(), bom.ID, a.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	detail, _ := svc.BOM.GetBOM(context.Background(), bom.ID)
	if detail.ItemCount != 1 {
		t.Errorf("expected 1 item, got %d", detail.ItemCount)
	}
	if !detail.TotalCost.Equal(dec("5.5")) {
		t.Errorf("expected total 5.5, got %s", detail.TotalCost)
	}

	err := svc.BOM.RemoveItem(context.Background(), bom.ID, a.ID)
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestRemoveItemFromOtherBOM(t *testing.T) {
	svc, _ := setupServices(t)
	bom1 := createTestBOM(t, svc, "prod-widget", "1.0")
	bom2 := createTestBOM(t, svc, "prod-widget", "1.1")
	item := addTestItem(t, svc, bom1.ID, "comp-a", "1", "Each", nil)

	err := svc.BOM.RemoveItem(context.Background(), bom2.ID, item.ID)
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestToggleActive(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	toggled, err := svc.BOM.ToggleActive(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("ToggleActive: %v", err)
	}
	if toggled.IsActive {
		t.Error("expected BOM to be inactive")
	}
	toggled, _ = svc.BOM.ToggleActive(context.Background(), bom.ID)
	if !toggled.IsActive {
		t.Error("expected BOM to be active again")
	}
}

func TestToggleActiveIgnoresOpenOrderCountFailure(t *testing.T) {
	svc, db := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")
	if err := db.Migrator().DropTable(&entity.ProductionOrder{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	toggled, err := svc.BOM.ToggleActive(context.Background(), bom.ID)
	if err != nil {
		t.Fatalf("ToggleActive should not depend on the open order count: %v", err)
	}
	if toggled.IsActive {
		t.Error("expected BOM to be inactive")
	}
}

func TestApprove(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	approved, err := svc.BOM.Approve(context.Background(), bom.ID, "qa-lead")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != "qa-lead" {
		t.Errorf("expected approved_by qa-lead, got %v", approved.ApprovedBy)
	}
	if approved.ApprovedAt == nil {
		t.Error("expected approved_at to be set")
	}
}

func TestUpdateBOMVersionConflict(t *testing.T) {
	svc, _ := setupServices(t)
	createTestBOM(t, svc, "prod-widget", "1.0")
	second := createTestBOM(t, svc, "prod-widget", "1.1")

	taken := "1.0"
	_, err := svc.BOM.UpdateBOM(context.Background(), second.ID, &UpdateBOMRequest{Version: &taken})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	name := "Renamed"
	updated, err := svc.BOM.UpdateBOM(context.Background(), second.ID, &UpdateBOMRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateBOM: %v", err)
	}
	if updated.Name != "Renamed" || updated.Version != "1.1" {
		t.Errorf("unexpected header after update: %+v", updated)
	}
}

func TestUpdateBOMRereadNotFound(t *testing.T) {
	svc, db := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	// 第二次读取BOM头时模拟记录已被删除
	reads := 0
	err := db.Callback().Query().Before("gorm:query").Register("test:lose_bom", func(tx *gorm.DB) {
		if tx.Statement.Table != "mfg_boms" {
			return
		}
		reads++
		if reads == 2 {
			tx.AddError(gorm.ErrRecordNotFound)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	name := "Renamed"
	_, err = svc.BOM.UpdateBOM(context.Background(), bom.ID, &UpdateBOMRequest{Name: &name})
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNextVersionFor(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()

	v, err := svc.BOM.NextVersionFor(ctx, "prod-widget")
	if err != nil || v != "1.0" {
		t.Fatalf("expected 1.0 for new product, got %q (%v)", v, err)
	}
	for _, version := range []string{"1.0", "1.2", "2.0"} {
		createTestBOM(t, svc, "prod-widget", version)
	}
	createTestBOM(t, svc, "prod-other", "7.0")

	v, _ = svc.BOM.NextVersionFor(ctx, "prod-widget")
	if v != "2.1" {
		t.Errorf("expected 2.1, got %q", v)
	}
}

func TestCopyBOMIsolation(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()
	source := createTestBOM(t, svc, "prod-widget", "2.3")
	addTestItem(t, svc, source.ID, "comp-a", "2", "kg", decPtr("1"))
	addTestItem(t, svc, source.ID, "comp-b", "5", "Each", decPtr("3"))

	suggestion, err := svc.BOM.CopySuggestion(ctx, source.ID)
	if err != nil {
		t.Fatalf("CopySuggestion: %v", err)
	}
	if suggestion.SuggestedVersion != "2.4" || suggestion.SuggestedName != "Widget BOM" {
		t.Errorf("unexpected suggestion %+v", suggestion)
	}

	copied, err := svc.BOM.CopyBOM(ctx, source.ID, testutil.TestUser, &CopyBOMRequest{NewVersion: suggestion.SuggestedVersion})
	if err != nil {
		t.Fatalf("CopyBOM: %v", err)
	}
	if copied.ItemsCopied != 2 {
		t.Fatalf("expected 2 items copied, got %d", copied.ItemsCopied)
	}
	if copied.BOM.ProductID != source.ProductID || copied.BOM.ManufacturingType != source.ManufacturingType || copied.BOM.Description != source.Description {
		t.Errorf("copy did not keep source header fields: %+v", copied.BOM)
	}

	copyDetail, _ := svc.BOM.GetBOM(ctx, copied.BOM.ID)
	if !copyDetail.TotalCost.Equal(dec("17")) {
		t.Errorf("expected copied total 17, got %s", copyDetail.TotalCost)
	}
	if err := svc.BOM.RemoveItem(ctx, copied.BOM.ID, copyDetail.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem on copy: %v", err)
	}

	sourceDetail, _ := svc.BOM.GetBOM(ctx, source.ID)
	if sourceDetail.ItemCount != 2 {
		t.Errorf("source should keep 2 items, got %d", sourceDetail.ItemCount)
	}
	if !sourceDetail.TotalCost.Equal(dec("17")) {
		t.Errorf("source total changed to %s", sourceDetail.TotalCost)
	}

	_, err = svc.BOM.CopyBOM(ctx, source.ID, "", &CopyBOMRequest{NewVersion: "2.4"})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError on duplicate copy, got %v", err)
	}
}

func TestCompareBOMs(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()
	a := createTestBOM(t, svc, "prod-widget", "1.0")
	addTestItem(t, svc, a.ID, "comp-keep", "1", "Each", nil)
	addTestItem(t, svc, a.ID, "comp-change", "2", "kg", nil)
	addTestItem(t, svc, a.ID, "comp-drop", "1", "Each", nil)

	b := createTestBOM(t, svc, "prod-widget", "1.1")
	addTestItem(t, svc, b.ID, "comp-keep", "1", "Each", nil)
	addTestItem(t, svc, b.ID, "comp-change", "3", "kg", nil)
	addTestItem(t, svc, b.ID, "comp-new", "4", "Each", nil)

	result, err := svc.BOM.Compare(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.Added) != 1 || result.Added[0].ComponentID != "comp-new" {
		t.Errorf("unexpected added %+v", result.Added)
	}
	if len(result.Removed) != 1 || result.Removed[0].ComponentID != "comp-drop" {
		t.Errorf("unexpected removed %+v", result.Removed)
	}
	if len(result.Modified) != 1 || result.Modified[0].ComponentID != "comp-change" {
		t.Fatalf("unexpected modified %+v", result.Modified)
	}
	if result.Modified[0].Changes[0].Field != "quantity" {
		t.Errorf("expected quantity change, got %+v", result.Modified[0].Changes)
	}
}

func TestImportItems(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()
	bom := createTestBOM(t, svc, "prod-widget", "1.0")
	bolt := testutil.SeedProduct(t, db, "BOLT-M4", "0.10")

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"component_code", "component_id", "quantity", "unit_of_measure", "scrap_rate", "is_optional", "unit_cost", "notes"},
		{"BOLT-M4", "", "8", "Each", "", "", "", "fasteners"},
		{"", "comp-plate", "1", "Each", "2", "yes", "3.5", ""},
		{"", "prod-widget", "1", "Each", "", "", "", "self reference"},
		{"", "comp-bad", "abc", "Each", "", "", "", ""},
		{"UNKNOWN", "", "1", "Each", "", "", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	result, err := svc.BOM.ImportItems(ctx, bom.ID, f)
	if err != nil {
		t.Fatalf("ImportItems: %v", err)
	}
	if result.Imported != 2 || result.Failed != 3 {
		t.Fatalf("expected 2 imported / 3 failed, got %+v", result)
	}
	if !result.TotalCost.Equal(dec("4.3")) {
		t.Errorf("expected total 4.3 (8×0.10 + 3.5), got %s", result.TotalCost)
	}

	detail, _ := svc.BOM.GetBOM(ctx, bom.ID)
	found := false
	for _, item := range detail.Items {
		if item.ComponentID == bolt.ID {
			found = true
		}
		if item.ComponentID == "comp-plate" && (!item.IsOptional || !item.ScrapRate.Equal(dec("2"))) {
			t.Errorf("plate row not parsed: %+v", item)
		}
	}
	if !found {
		t.Error("expected BOLT-M4 to be resolved by code")
	}
}

func TestImportItemsMissingColumns(t *testing.T) {
	svc, _ := setupServices(t)
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"component_id", "notes"})

	_, err := svc.BOM.ImportItems(context.Background(), bom.ID, f)
	fields := fieldErrors(t, err)
	if _, ok := fields["file"]; !ok {
		t.Fatalf("expected file error, got %v", fields)
	}
}

func TestImportItemsCSV(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	content := "\ufeffcomponent_id,quantity,unit_of_measure,unit_cost,notes\n" +
		"comp-a,2,Each,1.25,\n" +
		"comp-b,-1,Each,,\n"
	result, err := svc.BOM.ImportItemsCSV(ctx, bom.ID, strings.NewReader(content), "")
	if err != nil {
		t.Fatalf("ImportItemsCSV: %v", err)
	}
	if result.Imported != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 imported / 1 failed, got %+v", result)
	}
	if result.Errors[0].Row != 3 || result.Errors[0].Field != "quantity" {
		t.Errorf("unexpected row error %+v", result.Errors[0])
	}
	if !result.TotalCost.Equal(dec("2.5")) {
		t.Errorf("expected total 2.5, got %s", result.TotalCost)
	}
}

func TestImportItemsCSVGBK(t *testing.T) {
	svc, _ := setupServices(t)
	ctx := context.Background()
	bom := createTestBOM(t, svc, "prod-widget", "1.0")

	content := "component_id,quantity,unit_of_measure,notes\ncomp-a,1,Each,紧固件\n"
	encoded, _, err := transform.String(simplifiedchinese.GBK.NewEncoder(), content)
	if err != nil {
		t.Fatalf("encode gbk: %v", err)
	}

	if _, err := svc.BOM.ImportItemsCSV(ctx, bom.ID, strings.NewReader(encoded), "gbk"); err != nil {
		t.Fatalf("ImportItemsCSV: %v", err)
	}
	detail, _ := svc.BOM.GetBOM(ctx, bom.ID)
	if len(detail.Items) != 1 || detail.Items[0].Notes != "紧固件" {
		t.Errorf("expected decoded notes, got %+v", detail.Items)
	}

	_, err = svc.BOM.ImportItemsCSV(ctx, bom.ID, strings.NewReader(content), "latin-9")
	if _, ok := fieldErrors(t, err)["encoding"]; !ok {
		t.Errorf("expected encoding error, got %v", err)
	}
}

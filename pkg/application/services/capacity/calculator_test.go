package capacity

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/waseem-amtrend/capacity/pkg/application/dto"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/services"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()

	override := decimal.NewFromFloat(1.0)
	rollRule, err := entities.NewConversionRule("POLB-129", "RL", "EA", decimal.NewFromInt(100), &override)
	if err != nil {
		t.Fatalf("NewConversionRule failed: %v", err)
	}
	hideRule, err := entities.NewConversionRule("LEA-SBX14", "HD", "SQFT", decimal.NewFromInt(50), nil)
	if err != nil {
		t.Fatalf("NewConversionRule failed: %v", err)
	}
	reconciler, err := services.NewUOMReconciler([]entities.ConversionRule{*rollRule, *hideRule})
	if err != nil {
		t.Fatalf("NewUOMReconciler failed: %v", err)
	}
	return NewCalculator(reconciler)
}

func testBOM(t *testing.T, components ...entities.ComponentUsage) *entities.BillOfMaterials {
	t.Helper()
	assembly, err := entities.NewAssembly("SBX-22721", "Moon Chair", "11174933", "109209-5", components)
	if err != nil {
		t.Fatalf("NewAssembly failed: %v", err)
	}
	bom, err := entities.NewBillOfMaterials([]entities.Assembly{*assembly})
	if err != nil {
		t.Fatalf("NewBillOfMaterials failed: %v", err)
	}
	return bom
}

func usage(t *testing.T, part entities.PartNumber, qtyPer float64, unit string) entities.ComponentUsage {
	t.Helper()
	u, err := entities.NewComponentUsage(part, decimal.NewFromFloat(qtyPer), unit, entities.CategoryOther)
	if err != nil {
		t.Fatalf("NewComponentUsage failed: %v", err)
	}
	return *u
}

func snapshotWith(available map[entities.PartNumber]float64) *dto.InventorySnapshot {
	snap := &dto.InventorySnapshot{
		Components: make(map[entities.PartNumber]entities.ComponentSnapshot),
		Success:    true,
		RefreshID:  "test-refresh",
	}
	for part, qty := range available {
		d := decimal.NewFromFloat(qty)
		snap.Components[part] = entities.ComponentSnapshot{
			Part:          part,
			OnHand:        d,
			Available:     d,
			TrueAvailable: d,
			DisplayUnit:   "EA",
		}
		snap.Order = append(snap.Order, part)
	}
	return snap
}

func TestCalculate_FloorsFractionalUnits(t *testing.T) {
	calc := testCalculator(t)
	bom := testBOM(t, usage(t, "FOAM-3LB", 0.5, "EA"))
	snap := snapshotWith(map[entities.PartNumber]float64{"FOAM-3LB": 7})

	result := calc.Calculate(bom, snap, nil)

	report := result.Reports["SBX-22721"]
	if report.MaxUnitsNow != 14 {
		t.Errorf("Expected 7 / 0.5 = 14 buildable units, got %d", report.MaxUnitsNow)
	}
	if report.LimitingComponentNow != "FOAM-3LB" {
		t.Errorf("Expected limiting component FOAM-3LB, got %s", report.LimitingComponentNow)
	}
}

func TestCalculate_OverrideAndIncomingConversion(t *testing.T) {
	calc := testCalculator(t)

	// BOM declares 1 RL of poly bags per chair; the rule overrides that to
	// 1 EA and converts roll quantities at 100 bags per roll.
	bom := testBOM(t, usage(t, "POLB-129", 1, "RL"))

	// Snapshot quantities are already reconciled: 2 rolls on hand = 200 EA.
	snap := snapshotWith(map[entities.PartNumber]float64{"POLB-129": 200})

	line, err := entities.NewOpenPurchaseLine(
		7001, 1, 1, "POLB-129", "POLY BAG", "PackCo",
		decimal.NewFromInt(1), decimal.Zero,
		"RL", "2026-10-01", "2026-10-01", "Open",
	)
	if err != nil {
		t.Fatalf("NewOpenPurchaseLine failed: %v", err)
	}
	pos := map[entities.PartNumber][]entities.OpenPurchaseLine{
		"POLB-129": {*line},
	}

	result := calc.Calculate(bom, snap, pos)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsNow != 200 {
		t.Errorf("Expected 200 buildable now with override qty-per 1, got %d", report.MaxUnitsNow)
	}
	if report.MaxUnitsFuture != 300 {
		t.Errorf("Expected 300 buildable after 1 RL = 100 EA arrives, got %d", report.MaxUnitsFuture)
	}

	row := report.Bottlenecks[0]
	if row.QtyPer.String() != "1" || row.Unit != "EA" {
		t.Errorf("Expected effective qty-per 1 EA, got %s %s", row.QtyPer, row.Unit)
	}
	if row.IncomingQty.String() != "100" {
		t.Errorf("Expected incoming 100 EA, got %s", row.IncomingQty)
	}
}

func TestCalculate_TieBreaksToFirstDeclaredComponent(t *testing.T) {
	calc := testCalculator(t)

	// Both components allow exactly 50 units. Declared order decides.
	bom := testBOM(t,
		usage(t, "SBX-118", 2, "EA"),
		usage(t, "FOAM-3LB", 1, "EA"),
	)
	snap := snapshotWith(map[entities.PartNumber]float64{
		"SBX-118":  100,
		"FOAM-3LB": 50,
	})

	result := calc.Calculate(bom, snap, nil)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsNow != 50 {
		t.Fatalf("Expected 50 buildable units, got %d", report.MaxUnitsNow)
	}
	if report.LimitingComponentNow != "SBX-118" {
		t.Errorf("Expected tie to resolve to first declared component SBX-118, got %s", report.LimitingComponentNow)
	}
}

func TestCalculate_ZeroQtyPerIsAnomalyNotBlocker(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t,
		usage(t, "SBX-118", 0, "EA"),
		usage(t, "FOAM-3LB", 1, "EA"),
	)
	snap := snapshotWith(map[entities.PartNumber]float64{
		"SBX-118":  0,
		"FOAM-3LB": 25,
	})

	result := calc.Calculate(bom, snap, nil)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsNow != 25 {
		t.Errorf("Expected anomaly component excluded from limit, got %d", report.MaxUnitsNow)
	}
	if report.IsBlocked {
		t.Error("Expected SKU not blocked by a zero qty-per component")
	}
	if len(report.DataAnomalyComponents) != 1 || report.DataAnomalyComponents[0] != "SBX-118" {
		t.Errorf("Expected SBX-118 flagged as anomaly, got %v", report.DataAnomalyComponents)
	}
	if report.Bottlenecks[0].Status != entities.StatusDataError {
		t.Errorf("Expected data_error status, got %s", report.Bottlenecks[0].Status)
	}
}

func TestCalculate_AllAnomalySKUReportsZero(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t, usage(t, "SBX-118", 0, "EA"))
	snap := snapshotWith(map[entities.PartNumber]float64{"SBX-118": 500})

	result := calc.Calculate(bom, snap, nil)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsNow != 0 || report.MaxUnitsFuture != 0 {
		t.Errorf("Expected 0/0 for all-anomaly SKU, got %d/%d", report.MaxUnitsNow, report.MaxUnitsFuture)
	}
	if !report.IsBlocked {
		t.Error("Expected all-anomaly SKU to report blocked")
	}
	if result.Summary.BlockedSKUs != 1 {
		t.Errorf("Expected 1 blocked SKU in summary, got %d", result.Summary.BlockedSKUs)
	}
}

func TestCalculate_StatusClassification(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t,
		usage(t, "SBX-118", 1, "EA"),
		usage(t, "FOAM-3LB", 1, "EA"),
		usage(t, "WOOD-OAK2", 1, "EA"),
	)
	snap := snapshotWith(map[entities.PartNumber]float64{
		"SBX-118":   500, // ok
		"FOAM-3LB":  5,   // warning: fewer than 10 buildable
		"WOOD-OAK2": 0,   // critical: nothing available
	})

	result := calc.Calculate(bom, snap, nil)
	report := result.Reports["SBX-22721"]

	wantStatus := map[entities.PartNumber]entities.ComponentStatus{
		"SBX-118":   entities.StatusOK,
		"FOAM-3LB":  entities.StatusWarning,
		"WOOD-OAK2": entities.StatusCritical,
	}
	for _, row := range report.Bottlenecks {
		if row.Status != wantStatus[row.Component] {
			t.Errorf("Component %s: expected status %s, got %s", row.Component, wantStatus[row.Component], row.Status)
		}
	}

	if !report.IsBlocked {
		t.Error("Expected SKU blocked when a component has zero true available")
	}
	if report.LimitingComponentNow != "WOOD-OAK2" {
		t.Errorf("Expected limiting component WOOD-OAK2, got %s", report.LimitingComponentNow)
	}
}

func TestCalculate_FutureNeverBelowNow(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t,
		usage(t, "SBX-118", 1, "EA"),
		usage(t, "LEA-SBX14", 55, "SQFT"),
	)
	snap := snapshotWith(map[entities.PartNumber]float64{
		"SBX-118":   120,
		"LEA-SBX14": 880,
	})

	line, err := entities.NewOpenPurchaseLine(
		7002, 1, 1, "LEA-SBX14", "TAN LEATHER", "Acme Hides",
		decimal.NewFromInt(10), decimal.Zero,
		"HD", "2026-11-01", "2026-11-01", "Open",
	)
	if err != nil {
		t.Fatalf("NewOpenPurchaseLine failed: %v", err)
	}
	pos := map[entities.PartNumber][]entities.OpenPurchaseLine{
		"LEA-SBX14": {*line},
	}

	result := calc.Calculate(bom, snap, pos)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsFuture < report.MaxUnitsNow {
		t.Errorf("Future capacity %d below current %d", report.MaxUnitsFuture, report.MaxUnitsNow)
	}
	for _, row := range report.Bottlenecks {
		if row.MaxUnitsFuture < row.MaxUnitsNow {
			t.Errorf("Component %s: future %d below now %d", row.Component, row.MaxUnitsFuture, row.MaxUnitsNow)
		}
	}

	// 880 SQFT now covers 16 chairs; 10 HD = 500 SQFT more covers 25.
	if report.MaxUnitsNow != 16 {
		t.Errorf("Expected 16 buildable now, got %d", report.MaxUnitsNow)
	}
	if report.MaxUnitsFuture != 25 {
		t.Errorf("Expected 25 buildable with incoming leather, got %d", report.MaxUnitsFuture)
	}
	if report.LimitingComponentFut != "LEA-SBX14" {
		t.Errorf("Expected leather to limit future capacity, got %s", report.LimitingComponentFut)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t,
		usage(t, "SBX-118", 1, "EA"),
		usage(t, "LEA-SBX14", 55, "SQFT"),
		usage(t, "POLB-129", 1, "RL"),
	)
	snap := snapshotWith(map[entities.PartNumber]float64{
		"SBX-118":   120,
		"LEA-SBX14": 880,
		"POLB-129":  200,
	})

	a := calc.Calculate(bom, snap, nil)
	b := calc.Calculate(bom, snap, nil)

	a.Timestamp = b.Timestamp
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical inputs to produce identical results")
	}
}

func TestCalculate_MissingSnapshotComponentIsCritical(t *testing.T) {
	calc := testCalculator(t)

	bom := testBOM(t, usage(t, "SBX-118", 1, "EA"))
	snap := snapshotWith(nil)

	result := calc.Calculate(bom, snap, nil)
	report := result.Reports["SBX-22721"]

	if report.MaxUnitsNow != 0 {
		t.Errorf("Expected 0 buildable with no snapshot data, got %d", report.MaxUnitsNow)
	}
	if report.Bottlenecks[0].Status != entities.StatusCritical {
		t.Errorf("Expected critical status for missing component data, got %s", report.Bottlenecks[0].Status)
	}
	if !report.IsBlocked {
		t.Error("Expected SKU blocked when component data is missing")
	}
}

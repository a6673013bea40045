package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustUsage(t *testing.T, component PartNumber, qtyPer float64, unit string, category ComponentCategory) ComponentUsage {
	t.Helper()
	usage, err := NewComponentUsage(component, decimal.NewFromFloat(qtyPer), unit, category)
	if err != nil {
		t.Fatalf("NewComponentUsage(%s) failed: %v", component, err)
	}
	return *usage
}

func TestComponentUsage_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		component   PartNumber
		qtyPer      float64
		unit        string
		expectError string
	}{
		{"empty component", "", 1, "EA", "component part number cannot be empty"},
		{"negative qty", "SBX-118", -1, "EA", "quantity per unit cannot be negative, got -1"},
		{"empty unit", "SBX-118", 1, "", "unit of measure cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewComponentUsage(tc.component, decimal.NewFromFloat(tc.qtyPer), tc.unit, CategoryOther)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}

	// Zero qty per unit is a data anomaly, not an input error
	if _, err := NewComponentUsage("SBX-118", decimal.Zero, "EA", CategoryFrame); err != nil {
		t.Errorf("Expected zero qty per unit to be accepted: %v", err)
	}
}

func TestAssembly_Validation(t *testing.T) {
	frame := mustUsage(t, "SBX-118", 1, "EA", CategoryFrame)

	if _, err := NewAssembly("", "desc", "", "", []ComponentUsage{frame}); err == nil {
		t.Error("Expected error for empty SKU")
	}
	if _, err := NewAssembly("SBX-22721", "desc", "", "", nil); err == nil {
		t.Error("Expected error for assembly with no components")
	}

	self := mustUsage(t, "SBX-22721", 1, "EA", CategoryFrame)
	if _, err := NewAssembly("SBX-22721", "desc", "", "", []ComponentUsage{self}); err == nil {
		t.Error("Expected error for self-consuming assembly")
	}

	dup := []ComponentUsage{frame, frame}
	if _, err := NewAssembly("SBX-22721", "desc", "", "", dup); err == nil {
		t.Error("Expected error for duplicate component")
	}
}

func TestBillOfMaterials_ComponentOrder(t *testing.T) {
	a1, err := NewAssembly("SBX-22721", "Moon Chair", "11174933", "109209-5", []ComponentUsage{
		mustUsage(t, "SBX-118", 1, "EA", CategoryFrame),
		mustUsage(t, "LEA-SBX14", 55, "SQFT", CategoryLeather),
		mustUsage(t, "POLB-129", 1, "RL", CategoryPackaging),
	})
	if err != nil {
		t.Fatalf("NewAssembly failed: %v", err)
	}
	a2, err := NewAssembly("SBX-24540", "Comf Chair", "11174936", "109209-1", []ComponentUsage{
		mustUsage(t, "SBX-119", 1, "EA", CategoryFrame),
		mustUsage(t, "LEA-SBX14", 90, "SQFT", CategoryLeather),
	})
	if err != nil {
		t.Fatalf("NewAssembly failed: %v", err)
	}

	bom, err := NewBillOfMaterials([]Assembly{*a1, *a2})
	if err != nil {
		t.Fatalf("NewBillOfMaterials failed: %v", err)
	}

	// Distinct components in first-seen declared order; shared leather
	// appears once.
	want := []PartNumber{"SBX-118", "LEA-SBX14", "POLB-129", "SBX-119"}
	got := bom.Components()
	if len(got) != len(want) {
		t.Fatalf("Expected %d components, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Component %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if !bom.HasSKU("SBX-24540") {
		t.Error("Expected BOM to contain SBX-24540")
	}
	if bom.HasSKU("LEA-SBX14") {
		t.Error("Components must not register as SKUs")
	}

	if _, err := NewBillOfMaterials([]Assembly{*a1, *a1}); err == nil {
		t.Error("Expected error for duplicate SKU")
	}
}

package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewOpenPurchaseLine_RemainQty(t *testing.T) {
	testCases := []struct {
		name         string
		orderQty     float64
		receivedQty  float64
		expectRemain string
	}{
		{"nothing received", 500, 0, "500"},
		{"partially received", 500, 120, "380"},
		{"fully received", 500, 500, "0"},
		{"over-received clamps to zero", 500, 520, "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := NewOpenPurchaseLine(
				7001, 1, 1,
				"LEA-SBX14", "TAN LEATHER", "Acme Hides",
				decimal.NewFromFloat(tc.orderQty), decimal.NewFromFloat(tc.receivedQty),
				"HD", "2026-10-01", "2026-10-05", "Open",
			)
			if err != nil {
				t.Fatalf("NewOpenPurchaseLine failed: %v", err)
			}
			if line.RemainQty.String() != tc.expectRemain {
				t.Errorf("Expected remaining qty %s, got %s", tc.expectRemain, line.RemainQty)
			}
		})
	}
}

func TestNewOpenPurchaseLine_Validation(t *testing.T) {
	if _, err := NewOpenPurchaseLine(7001, 1, 1, "", "", "", decimal.NewFromInt(1), decimal.Zero, "EA", "", "", "Open"); err == nil {
		t.Error("Expected error for empty part number")
	}
	if _, err := NewOpenPurchaseLine(7001, 1, 1, "SBX-118", "", "", decimal.NewFromInt(-1), decimal.Zero, "EA", "", "", "Open"); err == nil {
		t.Error("Expected error for negative order quantity")
	}
	if _, err := NewOpenPurchaseLine(7001, 1, 1, "SBX-118", "", "", decimal.NewFromInt(1), decimal.NewFromInt(-1), "EA", "", "", "Open"); err == nil {
		t.Error("Expected error for negative received quantity")
	}
}

func TestJobMaterial_Outstanding(t *testing.T) {
	m := JobMaterial{
		JobNum:      "J-1001",
		Part:        "LEA-SBX14",
		RequiredQty: decimal.NewFromInt(110),
		IssuedQty:   decimal.NewFromInt(40),
	}
	if got := m.Outstanding(); got.String() != "70" {
		t.Errorf("Expected outstanding 70, got %s", got)
	}

	m.IssuedQty = decimal.NewFromInt(150)
	if got := m.Outstanding(); !got.IsZero() {
		t.Errorf("Expected over-issued job line to clamp to zero, got %s", got)
	}
}

func TestNewConversionRule_Validation(t *testing.T) {
	override := decimal.NewFromFloat(1.0)

	rule, err := NewConversionRule("POLB-129", "RL", "EA", decimal.NewFromInt(100), &override)
	if err != nil {
		t.Fatalf("NewConversionRule failed: %v", err)
	}
	if rule.QtyPerOverride == nil || !rule.QtyPerOverride.Equal(override) {
		t.Errorf("Expected override 1.0, got %v", rule.QtyPerOverride)
	}

	if _, err := NewConversionRule("POLB-129", "RL", "EA", decimal.Zero, nil); err == nil {
		t.Error("Expected error for zero conversion factor")
	}
	if _, err := NewConversionRule("POLB-129", "RL", "EA", decimal.NewFromInt(-2), nil); err == nil {
		t.Error("Expected error for negative conversion factor")
	}
	if _, err := NewConversionRule("POLB-129", "", "EA", decimal.NewFromInt(100), nil); err == nil {
		t.Error("Expected error for empty storage unit")
	}
}

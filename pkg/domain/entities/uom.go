package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConversionRule maps a component's storage unit to the unit it is consumed
// in. Static configuration, read-only at runtime.
//
// Factor expresses "1 storage unit = Factor consumption units". When
// QtyPerOverride is set it replaces the BOM-declared quantity per unit
// outright; it is a correction for known BOM authoring errors, not a unit
// conversion.
type ConversionRule struct {
	Part            PartNumber
	StorageUnit     string
	ConsumptionUnit string
	Factor          decimal.Decimal
	QtyPerOverride  *decimal.Decimal
}

// NewConversionRule creates a validated ConversionRule
func NewConversionRule(part PartNumber, storageUnit, consumptionUnit string, factor decimal.Decimal, qtyPerOverride *decimal.Decimal) (*ConversionRule, error) {
	if string(part) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if storageUnit == "" {
		return nil, fmt.Errorf("storage unit cannot be empty")
	}
	if consumptionUnit == "" {
		return nil, fmt.Errorf("consumption unit cannot be empty")
	}
	if !factor.IsPositive() {
		return nil, fmt.Errorf("conversion factor must be positive, got %s", factor)
	}
	if qtyPerOverride != nil && qtyPerOverride.IsNegative() {
		return nil, fmt.Errorf("quantity per override cannot be negative, got %s", qtyPerOverride)
	}

	return &ConversionRule{
		Part:            part,
		StorageUnit:     storageUnit,
		ConsumptionUnit: consumptionUnit,
		Factor:          factor,
		QtyPerOverride:  qtyPerOverride,
	}, nil
}

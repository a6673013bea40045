package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WarehouseBalance represents on-hand and allocated quantity in one warehouse
type WarehouseBalance struct {
	WarehouseCode string          `json:"warehouseCode"`
	OnHand        decimal.Decimal `json:"onHand"`
	Allocated     decimal.Decimal `json:"allocated"`
}

// PartBalance represents raw warehouse balances for one part as reported by
// the upstream inventory source, before any unit reconciliation
type PartBalance struct {
	Part       PartNumber
	OnHand     decimal.Decimal
	Allocated  decimal.Decimal
	Warehouses []WarehouseBalance
}

// NewPartBalance creates a PartBalance whose totals are summed from the
// per-warehouse rows
func NewPartBalance(part PartNumber, warehouses []WarehouseBalance) (*PartBalance, error) {
	if string(part) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	onHand := decimal.Zero
	allocated := decimal.Zero
	for _, w := range warehouses {
		onHand = onHand.Add(w.OnHand)
		allocated = allocated.Add(w.Allocated)
	}

	return &PartBalance{
		Part:       part,
		OnHand:     onHand,
		Allocated:  allocated,
		Warehouses: warehouses,
	}, nil
}

// Available returns on-hand minus allocated. May be negative when the
// upstream allocation figure exceeds on-hand.
func (b *PartBalance) Available() decimal.Decimal {
	return b.OnHand.Sub(b.Allocated)
}

// ComponentSnapshot represents the fused inventory picture for one component:
// raw balances, open-job demand, and unit-reconciled availability. Rebuilt
// every snapshot cycle, never cached across cycles.
type ComponentSnapshot struct {
	Part              PartNumber         `json:"partNum"`
	Description       string             `json:"description"`
	OnHand            decimal.Decimal    `json:"onHand"`
	Allocated         decimal.Decimal    `json:"allocated"`
	JobDemand         decimal.Decimal    `json:"jobDemand"`
	Available         decimal.Decimal    `json:"available"`
	TrueAvailable     decimal.Decimal    `json:"trueAvailable"`
	DisplayUnit       string             `json:"uom"`
	StorageUnit       string             `json:"storageUom"`
	ConversionApplied bool               `json:"conversionApplied"`
	Warehouses        []WarehouseBalance `json:"warehouses"`
	Err               string             `json:"error,omitempty"`
}

// FailedComponentSnapshot builds the zero-quantity snapshot reported for a
// component whose upstream fetch failed
func FailedComponentSnapshot(part PartNumber, description, unit string, err error) ComponentSnapshot {
	return ComponentSnapshot{
		Part:          part,
		Description:   description,
		OnHand:        decimal.Zero,
		Allocated:     decimal.Zero,
		JobDemand:     decimal.Zero,
		Available:     decimal.Zero,
		TrueAvailable: decimal.Zero,
		DisplayUnit:   unit,
		StorageUnit:   unit,
		Warehouses:    []WarehouseBalance{},
		Err:           err.Error(),
	}
}

package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ComponentCategory classifies a BOM component by the kind of material it is
type ComponentCategory int

const (
	CategoryFrame ComponentCategory = iota
	CategoryLeather
	CategoryPattern
	CategoryFoam
	CategoryPackaging
	CategoryOther
)

// String method for ComponentCategory enum
func (c ComponentCategory) String() string {
	switch c {
	case CategoryFrame:
		return "Frame"
	case CategoryLeather:
		return "Leather"
	case CategoryPattern:
		return "Pattern"
	case CategoryFoam:
		return "Foam"
	case CategoryPackaging:
		return "Packaging"
	default:
		return "Other"
	}
}

// ParseComponentCategory maps a category name to its enum value. Unknown
// names map to CategoryOther rather than failing, since category is
// informational only.
func ParseComponentCategory(s string) ComponentCategory {
	switch s {
	case "Frame":
		return CategoryFrame
	case "Leather":
		return CategoryLeather
	case "Pattern":
		return CategoryPattern
	case "Foam":
		return CategoryFoam
	case "Packaging":
		return CategoryPackaging
	default:
		return CategoryOther
	}
}

// MarshalText implements encoding.TextMarshaler so categories serialize by name
func (c ComponentCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ComponentUsage represents a single line in a finished good's recipe: how
// much of one component each produced unit consumes
type ComponentUsage struct {
	Component PartNumber        `json:"component"`
	QtyPer    decimal.Decimal   `json:"qtyPer"`
	Unit      string            `json:"uom"`
	Category  ComponentCategory `json:"type"`
}

// NewComponentUsage creates a validated ComponentUsage. A zero QtyPer is
// permitted; downstream capacity math treats it as a data anomaly, not an
// input error.
func NewComponentUsage(component PartNumber, qtyPer decimal.Decimal, unit string, category ComponentCategory) (*ComponentUsage, error) {
	if string(component) == "" {
		return nil, fmt.Errorf("component part number cannot be empty")
	}
	if qtyPer.IsNegative() {
		return nil, fmt.Errorf("quantity per unit cannot be negative, got %s", qtyPer)
	}
	if unit == "" {
		return nil, fmt.Errorf("unit of measure cannot be empty")
	}

	return &ComponentUsage{
		Component: component,
		QtyPer:    qtyPer,
		Unit:      unit,
		Category:  category,
	}, nil
}

// Assembly represents one finished-good SKU and its component recipe.
// Components preserve declared order; capacity tie-breaks depend on it.
type Assembly struct {
	SKU             PartNumber       `json:"sku"`
	Description     string           `json:"description"`
	CustomerPartNum string           `json:"customerPartNum"`
	QuoteLine       string           `json:"quoteLine"`
	Components      []ComponentUsage `json:"components"`
}

// NewAssembly creates a validated Assembly
func NewAssembly(sku PartNumber, description, customerPartNum, quoteLine string, components []ComponentUsage) (*Assembly, error) {
	if string(sku) == "" {
		return nil, fmt.Errorf("SKU part number cannot be empty")
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("assembly %s must have at least one component", sku)
	}
	seen := make(map[PartNumber]bool, len(components))
	for _, c := range components {
		if c.Component == sku {
			return nil, fmt.Errorf("assembly %s cannot consume itself", sku)
		}
		if seen[c.Component] {
			return nil, fmt.Errorf("assembly %s lists component %s twice", sku, c.Component)
		}
		seen[c.Component] = true
	}

	return &Assembly{
		SKU:             sku,
		Description:     description,
		CustomerPartNum: customerPartNum,
		QuoteLine:       quoteLine,
		Components:      components,
	}, nil
}

// BillOfMaterials is the full SKU-to-component structure for the tracked
// program. It is immutable after construction: cache refreshes build a new
// value and swap the reference, they never mutate an existing one.
type BillOfMaterials struct {
	assemblies []Assembly
	index      map[PartNumber]int
}

// NewBillOfMaterials creates a validated BillOfMaterials from assemblies in
// declared order
func NewBillOfMaterials(assemblies []Assembly) (*BillOfMaterials, error) {
	if len(assemblies) == 0 {
		return nil, fmt.Errorf("bill of materials must have at least one assembly")
	}
	index := make(map[PartNumber]int, len(assemblies))
	for i, a := range assemblies {
		if _, dup := index[a.SKU]; dup {
			return nil, fmt.Errorf("duplicate SKU in bill of materials: %s", a.SKU)
		}
		index[a.SKU] = i
	}

	return &BillOfMaterials{
		assemblies: assemblies,
		index:      index,
	}, nil
}

// Assemblies returns all assemblies in declared order
func (b *BillOfMaterials) Assemblies() []Assembly {
	return b.assemblies
}

// Assembly returns the assembly for a SKU, if present
func (b *BillOfMaterials) Assembly(sku PartNumber) (*Assembly, bool) {
	i, ok := b.index[sku]
	if !ok {
		return nil, false
	}
	return &b.assemblies[i], true
}

// HasSKU reports whether the BOM contains the given finished-good SKU
func (b *BillOfMaterials) HasSKU(sku PartNumber) bool {
	_, ok := b.index[sku]
	return ok
}

// SKUs returns all finished-good part numbers in declared order
func (b *BillOfMaterials) SKUs() []PartNumber {
	skus := make([]PartNumber, len(b.assemblies))
	for i, a := range b.assemblies {
		skus[i] = a.SKU
	}
	return skus
}

// Components returns the distinct component part numbers referenced by any
// assembly, in first-seen declared order
func (b *BillOfMaterials) Components() []PartNumber {
	var parts []PartNumber
	seen := make(map[PartNumber]bool)
	for _, a := range b.assemblies {
		for _, c := range a.Components {
			if !seen[c.Component] {
				seen[c.Component] = true
				parts = append(parts, c.Component)
			}
		}
	}
	return parts
}

package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
)

// UOMReconciler converts component quantities between the unit they are
// stored in and the unit they are consumed in. The rule table is static
// configuration; the reconciler is pure and safe for concurrent use.
//
// Reconciliation applies to quantities that originate in storage units:
// on-hand, allocated, and incoming purchase quantities. Job material demand
// is already reported in consumption units and must never pass through it.
type UOMReconciler struct {
	rules map[entities.PartNumber]entities.ConversionRule
}

// NewUOMReconciler creates a reconciler from a rule table
func NewUOMReconciler(rules []entities.ConversionRule) (*UOMReconciler, error) {
	table := make(map[entities.PartNumber]entities.ConversionRule, len(rules))
	for _, r := range rules {
		if _, dup := table[r.Part]; dup {
			return nil, fmt.Errorf("duplicate conversion rule for part %s", r.Part)
		}
		table[r.Part] = r
	}

	return &UOMReconciler{rules: table}, nil
}

// Rule returns the conversion rule for a part, if one exists
func (r *UOMReconciler) Rule(part entities.PartNumber) (entities.ConversionRule, bool) {
	rule, ok := r.rules[part]
	return rule, ok
}

// Reconcile converts a quantity from its source unit to the part's
// consumption unit. Quantities already in the consumption unit (or for parts
// with no rule) pass through unchanged with converted=false, which makes the
// operation idempotent.
func (r *UOMReconciler) Reconcile(part entities.PartNumber, qty decimal.Decimal, sourceUnit string) (converted decimal.Decimal, unit string, wasConverted bool) {
	rule, ok := r.rules[part]
	if !ok || sourceUnit != rule.StorageUnit {
		return qty, sourceUnit, false
	}
	return qty.Mul(rule.Factor), rule.ConsumptionUnit, true
}

// EffectiveQtyPer resolves the quantity of a component consumed per finished
// unit. An override on the rule supersedes the BOM-declared quantity
// entirely; otherwise a BOM quantity declared in the storage unit is scaled
// into consumption units.
func (r *UOMReconciler) EffectiveQtyPer(part entities.PartNumber, bomQty decimal.Decimal, bomUnit string) (decimal.Decimal, string) {
	rule, ok := r.rules[part]
	if !ok {
		return bomQty, bomUnit
	}
	if rule.QtyPerOverride != nil {
		return *rule.QtyPerOverride, rule.ConsumptionUnit
	}
	if bomUnit == rule.StorageUnit {
		return bomQty.Mul(rule.Factor), rule.ConsumptionUnit
	}
	return bomQty, bomUnit
}

// UnreferencedRules returns the parts of rules that no assembly in the BOM
// consumes. Such rules are not an error; callers log them at startup so rule
// drift against the BOM is visible.
func (r *UOMReconciler) UnreferencedRules(bom *entities.BillOfMaterials) []entities.PartNumber {
	referenced := make(map[entities.PartNumber]bool)
	for _, part := range bom.Components() {
		referenced[part] = true
	}

	var orphans []entities.PartNumber
	for part := range r.rules {
		if !referenced[part] {
			orphans = append(orphans, part)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
	return orphans
}

// Package capacity derives per-SKU production limits from an inventory
// snapshot and open purchase lines. The calculator is a pure transformation:
// no I/O, no shared state, identical inputs produce identical output.
package capacity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/waseem-amtrend/capacity/pkg/application/dto"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/services"
)

// warningThreshold is the buildable-unit count below which a component is
// flagged as a warning rather than ok
const warningThreshold = 10

// Calculator computes capacity reports
type Calculator struct {
	reconciler *services.UOMReconciler
}

// NewCalculator creates a capacity calculator
func NewCalculator(reconciler *services.UOMReconciler) *Calculator {
	return &Calculator{reconciler: reconciler}
}

// Calculate derives the capacity report for every SKU in the BOM.
//
// For each component, incoming PO quantity is unit-reconciled and added to
// true available to give the future figure. A zero effective
// quantity-per-unit is a data anomaly: the component is excluded from the
// limiting-component search and flagged, it never blocks production by
// itself. Ties for the limiting component resolve to the first component in
// the BOM's declared order.
func (c *Calculator) Calculate(
	bom *entities.BillOfMaterials,
	snap *dto.InventorySnapshot,
	purchaseLines map[entities.PartNumber][]entities.OpenPurchaseLine,
) *dto.CapacityResult {
	reports := make(map[entities.PartNumber]entities.CapacityReport, len(bom.Assemblies()))
	summary := entities.CapacitySummary{TotalSKUs: len(bom.Assemblies())}

	for _, assembly := range bom.Assemblies() {
		report := c.calculateSKU(assembly, snap, purchaseLines)
		reports[assembly.SKU] = report

		summary.TotalNow += report.MaxUnitsNow
		summary.TotalFuture += report.MaxUnitsFuture
		if report.IsBlocked {
			summary.BlockedSKUs++
		}
	}

	return &dto.CapacityResult{
		Reports:   reports,
		Order:     bom.SKUs(),
		Summary:   summary,
		Success:   snap.Success,
		RefreshID: snap.RefreshID,
		Timestamp: time.Now(),
	}
}

func (c *Calculator) calculateSKU(
	assembly entities.Assembly,
	snap *dto.InventorySnapshot,
	purchaseLines map[entities.PartNumber][]entities.OpenPurchaseLine,
) entities.CapacityReport {
	bottlenecks := make([]entities.ComponentBottleneck, 0, len(assembly.Components))
	var anomalies []entities.PartNumber

	haveLimit := false
	var maxNow, maxFuture int64
	var limitingNow, limitingFuture entities.PartNumber

	for _, usage := range assembly.Components {
		row := c.componentRow(usage, snap, purchaseLines[usage.Component])
		bottlenecks = append(bottlenecks, row)

		if row.Status == entities.StatusDataError {
			anomalies = append(anomalies, usage.Component)
			continue
		}

		// Strict comparison keeps the first component on ties, preserving
		// BOM declared order.
		if !haveLimit || row.MaxUnitsNow < maxNow {
			maxNow = row.MaxUnitsNow
			limitingNow = usage.Component
		}
		if !haveLimit || row.MaxUnitsFuture < maxFuture {
			maxFuture = row.MaxUnitsFuture
			limitingFuture = usage.Component
		}
		haveLimit = true
	}

	if !haveLimit {
		// Every component was a data anomaly; nothing buildable can be
		// asserted.
		maxNow = 0
		maxFuture = 0
	}

	return entities.CapacityReport{
		SKU:                   assembly.SKU,
		Description:           assembly.Description,
		CustomerPartNum:       assembly.CustomerPartNum,
		QuoteLine:             assembly.QuoteLine,
		MaxUnitsNow:           maxNow,
		MaxUnitsFuture:        maxFuture,
		LimitingComponentNow:  limitingNow,
		LimitingComponentFut:  limitingFuture,
		Bottlenecks:           bottlenecks,
		IsBlocked:             maxNow == 0,
		DataAnomalyComponents: anomalies,
	}
}

func (c *Calculator) componentRow(
	usage entities.ComponentUsage,
	snap *dto.InventorySnapshot,
	lines []entities.OpenPurchaseLine,
) entities.ComponentBottleneck {
	inv, _ := snap.Component(usage.Component)

	incoming := decimal.Zero
	for _, line := range lines {
		qty, _, _ := c.reconciler.Reconcile(usage.Component, line.RemainQty, line.Unit)
		incoming = incoming.Add(qty)
	}

	qtyPer, unit := c.reconciler.EffectiveQtyPer(usage.Component, usage.QtyPer, usage.Unit)
	futureAvailable := inv.TrueAvailable.Add(incoming)

	row := entities.ComponentBottleneck{
		Component:       usage.Component,
		Description:     inv.Description,
		QtyPer:          qtyPer,
		Unit:            unit,
		Category:        usage.Category,
		OnHand:          inv.OnHand,
		Allocated:       inv.Allocated,
		JobDemand:       inv.JobDemand,
		Available:       inv.Available,
		TrueAvailable:   inv.TrueAvailable,
		IncomingQty:     incoming,
		FutureAvailable: futureAvailable,
		PurchaseLines:   lines,
	}
	if row.PurchaseLines == nil {
		row.PurchaseLines = []entities.OpenPurchaseLine{}
	}

	if !qtyPer.IsPositive() {
		row.Status = entities.StatusDataError
		return row
	}

	row.MaxUnitsNow = floorDiv(inv.TrueAvailable, qtyPer)
	row.MaxUnitsFuture = floorDiv(futureAvailable, qtyPer)

	switch {
	case !inv.TrueAvailable.IsPositive():
		row.Status = entities.StatusCritical
	case row.MaxUnitsNow < warningThreshold:
		row.Status = entities.StatusWarning
	default:
		row.Status = entities.StatusOK
	}
	return row
}

// floorDiv returns floor(qty / per) as a unit count. Callers guarantee per
// is positive.
func floorDiv(qty, per decimal.Decimal) int64 {
	return qty.Div(per).Floor().IntPart()
}

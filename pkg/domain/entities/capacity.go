package entities

import (
	"github.com/shopspring/decimal"
)

// ComponentStatus classifies how constrained a component is for one SKU
type ComponentStatus int

const (
	StatusOK ComponentStatus = iota
	StatusWarning
	StatusCritical
	StatusDataError
)

// String method for ComponentStatus enum
func (s ComponentStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	case StatusDataError:
		return "data_error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so statuses serialize by name
func (s ComponentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ComponentBottleneck represents the per-component capacity detail for one
// SKU: how many finished units the component's supply can cover now and
// after incoming purchase orders arrive
type ComponentBottleneck struct {
	Component       PartNumber         `json:"component"`
	Description     string             `json:"description"`
	QtyPer          decimal.Decimal    `json:"qtyPer"`
	Unit            string             `json:"uom"`
	Category        ComponentCategory  `json:"type"`
	OnHand          decimal.Decimal    `json:"onHand"`
	Allocated       decimal.Decimal    `json:"allocated"`
	JobDemand       decimal.Decimal    `json:"jobDemand"`
	Available       decimal.Decimal    `json:"available"`
	TrueAvailable   decimal.Decimal    `json:"trueAvailable"`
	IncomingQty     decimal.Decimal    `json:"incomingQty"`
	FutureAvailable decimal.Decimal    `json:"futureAvailable"`
	MaxUnitsNow     int64              `json:"maxUnitsNow"`
	MaxUnitsFuture  int64              `json:"maxUnitsFuture"`
	Status          ComponentStatus    `json:"status"`
	PurchaseLines   []OpenPurchaseLine `json:"pos"`
}

// CapacityReport represents the buildable-unit answer for one SKU
type CapacityReport struct {
	SKU                    PartNumber            `json:"sku"`
	Description            string                `json:"description"`
	CustomerPartNum        string                `json:"customerPartNum"`
	QuoteLine              string                `json:"quoteLine"`
	MaxUnitsNow            int64                 `json:"maxProductionNow"`
	MaxUnitsFuture         int64                 `json:"maxProductionFuture"`
	LimitingComponentNow   PartNumber            `json:"limitingComponentNow"`
	LimitingComponentFut   PartNumber            `json:"limitingComponentFuture"`
	Bottlenecks            []ComponentBottleneck `json:"bottlenecks"`
	IsBlocked              bool                  `json:"isBlocked"`
	DataAnomalyComponents  []PartNumber          `json:"dataAnomalies,omitempty"`
}

// CapacitySummary aggregates capacity across all SKUs
type CapacitySummary struct {
	TotalNow    int64 `json:"totalCurrentCapacity"`
	TotalFuture int64 `json:"totalFutureCapacity"`
	BlockedSKUs int   `json:"blockedSkus"`
	TotalSKUs   int   `json:"totalSkus"`
}

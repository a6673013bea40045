package dto

import (
	"time"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
)

// InventorySnapshot contains the fused per-component inventory picture for
// one snapshot cycle
type InventorySnapshot struct {
	Components map[entities.PartNumber]entities.ComponentSnapshot `json:"components"`
	// Order lists component part numbers in BOM declared order for stable
	// presentation
	Order           []entities.PartNumber `json:"order"`
	FailedParts     []entities.PartNumber `json:"failedParts,omitempty"`
	Success         bool                  `json:"success"`
	DemandSampled   int                   `json:"demandJobsSampled"`
	RefreshID       string                `json:"refreshId"`
	Timestamp       time.Time             `json:"timestamp"`
	StaleJobDemand  bool                  `json:"staleJobDemand,omitempty"`
}

// Component returns the snapshot for one part, if present
func (s *InventorySnapshot) Component(part entities.PartNumber) (entities.ComponentSnapshot, bool) {
	c, ok := s.Components[part]
	return c, ok
}

// CapacityResult contains per-SKU capacity reports plus the program summary
type CapacityResult struct {
	Reports   map[entities.PartNumber]entities.CapacityReport `json:"reports"`
	Order     []entities.PartNumber                           `json:"order"`
	Summary   entities.CapacitySummary                        `json:"summary"`
	Success   bool                                            `json:"success"`
	RefreshID string                                          `json:"refreshId"`
	Timestamp time.Time                                       `json:"timestamp"`
}

// PurchaseLinesResult contains open PO releases keyed by component
type PurchaseLinesResult struct {
	Lines     map[entities.PartNumber][]entities.OpenPurchaseLine `json:"lines"`
	Success   bool                                                `json:"success"`
	Stale     bool                                                `json:"stale,omitempty"`
	Timestamp time.Time                                           `json:"timestamp"`
}

package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenJob represents an open production job for the tracked customer
type OpenJob struct {
	JobNum    string
	Part      PartNumber
	StartDate time.Time
}

// JobMaterial represents one material requirement line on an open job
type JobMaterial struct {
	JobNum      string
	Part        PartNumber
	RequiredQty decimal.Decimal
	IssuedQty   decimal.Decimal
}

// Outstanding returns the quantity still to be consumed by the job:
// max(required - issued, 0). The job system reports these in consumption
// units already, so no reconciliation applies.
func (m JobMaterial) Outstanding() decimal.Decimal {
	out := m.RequiredQty.Sub(m.IssuedQty)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

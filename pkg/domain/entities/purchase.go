package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OpenPurchaseLine represents one open purchase order release for a
// component. Derived fresh every cycle from the upstream PO source.
type OpenPurchaseLine struct {
	PONum       int             `json:"poNum"`
	POLine      int             `json:"poLine"`
	ReleaseNum  int             `json:"relNum"`
	Part        PartNumber      `json:"partNum"`
	Description string          `json:"description"`
	VendorName  string          `json:"vendorName"`
	OrderQty    decimal.Decimal `json:"orderQty"`
	ReceivedQty decimal.Decimal `json:"receivedQty"`
	RemainQty   decimal.Decimal `json:"remainQty"`
	Unit        string          `json:"uom"`
	DueDate     string          `json:"dueDate"`
	PromiseDate string          `json:"promiseDate"`
	Status      string          `json:"status"`
}

// NewOpenPurchaseLine creates a validated OpenPurchaseLine with RemainQty
// derived as max(orderQty - receivedQty, 0). Over-receipts clamp to zero
// rather than reporting negative incoming supply.
func NewOpenPurchaseLine(
	poNum, poLine, releaseNum int,
	part PartNumber,
	description, vendorName string,
	orderQty, receivedQty decimal.Decimal,
	unit, dueDate, promiseDate, status string,
) (*OpenPurchaseLine, error) {
	if string(part) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if orderQty.IsNegative() {
		return nil, fmt.Errorf("order quantity cannot be negative, got %s", orderQty)
	}
	if receivedQty.IsNegative() {
		return nil, fmt.Errorf("received quantity cannot be negative, got %s", receivedQty)
	}

	remain := orderQty.Sub(receivedQty)
	if remain.IsNegative() {
		remain = decimal.Zero
	}

	return &OpenPurchaseLine{
		PONum:       poNum,
		POLine:      poLine,
		ReleaseNum:  releaseNum,
		Part:        part,
		Description: description,
		VendorName:  vendorName,
		OrderQty:    orderQty,
		ReceivedQty: receivedQty,
		RemainQty:   remain,
		Unit:        unit,
		DueDate:     dueDate,
		PromiseDate: promiseDate,
		Status:      status,
	}, nil
}
